package filesvc

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/iep"
)

// MinioStorage uploads files to an S3 compatible bucket.
//
// Links point at PublicBaseURL when set, otherwise they are presigned and expire after LinkExpiry.
type MinioStorage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	linkExpiry    time.Duration
}

var _ iep.FileStorage = (*MinioStorage)(nil)

func NewMinioStorage(ctx context.Context, conf *core.Config) (*MinioStorage, error) {
	mc := conf.Files.Minio
	client, err := minio.New(mc.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client")
	}

	exists, err := client.BucketExists(ctx, mc.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "checking bucket %q", mc.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, mc.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "creating bucket %q", mc.Bucket)
		}
	}

	expiry := mc.LinkExpiry
	if expiry <= 0 || expiry > 7*24*time.Hour {
		expiry = 7 * 24 * time.Hour // presigned URLs cannot outlive a week
	}
	return &MinioStorage{
		client:        client,
		bucket:        mc.Bucket,
		publicBaseURL: strings.TrimRight(mc.PublicBaseURL, "/"),
		linkExpiry:    expiry,
	}, nil
}

// ObjectKey returns the key a file is stored under: a date folder and a unique prefix.
func ObjectKey(name string) string {
	return path.Join(core.NowFunc().UTC().Format("2006/01/02"), core.NewID("iep")+"-"+path.Base(name))
}

func (s *MinioStorage) Upload(ctx context.Context, file iep.UploadFile) (iep.StoredFile, error) {
	key := ObjectKey(file.Name)
	size := file.Size
	if size <= 0 {
		size = -1
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, file.Body, size, minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return iep.StoredFile{}, errors.Wrapf(err, "putting object %q", key)
	}

	link, err := s.link(ctx, info.Key, file.Name)
	if err != nil {
		return iep.StoredFile{}, err
	}
	return iep.StoredFile{ID: info.Key, Name: file.Name, Link: link}, nil
}

func (s *MinioStorage) link(ctx context.Context, key, name string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + s.bucket + "/" + key, nil
	}
	params := make(url.Values)
	params.Set("response-content-disposition", "inline; filename=\""+strings.ReplaceAll(name, "\"", "")+"\"")
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.linkExpiry, params)
	if err != nil {
		return "", errors.Wrapf(err, "presigning object %q", key)
	}
	return u.String(), nil
}
