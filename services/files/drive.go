// Package filesvc stores uploaded files in cloud storage.
package filesvc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/specedu/caseboard/core/iep"
)

// DriveStorage uploads files into one Google Drive folder.
type DriveStorage struct {
	files    *drive.FilesService
	folderID string
}

var _ iep.FileStorage = (*DriveStorage)(nil)

// NewDriveStorage uploads into folderID, or the drive root when empty.
func NewDriveStorage(ctx context.Context, folderID string, opts ...option.ClientOption) (*DriveStorage, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating drive service")
	}
	return &DriveStorage{files: svc.Files, folderID: folderID}, nil
}

func (s *DriveStorage) Upload(ctx context.Context, file iep.UploadFile) (iep.StoredFile, error) {
	meta := &drive.File{Name: file.Name}
	if s.folderID != "" {
		meta.Parents = []string{s.folderID}
	}

	created, err := s.files.Create(meta).
		Media(file.Body, googleapi.ContentType(file.ContentType)).
		Fields("id, name, webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return iep.StoredFile{}, errors.Wrapf(err, "creating drive file %q", file.Name)
	}
	return iep.StoredFile{ID: created.Id, Name: created.Name, Link: created.WebViewLink}, nil
}
