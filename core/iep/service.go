// Package iep keeps the IEP document repository: files live in cloud storage, metadata in a table.
package iep

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
)

type (
	// UploadFile is a file received from a client.
	UploadFile struct {
		Name        string
		ContentType string
		Size        int64
		Body        io.Reader
	}

	// StoredFile is where FileStorage put an upload.
	StoredFile struct {
		ID   string
		Name string
		Link string
	}

	// FileStorage stores uploaded files and returns a shareable link to them.
	FileStorage interface {
		Upload(ctx context.Context, file UploadFile) (StoredFile, error)
	}

	File struct {
		ID          string `json:"id"`
		Filename    string `json:"filename"`
		DriveFileID string `json:"drive_file_id"`
		UploadedBy  string `json:"uploaded_by"`
		Role        string `json:"role"`
		FileLink    string `json:"file_link"`
		UploadDate  string `json:"upload_date"`
		Comments    string `json:"comments"`
	}
)

func (f File) sheetRecord() sheet.Record {
	return sheet.Record{
		"id":            f.ID,
		"filename":      f.Filename,
		"drive_file_id": f.DriveFileID,
		"uploaded_by":   f.UploadedBy,
		"role":          f.Role,
		"file_link":     f.FileLink,
		"upload_date":   f.UploadDate,
		"comments":      f.Comments,
	}
}

func fromSheet(rec sheet.Record) File {
	return File{
		ID:          rec.Get("id"),
		Filename:    rec.Get("filename"),
		DriveFileID: rec.Get("drive_file_id"),
		UploadedBy:  rec.Get("uploaded_by"),
		Role:        rec.Get("role"),
		FileLink:    rec.Get("file_link"),
		UploadDate:  rec.Get("upload_date"),
		Comments:    rec.Get("comments"),
	}
}

type Service struct {
	store   *sheet.Store
	storage FileStorage
}

func NewService(tables sheet.TableService, storage FileStorage, logger core.Logger) *Service {
	return &Service{
		store:   sheet.NewStore(tables, sheet.TableIEPFiles, logger),
		storage: storage,
	}
}

func (svc *Service) List(ctx context.Context) []File {
	recs := svc.store.ReadAll(ctx)
	out := make([]File, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromSheet(rec))
	}
	return out
}

// Upload stores the file and records its metadata.
// When the metadata write fails the stored file is left in place.
func (svc *Service) Upload(ctx context.Context, uploader user.Identity, file UploadFile, comments string) (File, error) {
	stored, err := svc.storage.Upload(ctx, file)
	if err != nil {
		return File{}, core.NewUpstreamError("files", errors.Wrap(err, "uploading file"))
	}

	name := stored.Name
	if name == "" {
		name = file.Name
	}
	f := File{
		ID:          core.NewID("iep"),
		Filename:    name,
		DriveFileID: stored.ID,
		UploadedBy:  uploader.Name,
		Role:        uploader.Role,
		FileLink:    stored.Link,
		UploadDate:  core.Today(),
		Comments:    comments,
	}
	if err := svc.store.Append(ctx, f.sheetRecord()); err != nil {
		return File{}, errors.Wrap(err, "appending iep file")
	}
	return f, nil
}
