package filesvc

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/specedu/caseboard/core/iep"
)

// fakeDrive serves the multipart upload of Files.Create.
type fakeDrive struct {
	mu       sync.Mutex
	path     string
	fields   string
	meta     map[string]interface{}
	media    string
	mimeType string
	fail     bool
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.path = r.URL.Path
	f.fields = r.URL.Query().Get("fields")
	if f.fail {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"storage quota exceeded"}}`)
		return
	}

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	metaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_ = json.NewDecoder(metaPart).Decode(&f.meta)
	mediaPart, err := mr.NextPart()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mimeType = mediaPart.Header.Get("Content-Type")
	body, _ := io.ReadAll(mediaPart)
	f.media = string(body)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":          "drive-42",
		"name":        f.meta["name"].(string),
		"webViewLink": "https://drive.test/file/d/drive-42/view",
	})
}

func setupDrive(t *testing.T, folderID string) (*DriveStorage, *fakeDrive) {
	fake := &fakeDrive{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	storage, err := NewDriveStorage(context.Background(), folderID,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return storage, fake
}

func TestDriveStorage_Upload(t *testing.T) {
	storage, fake := setupDrive(t, "folder-iep")

	stored, err := storage.Upload(context.Background(), iep.UploadFile{
		Name:        "IEP 2024.pdf",
		ContentType: "application/pdf",
		Size:        8,
		Body:        strings.NewReader("%PDF-1.7"),
	})
	require.NoError(t, err)
	assert.Equal(t, iep.StoredFile{ID: "drive-42", Name: "IEP 2024.pdf", Link: "https://drive.test/file/d/drive-42/view"}, stored)

	assert.Equal(t, "/upload/drive/v3/files", fake.path)
	assert.Equal(t, "id, name, webViewLink", fake.fields)
	assert.Equal(t, "IEP 2024.pdf", fake.meta["name"])
	assert.Equal(t, []interface{}{"folder-iep"}, fake.meta["parents"])
	assert.Equal(t, "application/pdf", fake.mimeType)
	assert.Equal(t, "%PDF-1.7", fake.media)
}

func TestDriveStorage_UploadWithoutFolder(t *testing.T) {
	storage, fake := setupDrive(t, "")

	_, err := storage.Upload(context.Background(), iep.UploadFile{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("hi")})
	require.NoError(t, err)
	assert.NotContains(t, fake.meta, "parents")
}

func TestDriveStorage_UploadFailure(t *testing.T) {
	storage, fake := setupDrive(t, "folder-iep")
	fake.fail = true

	_, err := storage.Upload(context.Background(), iep.UploadFile{Name: "a.txt", ContentType: "text/plain", Body: strings.NewReader("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage quota exceeded")
}
