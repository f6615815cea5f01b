package filesvc

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/iep"
)

// fakeS3 serves the path-style S3 calls made by MinioStorage.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]string // bucket/key: body
	types   map[string]string // bucket/key: content type
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	if len(parts) == 1 || parts[1] == "" {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Has("location"):
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
		case r.Method == http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut:
			f.buckets[bucket] = true
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
		return
	}

	if r.Method != http.MethodPut || !f.buckets[bucket] {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	var body []byte
	if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		body = decodeAWSChunked(r.Body)
	} else {
		body, _ = io.ReadAll(r.Body)
	}
	f.objects[r.URL.Path[1:]] = string(body)
	f.types[r.URL.Path[1:]] = r.Header.Get("Content-Type")
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
}

// decodeAWSChunked strips the chunk framing of streaming-signed uploads.
func decodeAWSChunked(r io.Reader) []byte {
	br := bufio.NewReader(r)
	var out []byte
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return out
		}
		size, err := strconv.ParseInt(strings.SplitN(strings.TrimSpace(line), ";", 2)[0], 16, 64)
		if err != nil || size == 0 {
			return out
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return out
		}
		out = append(out, chunk...)
		_, _ = br.Discard(2) // \r\n
	}
}

func setupMinio(t *testing.T, publicBaseURL string) (*MinioStorage, *fakeS3) {
	fake := &fakeS3{buckets: map[string]bool{}, objects: map[string]string{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	conf := &core.Config{Files: core.FilesConfig{Minio: core.MinioConfig{
		Endpoint:      u.Host,
		AccessKey:     "caseboard",
		SecretKey:     "caseboard-secret",
		Bucket:        "iep-files",
		PublicBaseURL: publicBaseURL,
	}}}
	storage, err := NewMinioStorage(context.Background(), conf)
	require.NoError(t, err)
	return storage, fake
}

func TestMinioStorage_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("public link", func(t *testing.T) {
		storage, fake := setupMinio(t, "https://files.test/")
		assert.True(t, fake.buckets["iep-files"], "bucket created")

		stored, err := storage.Upload(ctx, iep.UploadFile{
			Name:        "IEP 2024.pdf",
			ContentType: "application/pdf",
			Size:        8,
			Body:        strings.NewReader("%PDF-1.7"),
		})
		require.NoError(t, err)
		assert.Regexp(t, `^\d{4}/\d{2}/\d{2}/iep-\d+-IEP 2024\.pdf$`, stored.ID)
		assert.Equal(t, "IEP 2024.pdf", stored.Name)
		assert.Equal(t, "https://files.test/iep-files/"+stored.ID, stored.Link)

		assert.Equal(t, "%PDF-1.7", fake.objects["iep-files/"+stored.ID])
		assert.Equal(t, "application/pdf", fake.types["iep-files/"+stored.ID])
	})

	t.Run("presigned link", func(t *testing.T) {
		storage, fake := setupMinio(t, "")

		stored, err := storage.Upload(ctx, iep.UploadFile{Name: "notes.txt", ContentType: "text/plain", Size: 2, Body: strings.NewReader("hi")})
		require.NoError(t, err)
		assert.Equal(t, "hi", fake.objects["iep-files/"+stored.ID])

		link, err := url.Parse(stored.Link)
		require.NoError(t, err)
		assert.Equal(t, "/iep-files/"+stored.ID, link.Path)
		assert.NotEmpty(t, link.Query().Get("X-Amz-Signature"))
		assert.Equal(t, "604800", link.Query().Get("X-Amz-Expires"))
		assert.Equal(t, `inline; filename="notes.txt"`, link.Query().Get("response-content-disposition"))
	})
}
