package rest_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FarahDimassi/coachchat-go/chat"
	"github.com/FarahDimassi/coachchat-go/chat/rest"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

type recordedUpload struct {
	path        string
	partName    string
	filename    string
	contentType string
	body        []byte
}

func uploadServer(t *testing.T, status int, response string) (*httptest.Server, *recordedUpload) {
	t.Helper()
	rec := &recordedUpload{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		mr, err := r.MultipartReader()
		require.NoError(t, err)
		part, err := mr.NextPart()
		require.NoError(t, err)
		rec.partName = part.FormName()
		rec.filename = part.FileName()
		rec.contentType = part.Header.Get("Content-Type")
		rec.body, _ = io.ReadAll(part)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func Test_Upload_returns_durable_url(t *testing.T) {
	srv, rec := uploadServer(t, http.StatusOK, `{"url":"https://x/img.png"}`)
	path := writeTempFile(t, "photo.png", pngHeader)

	c := rest.NewClient(srv.URL)
	url, err := c.Upload(context.Background(), chat.AttachmentImage, path)

	require.NoError(t, err)
	assert.Equal(t, "https://x/img.png", url)
	assert.Equal(t, "/upload/image", rec.path)
	assert.Equal(t, "file", rec.partName)
	assert.Equal(t, "image/png", rec.contentType)
	assert.Regexp(t, `^\d+\.png$`, rec.filename, "part name is derived from a timestamp")
	assert.Equal(t, pngHeader, rec.body)
}

func Test_Upload_unknown_extension_falls_back_to_octet_stream(t *testing.T) {
	srv, rec := uploadServer(t, http.StatusOK, `{"url":"https://x/blob"}`)
	path := writeTempFile(t, "voice.xyzq", []byte{0x00, 0x01, 0x02, 0x03})

	c := rest.NewClient(srv.URL)
	_, err := c.Upload(context.Background(), chat.AttachmentAudio, path)

	require.NoError(t, err)
	assert.Equal(t, "/upload/audio", rec.path)
	assert.Equal(t, "application/octet-stream", rec.contentType)
}

func Test_Upload_failure_yields_no_url(t *testing.T) {
	srv, _ := uploadServer(t, http.StatusRequestEntityTooLarge, `{"error":"too large"}`)
	path := writeTempFile(t, "huge.png", pngHeader)

	c := rest.NewClient(srv.URL)
	url, err := c.Upload(context.Background(), chat.AttachmentImage, path)

	require.Error(t, err)
	assert.ErrorIs(t, err, chat.NewError(chat.ErrorUploadFailed, ""))
	assert.Empty(t, url)
}

func Test_Upload_missing_file_fails_before_any_request(t *testing.T) {
	c := rest.NewClient("http://127.0.0.1:1")

	url, err := c.Upload(context.Background(), chat.AttachmentImage, "/nowhere/img.png")

	require.Error(t, err)
	assert.Empty(t, url)
}
