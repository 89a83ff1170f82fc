package rest

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/FarahDimassi/coachchat-go/chat"
)

const fallbackContentType = "application/octet-stream"

// Common mobile attachment extensions. Anything else is sniffed from the
// file contents.
var mimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".caf":  "audio/x-caf",
}

// Upload sends the local resource as a single multipart POST and returns
// the server-provided durable URL. The part name is derived from a
// timestamp, the MIME type from the file extension with a content sniff
// fallback. All-or-nothing: a non-success response yields an error and no
// URL, so the caller creates no message for a failed upload.
func (c *Client) Upload(ctx context.Context, kind chat.AttachmentKind, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", chat.WrapError(chat.ErrorUploadFailed, "read attachment", err)
	}

	ext := strings.ToLower(filepath.Ext(localPath))
	contentType := mimeByExt[ext]
	if contentType == "" {
		contentType = sniffContentType(data)
	}
	filename := fmt.Sprintf("%d%s", time.Now().UnixMilli(), ext)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", chat.WrapError(chat.ErrorUploadFailed, "build multipart body", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", chat.WrapError(chat.ErrorUploadFailed, "build multipart body", err)
	}
	if err := w.Close(); err != nil {
		return "", chat.WrapError(chat.ErrorUploadFailed, "build multipart body", err)
	}

	path := "/upload/" + kind.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return "", chat.WrapError(chat.ErrorUploadFailed, "create request", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req)

	var resp UploadResponse
	if err := c.do(req, &resp); err != nil {
		return "", chat.WrapError(chat.ErrorUploadFailed, "upload attachment", err)
	}
	if resp.URL == "" {
		return "", chat.NewError(chat.ErrorUploadFailed, "server returned no attachment URL")
	}
	return resp.URL, nil
}

// sniffContentType detects the MIME type from the payload bytes, falling
// back to a generic octet-stream type.
func sniffContentType(data []byte) string {
	mt := mimetype.Detect(data)
	if mt == nil {
		return fallbackContentType
	}
	return mt.String()
}
