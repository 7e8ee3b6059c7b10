// internal/uploader/http.go
package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const defaultTimeout = 60 * time.Second

// HTTPUploader отправляет файлы multipart POST запросом на endpoint.
// Ответ: {"uri": "..."} либо {"id": "..."}, тогда URI = gateway/id.
type HTTPUploader struct {
	endpoint string
	gateway  string
	client   *http.Client
}

type uploadResponse struct {
	URI string `json:"uri"`
	ID  string `json:"id"`
}

// NewHTTPUploader проверяет endpoint и создает uploader.
func NewHTTPUploader(endpoint, gateway string, timeout time.Duration) (*HTTPUploader, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid upload endpoint: %q", endpoint)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPUploader{
		endpoint: endpoint,
		gateway:  strings.TrimRight(gateway, "/"),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (u *HTTPUploader) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write multipart data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload %s failed: status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out uploadResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	switch {
	case out.URI != "":
		return out.URI, nil
	case out.ID != "" && u.gateway != "":
		return u.gateway + "/" + out.ID, nil
	default:
		return "", ErrEmptyURI
	}
}
