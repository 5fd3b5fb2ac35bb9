package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/heyfriend/heyfriend/internal/backend"
)

// UploadReply is the body the blob endpoint answers an upload with.
type UploadReply struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// HTTPBlobs uploads blob bytes to the backend's HTTP blob endpoint.
type HTTPBlobs struct {
	base      string
	principal backend.Principal
	client    *http.Client
}

// NewHTTPBlobs targets baseURL/blobs. A nil client uses http.DefaultClient.
func NewHTTPBlobs(baseURL string, principal backend.Principal, client *http.Client) *HTTPBlobs {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBlobs{base: strings.TrimRight(baseURL, "/"), principal: principal, client: client}
}

// Upload sends b's bytes, reports progress through b and records where the
// bytes were hosted.
func (h *HTTPBlobs) Upload(ctx context.Context, b *backend.Blob) error {
	data := b.Data()
	body := &progressReader{r: bytes.NewReader(data), total: int64(len(data)), report: b.Progress, last: -1}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.base+"/blobs", body)
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(PrincipalHeader, string(h.principal))

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, backend.ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("blob of %d bytes rejected: %w", len(data), backend.ErrInvalidArgument)
	case resp.StatusCode == http.StatusUnauthorized:
		return backend.ErrNotReady
	case resp.StatusCode/100 != 2:
		return fmt.Errorf("blob upload: http %d", resp.StatusCode)
	}

	var reply UploadReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("decode upload reply: %w", err)
	}
	b.Hosted(reply.ID, reply.URL)
	b.Progress(100)
	return nil
}

type progressReader struct {
	r      io.Reader
	read   int64
	total  int64
	last   int
	report func(int)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct != p.last && pct < 100 {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
