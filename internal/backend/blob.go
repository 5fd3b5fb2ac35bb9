package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Blob is an opaque media handle. A blob built from bytes must be uploaded
// before a backend call references it; one built from a URL already has a
// fetchable location. Only ID and URL cross the wire.
type Blob struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`

	data       []byte
	onProgress func(pct int)
}

// BlobFromBytes wraps raw bytes that still need uploading.
func BlobFromBytes(data []byte) *Blob {
	return &Blob{data: data}
}

// BlobFromURL refers to media that is already hosted.
func BlobFromURL(url string) *Blob {
	return &Blob{URL: url}
}

// WithUploadProgress returns a copy of b that reports upload percentage
// (0 to 100) to fn.
func (b *Blob) WithUploadProgress(fn func(pct int)) *Blob {
	c := *b
	c.onProgress = fn
	return &c
}

// DirectURL returns the fetchable URL, empty until the blob is hosted.
func (b *Blob) DirectURL() string {
	if b == nil {
		return ""
	}
	return b.URL
}

// Pending reports whether b holds local bytes that have not been uploaded.
func (b *Blob) Pending() bool {
	return b != nil && b.URL == "" && b.data != nil
}

// Data returns the local bytes, nil for URL-only blobs.
func (b *Blob) Data() []byte {
	return b.data
}

// Progress forwards an upload percentage to the registered callback.
func (b *Blob) Progress(pct int) {
	if b.onProgress != nil {
		b.onProgress(pct)
	}
}

// Hosted records where the uploaded bytes now live.
func (b *Blob) Hosted(id, url string) {
	b.ID = id
	b.URL = url
}

// Bytes returns the blob's content, fetching it from its URL when the
// bytes are not held locally. A nil client uses http.DefaultClient.
func (b *Blob) Bytes(ctx context.Context, client *http.Client) ([]byte, error) {
	if b.data != nil {
		return b.data, nil
	}
	if b.URL == "" {
		return nil, fmt.Errorf("blob has neither bytes nor url: %w", ErrInvalidArgument)
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch blob: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch blob: http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
