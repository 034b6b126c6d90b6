// Package objectstore uploads image blobs to the public bucket fronting the
// storefront CDN.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	// UploadURL accepts PUT {UploadURL}/{key}.
	UploadURL string
	// PublicURL is the base the stored object is served from.
	PublicURL string

	HTTPClient *http.Client
}

func New(uploadURL, publicURL string) *Client {
	return &Client{
		UploadURL:  strings.TrimRight(uploadURL, "/"),
		PublicURL:  strings.TrimRight(publicURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Put streams the object under key and returns its public URL.
func (c *Client) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.UploadURL+"/"+key, body)
	if err != nil {
		return "", err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload %s: status %d", key, resp.StatusCode)
	}
	return c.PublicURL + "/" + key, nil
}
