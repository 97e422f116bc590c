package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// UploadImage stores a listing image and returns its public URL. The file
// is buffered in full so the authenticated transport can replay the
// request after a token refresh.
func (c *Client) UploadImage(ctx context.Context, filename string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/images", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST /images: %w", err)
	}
	defer resp.Body.Close()

	var imageURL string
	if err := decodeResponse(resp, &imageURL); err != nil {
		return "", err
	}
	return imageURL, nil
}

// DeleteImage removes a previously uploaded image by its URL.
func (c *Client) DeleteImage(ctx context.Context, imageURL string) error {
	q := url.Values{}
	q.Set("url", imageURL)
	return c.do(ctx, http.MethodDelete, "/images", q, nil, nil)
}
