// Package api is the typed REST surface of the StayLoop backend. All
// authenticated calls run through AuthTransport, which owns the
// bearer-header and refresh-retry protocol.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	client_config "github.com/stayloop/stayloop-go/internal/config/client"
	"github.com/stayloop/stayloop-go/internal/session"
)

type Client struct {
	base     string
	httpc    *http.Client
	sess     *session.Manager
	log      *zap.Logger
	pageSize int
}

// New builds the authenticated client. onExpired runs whenever the
// session terminates because a refresh could not save it; the UI layer
// hooks its login redirect there.
func New(cfg client_config.API, sess *session.Manager, onExpired func(), log *zap.Logger) *Client {
	transport := &AuthTransport{
		Base:             newBaseTransport(),
		Session:          sess,
		OnSessionExpired: onExpired,
		Log:              log,
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Client{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		httpc:    &http.Client{Timeout: cfg.Timeout, Transport: transport},
		sess:     sess,
		log:      log,
		pageSize: pageSize,
	}
}

func newBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
}

// envelope is the backend's response shape: an error flag plus a payload
// that is either the data or a human-readable failure.
type envelope struct {
	Error bool            `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// APIError is the failure variant of a backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// failureMessage digs the human-readable message out of an error
// envelope: either a plain string or a list of field validation errors.
func failureMessage(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var fields []fieldError
	if err := json.Unmarshal(data, &fields); err == nil && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode}
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if env.Error || resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: failureMessage(env.Data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func (c *Client) pageQuery(page int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(c.pageSize))
	return q
}
