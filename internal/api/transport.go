package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/stayloop/stayloop-go/internal/obs"
	"github.com/stayloop/stayloop-go/internal/session"
)

const refreshPath = "/auth/refresh"

// AuthTransport decorates every request with the current bearer token and
// mediates the refresh protocol on 401 responses:
//
//   - a 401 from the refresh endpoint itself ends the session, no retry;
//   - if a refresh is already in flight, wait for its completion signal,
//     then retry the original request once with the current token;
//   - otherwise drive the refresh, then retry once on success.
//
// Retries go straight to the base transport, so a retry can never start
// another refresh cycle.
type AuthTransport struct {
	Base             http.RoundTripper
	Session          *session.Manager
	OnSessionExpired func()
	Log              *zap.Logger
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	isRefresh := strings.HasSuffix(req.URL.Path, refreshPath)

	out := req
	if !isRefresh && t.Session.IsLoggedIn() {
		out = withBearer(req, t.Session.AccessToken())
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if isRefresh {
		// the refresh credential itself was rejected; nothing left to try
		t.Log.Warn("refresh endpoint rejected the session")
		t.expire()
		return resp, nil
	}

	if !t.Session.IsLoggedIn() {
		// nothing to refresh without a session
		return resp, nil
	}

	if t.Session.Refreshing() {
		done := t.Session.RefreshDone()
		select {
		case <-done:
		case <-req.Context().Done():
			return resp, nil
		}
	} else if _, rerr := t.Session.Refresh(req.Context()); rerr != nil {
		t.Log.Warn("refresh failed, request not retried",
			zap.String("path", req.URL.Path), zap.Error(rerr))
		t.expire()
		return resp, nil
	}

	if !t.Session.IsLoggedIn() {
		// the shared refresh we waited on failed
		t.expire()
		return resp, nil
	}

	resp.Body.Close()
	obs.AuthRetries.Inc()
	retry := cloneForRetry(req)
	retry.Header.Set("Authorization", "Bearer "+t.Session.AccessToken())
	return t.base().RoundTrip(retry)
}

func (t *AuthTransport) expire() {
	if t.OnSessionExpired != nil {
		t.OnSessionExpired()
	}
}

func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)
	return out
}

// cloneForRetry rebuilds the request, replaying the body where possible.
func cloneForRetry(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			out.Body = body
		}
	}
	return out
}
