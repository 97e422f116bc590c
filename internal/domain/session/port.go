package session

import (
	"context"
	"errors"
)

var (
	// ErrNoRefreshToken means a refresh was attempted with no refresh
	// token stored; the session cannot be recovered.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrNotLoggedIn means an operation required a session and none exists.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Store holds the current token pair. Implementations are per-process and
// non-persistent, the equivalent of a browser tab's session storage.
type Store interface {
	AccessToken() string
	RefreshToken() string
	SetPair(access, refresh string)
	Clear()
}

// Refresher exchanges a refresh token for a fresh pair. Implemented by the
// API layer over a bare HTTP client so the refresh call never runs through
// the authenticated transport.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}
