package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	domain "github.com/stayloop/stayloop-go/internal/domain/session"
	"github.com/stayloop/stayloop-go/internal/obs"
)

// closed channel handed to RefreshDone callers when nothing is in flight.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Manager owns the token pair and the refresh protocol. At most one
// refresh call is outstanding at any time; everyone else waits for its
// completion signal and then re-reads the store.
type Manager struct {
	store     domain.Store
	refresher domain.Refresher
	log       *zap.Logger
	now       func() time.Time

	group singleflight.Group

	mu         sync.Mutex
	refreshing bool
	done       chan struct{} // non-nil while a refresh is in flight
}

func NewManager(store domain.Store, refresher domain.Refresher, log *zap.Logger) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *Manager) IsLoggedIn() bool {
	return m.store.AccessToken() != ""
}

func (m *Manager) AccessToken() string  { return m.store.AccessToken() }
func (m *Manager) RefreshToken() string { return m.store.RefreshToken() }

// Login atomically replaces both stored tokens.
func (m *Manager) Login(access, refresh string) {
	m.store.SetPair(access, refresh)
	m.log.Debug("session established", zap.String("sub", m.UserID()))
}

// Logout clears the session and releases anyone waiting on a refresh.
func (m *Manager) Logout() {
	m.store.Clear()
	m.finishRefresh()
}

// Refreshing reports whether a refresh call is currently outstanding.
func (m *Manager) Refreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// RefreshDone returns a channel closed when the in-flight refresh
// completes. When no refresh is in flight the channel is already closed.
func (m *Manager) RefreshDone() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshing {
		return m.done
	}
	return closedCh
}

func (m *Manager) beginRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing = true
	m.done = make(chan struct{})
}

func (m *Manager) finishRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshing {
		m.refreshing = false
		close(m.done)
		m.done = nil
	}
}

// Refresh exchanges the stored refresh token for a new pair. Concurrent
// callers collapse onto a single underlying call and share its result.
// Failure is terminal for the session.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	raw := m.store.RefreshToken()
	if raw == "" {
		m.log.Warn("refresh requested without refresh token")
		obs.TokenRefreshes.WithLabelValues("failure").Inc()
		m.Logout()
		return "", domain.ErrNoRefreshToken
	}

	m.beginRefresh()
	defer m.finishRefresh()

	pair, err := m.refresher.Refresh(ctx, raw)
	if err != nil {
		obs.TokenRefreshes.WithLabelValues("failure").Inc()
		obs.SessionExpirations.Inc()
		m.log.Warn("token refresh failed, closing session", zap.Error(err))
		m.Logout()
		return "", fmt.Errorf("refresh session: %w", err)
	}

	m.store.SetPair(pair.AccessToken, pair.RefreshToken)
	obs.TokenRefreshes.WithLabelValues("success").Inc()
	m.log.Debug("access token refreshed")
	return pair.AccessToken, nil
}

// Claim decodes one claim from the access token payload. The signature is
// not checked; the client never holds the signing secret. Any decode
// problem yields "".
func (m *Manager) Claim(name string) string {
	claims := m.claims()
	if claims == nil {
		return ""
	}
	switch v := claims[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (m *Manager) UserID() string { return m.Claim(domain.ClaimSubject) }
func (m *Manager) Role() string   { return m.Claim(domain.ClaimRole) }
func (m *Manager) Email() string  { return m.Claim(domain.ClaimEmail) }

// IsTokenExpired treats an absent or undecodable token as expired.
func (m *Manager) IsTokenExpired() bool {
	exp, ok := m.expiresAt()
	if !ok {
		return true
	}
	return !m.now().Before(exp)
}

// IsTokenExpiringSoon reports whether the token expires within threshold.
func (m *Manager) IsTokenExpiringSoon(threshold time.Duration) bool {
	exp, ok := m.expiresAt()
	if !ok {
		return true
	}
	return !m.now().Add(threshold).Before(exp)
}

func (m *Manager) claims() jwt.MapClaims {
	tok := m.store.AccessToken()
	if tok == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		m.log.Debug("undecodable access token", zap.Error(err))
		return nil
	}
	return claims
}

func (m *Manager) expiresAt() (time.Time, bool) {
	claims := m.claims()
	if claims == nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
