package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	client_config "github.com/stayloop/stayloop-go/internal/config/client"
	domain "github.com/stayloop/stayloop-go/internal/domain/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest creates a new guest account. Registration is confirmed
// out of band; login happens after confirmation.
type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birthDate"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
	NewPassword      string `json:"newPassword"`
}

// Login authenticates and installs the returned pair into the session.
func (c *Client) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	var pair domain.TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &pair)
	if err != nil {
		return domain.TokenPair{}, err
	}
	c.sess.Login(pair.AccessToken, pair.RefreshToken)
	return pair, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var msg string
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &msg); err != nil {
		return "", err
	}
	return msg, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", nil, ForgotPasswordRequest{Email: email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.do(ctx, http.MethodPatch, "/auth/reset-password", nil, req, nil)
}

// RefreshCaller implements the session Refresher port over a bare HTTP
// client. It deliberately bypasses AuthTransport: the refresh call must
// never recurse into the refresh protocol.
type RefreshCaller struct {
	base  string
	httpc *http.Client
	log   *zap.Logger
}

func NewRefreshCaller(cfg client_config.API, log *zap.Logger) *RefreshCaller {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RefreshCaller{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		httpc: &http.Client{Timeout: timeout, Transport: newBaseTransport()},
		log:   log,
	}
}

func (r *RefreshCaller) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	bare := &Client{base: r.base, httpc: r.httpc, log: r.log}
	var pair domain.TokenPair
	err := bare.do(ctx, http.MethodPost, refreshPath, nil, refreshRequest{RefreshToken: refreshToken}, &pair)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh call: %w", err)
	}
	return pair, nil
}
