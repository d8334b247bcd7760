// Package auth is the single source of the admin bearer token.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/callagent/internal/model"
	"github.com/dukerupert/callagent/internal/vault"
)

const (
	// SessionKey holds the canonical {token, user, timestamp} blob.
	SessionKey = "ai_agent_auth"
	// LegacyTokenKey holds a bare token written by older clients. It is
	// read as a fallback and removed on logout, never written.
	LegacyTokenKey = "auth_token"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the persisted login state.
type Session struct {
	Token     string          `json:"token"`
	User      model.AdminUser `json:"user"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// IssuedAt returns the login time.
func (s Session) IssuedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

type credentialStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// cacheClearer is the process-wide response cache, emptied on logout.
type cacheClearer interface {
	Clear()
}

type Provider struct {
	creds  credentialStore
	vault  *vault.Vault
	cache  cacheClearer
	logger *slog.Logger
	now    func() time.Time
}

// NewProvider builds a Provider. v and cache may be nil.
func NewProvider(creds credentialStore, v *vault.Vault, cache cacheClearer, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		creds:  creds,
		vault:  v,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Session returns the stored session. A bare legacy token is promoted to a
// super-admin Session with no username, since only the super-admin login
// endpoint issues tokens to this client.
func (p *Provider) Session(ctx context.Context) (Session, error) {
	raw, ok, err := p.creds.Get(ctx, SessionKey)
	if err != nil {
		return Session{}, err
	}
	if ok {
		plain, err := p.vault.OpenString(raw)
		if err != nil {
			return Session{}, fmt.Errorf("open session: %w", err)
		}
		var s Session
		if err := json.Unmarshal([]byte(plain), &s); err != nil {
			p.logger.Warn("discarding malformed session", "error", err)
		} else if s.Token != "" {
			return s, nil
		}
	}

	raw, ok, err = p.creds.Get(ctx, LegacyTokenKey)
	if err != nil {
		return Session{}, err
	}
	if !ok || raw == "" {
		return Session{}, ErrNotAuthenticated
	}
	token, err := p.vault.OpenString(raw)
	if err != nil {
		return Session{}, fmt.Errorf("open legacy token: %w", err)
	}
	return Session{Token: token, User: model.AdminUser{Role: RoleSuperAdmin}}, nil
}

// Token returns the bearer token or ErrNotAuthenticated.
func (p *Provider) Token(ctx context.Context) (string, error) {
	s, err := p.Session(ctx)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// Save persists a login result in the canonical shape.
func (p *Provider) Save(ctx context.Context, resp model.TokenResponse) (Session, error) {
	if resp.AccessToken == "" {
		return Session{}, fmt.Errorf("login response has no access token")
	}
	s := Session{
		Token:     resp.AccessToken,
		User:      resp.User,
		Timestamp: p.now().UnixMilli(),
	}
	data, err := json.Marshal(s)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session: %w", err)
	}
	value, err := p.vault.SealString(string(data))
	if err != nil {
		return Session{}, fmt.Errorf("seal session: %w", err)
	}
	if err := p.creds.Set(ctx, SessionKey, value); err != nil {
		return Session{}, err
	}
	p.logger.Info("session saved", "user", s.User.Username)
	return s, nil
}

// Logout removes both credential shapes and empties the response cache.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.creds.Delete(ctx, SessionKey, LegacyTokenKey); err != nil {
		return err
	}
	if p.cache != nil {
		p.cache.Clear()
	}
	p.logger.Info("logged out")
	return nil
}

// BearerHeader returns the Authorization header value. Without a token it
// returns "Bearer null" and leaves rejection to the backend.
func BearerHeader(ctx context.Context, tokens interface {
	Token(context.Context) (string, error)
}) string {
	if tokens == nil {
		return "Bearer null"
	}
	token, err := tokens.Token(ctx)
	if err != nil || token == "" {
		return "Bearer null"
	}
	return "Bearer " + token
}
