// Package auth supplies the bearer token attached to every DUCA API call and
// inspects the tokens returned by login.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"3tcapital/ducactl/internal/core/session"
)

// TokenProvider reads the stored session on every request so a new login or a
// logout takes effect immediately. It never fails: a broken store means no token.
type TokenProvider struct {
	store session.Store
	log   *slog.Logger
	now   func() time.Time
}

// NewTokenProvider creates a provider over store. log may be nil.
func NewTokenProvider(store session.Store, log *slog.Logger) *TokenProvider {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &TokenProvider{store: store, log: log, now: time.Now}
}

// Token returns the stored bearer token, or "" when none is available.
func (p *TokenProvider) Token(ctx context.Context) (token string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Debug("Session store panicked, continuing without token", "panic", r)
			token = ""
		}
	}()

	if p.store == nil {
		return ""
	}

	sess, err := p.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			p.log.Debug("Session unavailable, continuing without token", "error", err)
		}
		return ""
	}
	return sess.Token
}

// AuthHeader returns {Authorization: Bearer <token>} or an empty header.
func (p *TokenProvider) AuthHeader(ctx context.Context) http.Header {
	h := http.Header{}
	if token := p.Token(ctx); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// SetSession stores the result of a successful login.
func (p *TokenProvider) SetSession(ctx context.Context, token, role, email string) error {
	return p.store.Save(ctx, session.Session{
		Token:     token,
		Role:      role,
		Email:     email,
		CreatedAt: p.now().UTC(),
	})
}

// ClearSession forgets the stored session. Requests already sent keep the token they carried.
func (p *TokenProvider) ClearSession(ctx context.Context) error {
	return p.store.Clear(ctx)
}

// Current returns the stored session, or session.ErrNoSession.
func (p *TokenProvider) Current(ctx context.Context) (session.Session, error) {
	return p.store.Load(ctx)
}
