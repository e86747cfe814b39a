package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"3tcapital/ducactl/internal/core/session"
	infraauth "3tcapital/ducactl/internal/infrastructure/auth"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
	"3tcapital/ducactl/internal/infrastructure/validation"
)

// ErrTokenRejected is wrapped when a login token fails signature verification.
var ErrTokenRejected = errors.New("login token rejected")

// Sessions stores the outcome of a login. *auth.TokenProvider satisfies it.
type Sessions interface {
	SetSession(ctx context.Context, token, role, email string) error
	ClearSession(ctx context.Context) error
	Current(ctx context.Context) (session.Session, error)
}

// Verifier checks a token signature.
type Verifier interface {
	Verify(token string) error
}

// Identity is the current session plus what its token says about itself.
type Identity struct {
	session.Session
	ExpiresAt time.Time // zero when unknown
	Expired   bool
}

// Service orchestrates login and logout.
type Service struct {
	authenticator session.Authenticator
	sessions      Sessions
	verifier      Verifier
	validator     *validation.Validator
	log           *slog.Logger
	now           func() time.Time
}

// NewService creates a new auth service. verifier may be nil.
func NewService(authenticator session.Authenticator, sessions Sessions, verifier Verifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		authenticator: authenticator,
		sessions:      sessions,
		verifier:      verifier,
		validator:     validation.New(),
		log:           log,
		now:           time.Now,
	}
}

// Login exchanges the credentials for a token and stores the resulting session.
// Role and email missing from the response are taken from the token claims, and the
// email finally falls back to the submitted one.
func (s *Service) Login(ctx context.Context, creds session.Credentials) (session.Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := s.validator.Struct(creds); err != nil {
		return session.Session{}, err
	}

	result, err := s.authenticator.Login(ctx, creds)
	if err != nil {
		return session.Session{}, err
	}

	if s.verifier != nil {
		if err := s.verifier.Verify(result.Token); err != nil {
			s.log.Warn("Login token failed verification", "email", creds.Email, "error", err)
			return session.Session{}, &httpclient.APIError{
				Kind:    httpclient.KindMalformed,
				Message: "el token recibido no es válido",
				Err:     errors.Join(ErrTokenRejected, err),
			}
		}
	}

	role, email := result.Role, result.Email
	if claims, err := infraauth.InspectClaims(result.Token); err == nil {
		role = firstNonEmpty(role, claims.Role)
		email = firstNonEmpty(email, claims.Email)
	} else {
		s.log.Debug("Login token is not a JWT", "error", err)
	}
	role = strings.ToUpper(role)
	email = firstNonEmpty(email, creds.Email)

	if err := s.sessions.SetSession(ctx, result.Token, role, email); err != nil {
		return session.Session{}, err
	}

	s.log.Info("Logged in", "email", email, "role", role)
	return s.sessions.Current(ctx)
}

// Logout forgets the stored session.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.ClearSession(ctx); err != nil {
		return err
	}
	s.log.Info("Logged out")
	return nil
}

// Current returns the stored session, or session.ErrNoSession.
func (s *Service) Current(ctx context.Context) (Identity, error) {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{Session: sess}
	if claims, err := infraauth.InspectClaims(sess.Token); err == nil {
		id.ExpiresAt = claims.ExpiresAt
		id.Expired = claims.Expired(s.now())
	}
	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
