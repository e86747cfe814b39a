package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"3tcapital/ducactl/internal/adapters/session/memory"
	"3tcapital/ducactl/internal/core/session"
	infraauth "3tcapital/ducactl/internal/infrastructure/auth"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
	"3tcapital/ducactl/internal/testutil"
)

type verifierFunc func(token string) error

func (f verifierFunc) Verify(token string) error { return f(token) }

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newTestService(authn session.Authenticator, verifier Verifier) (*Service, *infraauth.TokenProvider) {
	tokens := infraauth.NewTokenProvider(memory.NewStore(0), testutil.NewNullLogger())
	return NewService(authn, tokens, verifier, testutil.NewNullLogger()), tokens
}

func TestService_Login(t *testing.T) {
	tests := []struct {
		name          string
		creds         session.Credentials
		result        func(t *testing.T) session.LoginResult
		expectedRole  string
		expectedEmail string
		expectedErr   bool
	}{
		{
			name:  "role from response, email from form",
			creds: session.Credentials{Email: "agente@demo.com", Password: "demo123"},
			result: func(t *testing.T) session.LoginResult {
				return session.LoginResult{Token: "abc", Role: "AGENTE"}
			},
			expectedRole:  "AGENTE",
			expectedEmail: "agente@demo.com",
		},
		{
			name:  "role and email from token claims",
			creds: session.Credentials{Email: "otro@demo.com", Password: "demo123"},
			result: func(t *testing.T) session.LoginResult {
				return session.LoginResult{Token: signedToken(t, jwt.MapClaims{"rol": "admin", "email": "admin@demo.com"})}
			},
			expectedRole:  "ADMIN",
			expectedEmail: "admin@demo.com",
		},
		{
			name:        "missing password",
			creds:       session.Credentials{Email: "agente@demo.com"},
			expectedErr: true,
		},
		{
			name:        "invalid email",
			creds:       session.Credentials{Email: "agente", Password: "x"},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			service, tokens := newTestService(&testutil.MockAuthenticator{
				LoginFunc: func(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
					calls++
					return tt.result(t), nil
				},
			}, nil)

			sess, err := service.Login(context.Background(), tt.creds)
			if tt.expectedErr {
				if !httpclient.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if calls != 0 {
					t.Error("expected no request on validation failure")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sess.Role != tt.expectedRole || sess.Email != tt.expectedEmail {
				t.Errorf("expected %s/%s, got %s/%s", tt.expectedRole, tt.expectedEmail, sess.Role, sess.Email)
			}
			if got := tokens.Token(context.Background()); got == "" {
				t.Error("expected token to be stored")
			}
		})
	}
}

func TestService_LoginFailureKeepsNoSession(t *testing.T) {
	serverErr := &httpclient.APIError{Kind: httpclient.KindHTTP, Status: 401, Message: "Credenciales inválidas"}
	service, tokens := newTestService(&testutil.MockAuthenticator{
		LoginFunc: func(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
			return session.LoginResult{}, serverErr
		},
	}, nil)

	_, err := service.Login(context.Background(), session.Credentials{Email: "a@demo.com", Password: "x"})
	if err == nil || err.Error() != "Credenciales inválidas" {
		t.Fatalf("expected server message, got %v", err)
	}
	if tokens.Token(context.Background()) != "" {
		t.Error("expected no session after failed login")
	}
}

func TestService_LoginVerifiesSignature(t *testing.T) {
	service, tokens := newTestService(&testutil.MockAuthenticator{}, verifierFunc(func(token string) error {
		return errors.New("unknown kid")
	}))

	_, err := service.Login(context.Background(), session.Credentials{Email: "a@demo.com", Password: "x"})
	if !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
	if !httpclient.IsMalformed(err) {
		t.Errorf("expected malformed kind, got %v", httpclient.KindOf(err))
	}
	if tokens.Token(context.Background()) != "" {
		t.Error("expected rejected token not to be stored")
	}
}

func TestService_LogoutAndCurrent(t *testing.T) {
	exp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{"role": "TRANSPORTISTA", "exp": exp.Unix()})

	service, _ := newTestService(&testutil.MockAuthenticator{
		LoginFunc: func(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
			return session.LoginResult{Token: token}, nil
		},
	}, nil)
	service.now = func() time.Time { return exp.Add(time.Minute) }
	ctx := context.Background()

	if _, err := service.Login(ctx, session.Credentials{Email: "t@demo.com", Password: "x"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	id, err := service.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if id.Role != "TRANSPORTISTA" || id.Email != "t@demo.com" {
		t.Errorf("unexpected identity: %+v", id)
	}
	if !id.ExpiresAt.Equal(exp) || !id.Expired {
		t.Errorf("expected expired at %v, got %v (expired=%v)", exp, id.ExpiresAt, id.Expired)
	}

	if err := service.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := service.Current(ctx); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession after logout, got %v", err)
	}
}
