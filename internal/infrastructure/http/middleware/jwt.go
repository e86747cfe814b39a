package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	httpclient "3tcapital/ducactl/internal/infrastructure/http"
)

// ContextKeyClaims exposes the verified token claims via request context.
type ContextKeyClaims struct{}

// BearerAuthenticator validates HS256 bearer tokens issued by the mock backend.
type BearerAuthenticator struct {
	secret     []byte
	log        *slog.Logger
	clockSkew  time.Duration
	bypassPath map[string]struct{}
}

// NewBearerAuthenticator creates an authenticator. Requests to bypassPaths are let through untouched.
func NewBearerAuthenticator(secret string, bypassPaths []string, log *slog.Logger) (*BearerAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	auth := &BearerAuthenticator{
		secret:     []byte(secret),
		log:        log,
		clockSkew:  30 * time.Second,
		bypassPath: make(map[string]struct{}),
	}
	for _, path := range bypassPaths {
		if path != "" {
			auth.bypassPath[path] = struct{}{}
		}
	}
	return auth, nil
}

// Issue signs a token for email with the given role.
func (a *BearerAuthenticator) Issue(email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware enforces token validation on inbound requests.
func (a *BearerAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.shouldBypass(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			httpclient.WriteError(w, http.StatusUnauthorized, "No autorizado", []string{"Credenciales de acceso no válidas"}, a.log)
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return a.secret, nil
		},
			jwt.WithLeeway(a.clockSkew),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil || !token.Valid {
			a.log.Warn("token validation failed", "error", err)
			httpclient.WriteError(w, http.StatusUnauthorized, "Token inválido o expirado", nil, a.log)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClaims{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated requests whose role is not one of roles.
func RequireRole(log *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			role, _ := claims["role"].(string)
			if !ok || !slices.Contains(roles, role) {
				httpclient.WriteError(w, http.StatusForbidden, "Acceso denegado para el rol "+role, nil, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the claims the authenticator stored in ctx.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims{}).(jwt.MapClaims)
	return claims, ok
}

func (a *BearerAuthenticator) shouldBypass(path string) bool {
	_, ok := a.bypassPath[path]
	return ok
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid Authorization header format")
	}
	return parts[1], nil
}
