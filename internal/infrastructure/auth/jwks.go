package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSVerifier checks login tokens against the backend's published key set.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	cancel context.CancelFunc
}

// NewJWKSVerifier loads the key set at url and keeps it refreshed until Close.
func NewJWKSVerifier(ctx context.Context, url string, log *slog.Logger) (*JWKSVerifier, error) {
	ctx, cancel := context.WithCancel(ctx)
	override := keyfunc.Override{
		RefreshInterval: 6 * time.Hour,
		RefreshErrorHandlerFunc: func(url string) func(context.Context, error) {
			return func(c context.Context, err error) {
				log.Error("failed to refresh JWKS", "url", url, "error", err)
			}
		},
		HTTPTimeout: 10 * time.Second,
	}

	jwks, err := keyfunc.NewDefaultOverrideCtx(ctx, []string{url}, override)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("unable to load JWKS: %w", err)
	}

	return &JWKSVerifier{jwks: jwks, cancel: cancel}, nil
}

// Verify returns an error unless token is signed by a key in the set and not expired.
func (v *JWKSVerifier) Verify(token string) error {
	parsed, err := jwt.Parse(token, v.jwks.Keyfunc,
		jwt.WithLeeway(30*time.Second),
		jwt.WithValidMethods([]string{
			jwt.SigningMethodRS256.Alg(),
			jwt.SigningMethodRS384.Alg(),
			jwt.SigningMethodRS512.Alg(),
			jwt.SigningMethodPS256.Alg(),
			jwt.SigningMethodES256.Alg(),
		}),
	)
	if err != nil {
		return fmt.Errorf("token signature rejected: %w", err)
	}
	if !parsed.Valid {
		return fmt.Errorf("token signature rejected")
	}
	return nil
}

// Close stops the background refresh.
func (v *JWKSVerifier) Close() {
	if v.cancel != nil {
		v.cancel()
	}
}
