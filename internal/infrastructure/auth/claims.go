package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of a login token that the client displays or falls back on.
type Claims struct {
	Role      string
	Email     string
	Subject   string
	ExpiresAt time.Time // zero when the token has no exp
}

// Expired reports whether exp has passed. Nothing is refused on this basis; the server decides.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// InspectClaims decodes a JWT without verifying its signature.
// Opaque (non-JWT) tokens return an error and should simply be ignored.
func InspectClaims(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("inspect token: %w", err)
	}

	out := Claims{
		Role:  stringClaim(claims, "role", "rol"),
		Email: stringClaim(claims, "email", "correo"),
	}
	out.Subject, _ = claims.GetSubject()
	if out.Email == "" && strings.Contains(out.Subject, "@") {
		out.Email = out.Subject
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	out.Role = strings.ToUpper(out.Role)
	return out, nil
}

func stringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
