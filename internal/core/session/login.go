package session

import (
	"context"
	"encoding/json"
)

// Credentials is what the login form submits.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the backend's answer to a successful login. Role and Email may be empty
// when the backend only returns the token.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
}

// UnmarshalJSON accepts role and email at the top level or inside a user/usuario object,
// in either English or Spanish spelling.
func (r *LoginResult) UnmarshalJSON(data []byte) error {
	type account struct {
		Role   string `json:"role"`
		Rol    string `json:"rol"`
		Email  string `json:"email"`
		Correo string `json:"correo"`
	}
	var raw struct {
		Token   string   `json:"token"`
		User    *account `json:"user"`
		Usuario *account `json:"usuario"`
		account
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := LoginResult{
		Token: raw.Token,
		Role:  first(raw.Role, raw.Rol),
		Email: first(raw.Email, raw.Correo),
	}
	for _, nested := range []*account{raw.User, raw.Usuario} {
		if nested == nil {
			continue
		}
		out.Role = first(out.Role, nested.Role, nested.Rol)
		out.Email = first(out.Email, nested.Email, nested.Correo)
	}

	*r = out
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
