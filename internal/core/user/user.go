package user

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role is the authorization profile of a user. The server decides what each role may do.
type Role string

const (
	RoleTransportista Role = "TRANSPORTISTA"
	RoleAgente        Role = "AGENTE"
	RoleAdmin         Role = "ADMIN"
)

// Roles lists every role in display order.
var Roles = []Role{RoleTransportista, RoleAgente, RoleAdmin}

// ParseRole accepts any casing and surrounding spaces.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("rol desconocido %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of Roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ID identifies a user. The backend has sent both numeric and string ids.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("user id %s is not an integer", n)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so they round-trip unchanged.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// User is an account as listed by the administration endpoints. Passwords are never returned.
type User struct {
	ID     ID     `json:"id"`
	Nombre string `json:"nombre"`
	Correo string `json:"correo"`
	Rol    Role   `json:"rol"`
	Activo bool   `json:"activo"`
}

// NewUser is the creation payload.
type NewUser struct {
	Nombre   string `json:"nombre" validate:"required"`
	Correo   string `json:"correo" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Rol      Role   `json:"rol" validate:"required,oneof=TRANSPORTISTA AGENTE ADMIN"`
}

// Gateway is the remote side of user administration.
type Gateway interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, u NewUser) (User, error)
	SetUserActive(ctx context.Context, id ID, activo bool) (User, error)
}
