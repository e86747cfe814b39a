package testutil

import (
	"context"

	"3tcapital/ducactl/internal/core/session"
	"3tcapital/ducactl/internal/core/user"
)

// MockUserGateway is a mock implementation of user.Gateway for testing.
type MockUserGateway struct {
	ListUsersFunc     func(ctx context.Context) ([]user.User, error)
	CreateUserFunc    func(ctx context.Context, u user.NewUser) (user.User, error)
	SetUserActiveFunc func(ctx context.Context, id user.ID, activo bool) (user.User, error)
}

// ListUsers calls the mock function if set, otherwise returns empty slice.
func (m *MockUserGateway) ListUsers(ctx context.Context) ([]user.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return []user.User{}, nil
}

// CreateUser calls the mock function if set, otherwise echoes the payload.
func (m *MockUserGateway) CreateUser(ctx context.Context, u user.NewUser) (user.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, u)
	}
	return user.User{Nombre: u.Nombre, Correo: u.Correo, Rol: u.Rol, Activo: true}, nil
}

// SetUserActive calls the mock function if set.
func (m *MockUserGateway) SetUserActive(ctx context.Context, id user.ID, activo bool) (user.User, error) {
	if m.SetUserActiveFunc != nil {
		return m.SetUserActiveFunc(ctx, id, activo)
	}
	return user.User{ID: id, Activo: activo}, nil
}

// MockAuthenticator is a mock implementation of session.Authenticator for testing.
type MockAuthenticator struct {
	LoginFunc func(ctx context.Context, creds session.Credentials) (session.LoginResult, error)
}

// Login calls the mock function if set, otherwise returns a fixed token.
func (m *MockAuthenticator) Login(ctx context.Context, creds session.Credentials) (session.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return session.LoginResult{Token: "test-token"}, nil
}

var (
	_ user.Gateway          = (*MockUserGateway)(nil)
	_ session.Authenticator = (*MockAuthenticator)(nil)
)
