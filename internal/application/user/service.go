package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	coreuser "3tcapital/ducactl/internal/core/user"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
	"3tcapital/ducactl/internal/infrastructure/validation"
)

// Service orchestrates user administration.
type Service struct {
	gateway   coreuser.Gateway
	validator *validation.Validator
	log       *slog.Logger
}

// NewService creates a new user service.
func NewService(gateway coreuser.Gateway, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{gateway: gateway, validator: validation.New(), log: log}
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]coreuser.User, error) {
	return s.gateway.ListUsers(ctx)
}

// Create validates the new account and submits it.
func (s *Service) Create(ctx context.Context, u coreuser.NewUser) (coreuser.User, error) {
	u.Nombre = strings.TrimSpace(u.Nombre)
	u.Correo = strings.ToLower(strings.TrimSpace(u.Correo))
	u.Rol = coreuser.Role(strings.ToUpper(strings.TrimSpace(string(u.Rol))))

	if err := s.validator.Struct(u); err != nil {
		return coreuser.User{}, err
	}

	created, err := s.gateway.CreateUser(ctx, u)
	if err != nil {
		return coreuser.User{}, err
	}
	s.log.Info("User created", "id", created.ID, "rol", created.Rol)
	return created, nil
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, id coreuser.ID, activo bool) (coreuser.User, error) {
	id = coreuser.ID(strings.TrimSpace(string(id)))
	if err := s.validator.Var(string(id), "required", "id"); err != nil {
		return coreuser.User{}, err
	}

	updated, err := s.gateway.SetUserActive(ctx, id, activo)
	if err != nil {
		return coreuser.User{}, err
	}
	s.log.Info("User status changed", "id", id, "activo", activo)
	return updated, nil
}

// Toggle flips the active flag of the account with the given ID.
func (s *Service) Toggle(ctx context.Context, id coreuser.ID) (coreuser.User, error) {
	id = coreuser.ID(strings.TrimSpace(string(id)))
	if err := s.validator.Var(string(id), "required", "id"); err != nil {
		return coreuser.User{}, err
	}

	users, err := s.gateway.ListUsers(ctx)
	if err != nil {
		return coreuser.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return s.SetActive(ctx, id, !u.Activo)
		}
	}
	return coreuser.User{}, httpclient.NewValidationError(fmt.Sprintf("usuario %s no existe", id))
}
