package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"3tcapital/ducactl/internal/core/declaration"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
	"3tcapital/ducactl/internal/infrastructure/validation"
)

// MinCommentLength is the shortest comment accepted, counted in characters after trimming.
const MinCommentLength = 5

// ErrCommentTooShort is wrapped by the validation error a decision with a short comment returns.
var ErrCommentTooShort = errors.New("comment too short")

// Service orchestrates the review of pending declarations.
type Service struct {
	gateway   declaration.Gateway
	validator *validation.Validator
	log       *slog.Logger
}

// NewService creates a new review service.
func NewService(gateway declaration.Gateway, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		gateway:   gateway,
		validator: validation.New(),
		log:       log,
	}
}

// Pending lists the declarations awaiting review.
func (s *Service) Pending(ctx context.Context) ([]declaration.Summary, error) {
	return s.gateway.ListPending(ctx)
}

// Approve validates a declaration. The comment is optional, but when given it must be
// at least MinCommentLength characters long.
func (s *Service) Approve(ctx context.Context, numero, comentario string) error {
	numero, comentario, err := s.guard(numero, comentario, false)
	if err != nil {
		return err
	}

	if err := s.gateway.Approve(ctx, numero, comentario); err != nil {
		return err
	}
	s.log.Info("Declaration approved", "numero", numero)
	return nil
}

// Reject rejects a declaration. A comment of at least MinCommentLength characters is required.
func (s *Service) Reject(ctx context.Context, numero, comentario string) error {
	numero, comentario, err := s.guard(numero, comentario, true)
	if err != nil {
		return err
	}

	if err := s.gateway.Reject(ctx, numero, comentario); err != nil {
		return err
	}
	s.log.Info("Declaration rejected", "numero", numero)
	return nil
}

func (s *Service) guard(numero, comentario string, commentRequired bool) (string, string, error) {
	numero = strings.TrimSpace(numero)
	if err := s.validator.Var(numero, "required", "numero"); err != nil {
		return "", "", err
	}
	comentario, err := s.comment(comentario, commentRequired)
	if err != nil {
		return "", "", err
	}
	return numero, comentario, nil
}

func (s *Service) comment(comentario string, required bool) (string, error) {
	comentario = strings.TrimSpace(comentario)
	if comentario == "" && !required {
		return "", nil
	}

	if err := s.validator.Var(comentario, fmt.Sprintf("mintrim=%d", MinCommentLength), "comentario"); err != nil {
		return "", &httpclient.APIError{
			Kind:    httpclient.KindValidation,
			Message: err.Error(),
			Err:     ErrCommentTooShort,
		}
	}
	return comentario, nil
}
