package declaration

import (
	"context"
	"log/slog"
	"reflect"
	"strings"

	"golang.org/x/sync/errgroup"

	coredeclaration "3tcapital/ducactl/internal/core/declaration"
	"3tcapital/ducactl/internal/infrastructure/validation"
)

// Dossier is a declaration together with its status timeline.
type Dossier struct {
	Detail  coredeclaration.Detail
	History coredeclaration.History
	// HistoryErr is set when the timeline could not be fetched; History then falls back
	// to the entries embedded in the detail.
	HistoryErr error
}

// Service orchestrates declaration registration and lookup.
type Service struct {
	gateway   coredeclaration.Gateway
	validator *validation.Validator
	log       *slog.Logger
}

// NewService creates a new declaration service.
func NewService(gateway coredeclaration.Gateway, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	v := validation.New()
	v.RegisterCustomType(func(field reflect.Value) any {
		if a, ok := field.Interface().(coredeclaration.Amount); ok {
			return a.Float64()
		}
		return nil
	}, coredeclaration.Amount{})

	return &Service{gateway: gateway, validator: v, log: log}
}

// Register checks the payload and submits it. Nothing is sent when validation fails.
func (s *Service) Register(ctx context.Context, d coredeclaration.Declaration) (coredeclaration.RegisterResult, error) {
	d = normalize(d)
	if err := s.validator.Struct(d); err != nil {
		return coredeclaration.RegisterResult{}, err
	}

	result, err := s.gateway.RegisterDeclaration(ctx, d)
	if err != nil {
		return coredeclaration.RegisterResult{}, err
	}

	s.log.Info("Declaration registered",
		"numero", result.Numero,
		"items", len(d.Mercancias),
	)
	return result, nil
}

// Detail returns the full record of one declaration.
func (s *Service) Detail(ctx context.Context, numero string) (coredeclaration.Detail, error) {
	numero, err := s.numero(numero)
	if err != nil {
		return coredeclaration.Detail{}, err
	}
	return s.gateway.GetDeclaration(ctx, numero)
}

// Statuses lists every declaration with its current status.
func (s *Service) Statuses(ctx context.Context) ([]coredeclaration.Summary, error) {
	return s.gateway.ListStatuses(ctx)
}

// History returns the status timeline of one declaration.
func (s *Service) History(ctx context.Context, numero string) (coredeclaration.History, error) {
	numero, err := s.numero(numero)
	if err != nil {
		return coredeclaration.History{}, err
	}
	return s.gateway.GetStatusHistory(ctx, numero)
}

// Dossier fetches the detail and the timeline concurrently. Only a detail failure is fatal.
func (s *Service) Dossier(ctx context.Context, numero string) (Dossier, error) {
	numero, err := s.numero(numero)
	if err != nil {
		return Dossier{}, err
	}

	var out Dossier
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		detail, err := s.gateway.GetDeclaration(gctx, numero)
		if err != nil {
			return err
		}
		out.Detail = detail
		return nil
	})

	g.Go(func() error {
		history, err := s.gateway.GetStatusHistory(gctx, numero)
		if err != nil {
			out.HistoryErr = err
			return nil
		}
		out.History = history
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dossier{}, err
	}

	if out.HistoryErr != nil {
		s.log.Warn("Status history unavailable, using detail entries",
			"numero", numero,
			"error", out.HistoryErr,
		)
		out.History = coredeclaration.History{
			Numero:    out.Detail.Numero,
			Estado:    out.Detail.Estado,
			Historial: out.Detail.Historial,
		}
	}
	return out, nil
}

func (s *Service) numero(numero string) (string, error) {
	numero = strings.TrimSpace(numero)
	if err := s.validator.Var(numero, "required", "numero"); err != nil {
		return "", err
	}
	return numero, nil
}

// normalize trims text fields, upper-cases the currency and numbers unnumbered goods lines.
func normalize(d coredeclaration.Declaration) coredeclaration.Declaration {
	d.NumeroDocumento = strings.TrimSpace(d.NumeroDocumento)
	d.FechaEmision = strings.TrimSpace(d.FechaEmision)
	d.PaisEmisor = strings.TrimSpace(d.PaisEmisor)
	d.Moneda = strings.ToUpper(strings.TrimSpace(d.Moneda))
	d.Importador.Nombre = strings.TrimSpace(d.Importador.Nombre)
	d.Exportador.Nombre = strings.TrimSpace(d.Exportador.Nombre)

	if len(d.Mercancias) > 0 {
		items := make([]coredeclaration.GoodsItem, len(d.Mercancias))
		copy(items, d.Mercancias)
		for i := range items {
			items[i].Descripcion = strings.TrimSpace(items[i].Descripcion)
			if items[i].ItemNo == 0 {
				items[i].ItemNo = i + 1
			}
		}
		d.Mercancias = items
	}
	return d
}
