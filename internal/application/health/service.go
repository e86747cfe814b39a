package health

import (
	"context"
	"time"

	corehealth "3tcapital/ducactl/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Probe checks one dependency. It returns a short detail on success.
type Probe struct {
	Name  string
	Check func(ctx context.Context) (detail string, err error)
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	probes    []Probe
	startedAt time.Time
	now       func() time.Time
}

func NewService(meta Metadata, probes ...Probe) *Service {
	return &Service{
		meta:      meta,
		probes:    probes,
		startedAt: time.Now().UTC(),
		now:       time.Now,
	}
}

// Status runs every probe and returns the availability snapshot.
// A single failing probe marks the service as degraded.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := s.now().Sub(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.Round(time.Second).String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, p := range s.probes {
		check := corehealth.Check{Name: p.Name, Status: corehealth.StatusUp}
		detail, err := p.Check(ctx)
		if err != nil {
			check.Status = corehealth.StatusDegraded
			detail = err.Error()
			status.Status = corehealth.StatusDegraded
		}
		check.Detail = detail
		status.Checks = append(status.Checks, check)
	}
	return status
}
