package review

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchWorkers bounds the decisions sent concurrently when the caller does not.
const DefaultBatchWorkers = 4

// Outcome is the result of one decision in a batch.
type Outcome struct {
	Numero string `json:"numero"`
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
}

// BatchResult holds one Outcome per distinct numero, in input order.
type BatchResult struct {
	Outcomes  []Outcome     `json:"outcomes"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// FirstError returns the error of the first failed outcome, or nil.
func (r BatchResult) FirstError() error {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return o.Err
		}
	}
	return nil
}

// ApproveAll approves every numero with the same comment, at most workers at a time.
// An invalid comment fails the whole batch before anything is sent.
func (s *Service) ApproveAll(ctx context.Context, numeros []string, comentario string, workers int) (BatchResult, error) {
	return s.decideAll(ctx, numeros, comentario, false, workers, s.gateway.Approve)
}

// RejectAll rejects every numero with the same reason, at most workers at a time.
func (s *Service) RejectAll(ctx context.Context, numeros []string, comentario string, workers int) (BatchResult, error) {
	return s.decideAll(ctx, numeros, comentario, true, workers, s.gateway.Reject)
}

func (s *Service) decideAll(
	ctx context.Context,
	numeros []string,
	comentario string,
	commentRequired bool,
	workers int,
	decide func(ctx context.Context, numero, comentario string) error,
) (BatchResult, error) {
	start := time.Now()

	comentario, err := s.comment(comentario, commentRequired)
	if err != nil {
		return BatchResult{}, err
	}
	numeros = distinct(numeros)
	if len(numeros) == 0 {
		return BatchResult{}, s.validator.Var("", "required", "numero")
	}
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	outcomes := make([]Outcome, len(numeros))
	var mu sync.Mutex
	succeeded := 0

	// Workers never return an error, so one failure does not cancel the rest.
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, numero := range numeros {
		g.Go(func() error {
			outcomes[i] = Outcome{Numero: numero}
			if err := decide(ctx, numero, comentario); err != nil {
				outcomes[i].Err = err
				outcomes[i].Error = err.Error()
				s.log.Warn("Decision failed", "numero", numero, "error", err)
				return nil
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{
		Outcomes:  outcomes,
		Succeeded: succeeded,
		Failed:    len(numeros) - succeeded,
		Duration:  time.Since(start),
	}
	s.log.Info("Batch decision finished",
		"reject", commentRequired,
		"total", len(numeros),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// distinct trims numeros and drops blanks and repeats, keeping the first occurrence.
func distinct(numeros []string) []string {
	seen := make(map[string]struct{}, len(numeros))
	out := make([]string, 0, len(numeros))
	for _, n := range numeros {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
