package mockapi

import (
	"context"
	"fmt"

	apphealth "3tcapital/ducactl/internal/application/health"
)

// StoreProbe reports how many declarations and accounts the backend holds.
func (a *API) StoreProbe() apphealth.Probe {
	return apphealth.Probe{
		Name: "store",
		Check: func(ctx context.Context) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			declarations, accounts := a.store.counts()
			return fmt.Sprintf("%d declaraciones, %d usuarios", declarations, accounts), nil
		},
	}
}

func (s *store) counts() (declarations, accounts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), len(s.accounts)
}
