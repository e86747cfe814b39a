package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"3tcapital/ducactl/internal/infrastructure/metrics"
)

// Metrics counts served requests by chi route pattern, so /duca/DUCA-0001 and /duca/DUCA-0002
// share the "/duca/{numero}" series.
func Metrics(collectors *metrics.Collectors) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			collectors.ServedRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		})
	}
}
