package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	apphealth "3tcapital/ducactl/internal/application/health"
	httpclient "3tcapital/ducactl/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// probeTimeout bounds all probes of one request together.
const probeTimeout = 3 * time.Second

// Status answers 200 when healthy and 503 when any check failed.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	status := h.service.Status(ctx)

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	httpclient.WriteJSON(w, code, status, h.log)
}
