package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON error body served by the DUCA backend.
// Clients read Message first, so it must stay a human-readable sentence.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		// Status is already written, nothing else to send.
		log.Error("failed to encode response", "error", err, "status", statusCode)
	}
}

// WriteError writes a {"message": ..., "errors": [...]} response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	WriteJSON(w, statusCode, ErrorResponse{Message: message, Errors: errors}, log)
}
