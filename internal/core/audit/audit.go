package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Record is the audit trail entry of one call made to the DUCA API.
// Headers and bodies are stored already redacted.
type Record struct {
	ID              int64
	CorrelationID   string
	Operation       string
	RequestMethod   string
	RequestURL      string
	RequestHeaders  map[string]string
	RequestBody     json.RawMessage
	ResponseStatus  *int
	ResponseHeaders map[string]string
	ResponseBody    json.RawMessage
	DurationMs      int64
	ErrorMessage    string
	CreatedAt       time.Time
}

// Repository defines the contract for persisting and retrieving audit records.
type Repository interface {
	Save(ctx context.Context, rec Record) error

	// FindByCorrelationID returns every call made while serving one CLI command, newest first.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]Record, error)
}
