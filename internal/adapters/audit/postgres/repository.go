package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"3tcapital/ducactl/internal/core/audit"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertRecordSQL = `
	INSERT INTO api_audit_log (
		correlation_id, operation, request_method, request_url,
		request_headers, request_body, response_status, response_headers,
		response_body, duration_ms, error_message
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const selectByCorrelationSQL = `
	SELECT id, correlation_id, operation, request_method, request_url,
	       request_headers, request_body, response_status, response_headers,
	       response_body, duration_ms, error_message, created_at
	FROM api_audit_log
	WHERE correlation_id = $1
	ORDER BY created_at DESC, id DESC
`

// Repository implements audit.Repository on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a PostgreSQL audit repository. log may be nil.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

var _ audit.Repository = (*Repository)(nil)

// Save persists an audit record.
func (r *Repository) Save(ctx context.Context, rec audit.Record) error {
	requestHeaders, err := marshalHeaders(rec.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := marshalHeaders(rec.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertRecordSQL,
		rec.CorrelationID,
		rec.Operation,
		rec.RequestMethod,
		rec.RequestURL,
		requestHeaders,
		nullableJSON(rec.RequestBody),
		rec.ResponseStatus,
		responseHeaders,
		nullableJSON(rec.ResponseBody),
		rec.DurationMs,
		rec.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("Failed to insert audit record",
				"correlation_id", rec.CorrelationID,
				"operation", rec.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert audit record: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Audit record saved",
			"correlation_id", rec.CorrelationID,
			"operation", rec.Operation,
			"response_status", rec.ResponseStatus,
			"duration_ms", rec.DurationMs,
		)
	}
	return nil
}

// FindByCorrelationID retrieves all records with the given correlation ID.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.Record, error) {
	rows, err := r.pool.Query(ctx, selectByCorrelationSQL, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("collect audit records: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.CollectableRow) (audit.Record, error) {
	var rec audit.Record
	var requestHeaders, responseHeaders []byte
	var requestBody, responseBody []byte

	if err := row.Scan(
		&rec.ID,
		&rec.CorrelationID,
		&rec.Operation,
		&rec.RequestMethod,
		&rec.RequestURL,
		&requestHeaders,
		&requestBody,
		&rec.ResponseStatus,
		&responseHeaders,
		&responseBody,
		&rec.DurationMs,
		&rec.ErrorMessage,
		&rec.CreatedAt,
	); err != nil {
		return rec, fmt.Errorf("scan audit record: %w", err)
	}

	if err := unmarshalHeaders(requestHeaders, &rec.RequestHeaders); err != nil {
		return rec, fmt.Errorf("unmarshal request headers: %w", err)
	}
	if err := unmarshalHeaders(responseHeaders, &rec.ResponseHeaders); err != nil {
		return rec, fmt.Errorf("unmarshal response headers: %w", err)
	}
	rec.RequestBody = requestBody
	rec.ResponseBody = responseBody
	return rec, nil
}

func marshalHeaders(h map[string]string) ([]byte, error) {
	if h == nil {
		h = map[string]string{}
	}
	return json.Marshal(h)
}

func unmarshalHeaders(raw []byte, dst *map[string]string) error {
	if len(raw) == 0 {
		*dst = map[string]string{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// nullableJSON maps an empty body to SQL NULL.
func nullableJSON(body json.RawMessage) any {
	if len(body) == 0 {
		return nil
	}
	return []byte(body)
}
