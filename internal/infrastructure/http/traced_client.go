package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"3tcapital/ducactl/internal/core/audit"
	ctxutil "3tcapital/ducactl/internal/infrastructure/context"
	"3tcapital/ducactl/internal/infrastructure/security"
)

// CorrelationHeader carries the correlation ID to the DUCA backend.
const CorrelationHeader = "X-Correlation-ID"

// TracedClient wraps an HTTP client to log every call to the DUCA API with redacted
// headers and bodies, and to persist an audit trail when a repository is configured.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int

	pending sync.WaitGroup
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
	// Transport overrides the pooled default, mainly for tests.
	Transport http.RoundTripper
}

// NewTracedClient creates a traced client. auditRepo may be nil.
func NewTracedClient(cfg TracedClientConfig, log *slog.Logger, auditRepo audit.Repository) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 65536
	}

	return &TracedClient{
		client: NewClient(&ClientConfig{
			MaxConnsPerHost: cfg.MaxConnsPerHost,
			Transport:       cfg.Transport,
		}),
		log:          log,
		auditRepo:    auditRepo,
		auditEnabled: cfg.AuditEnabled,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  cfg.MaxBodySize,
	}
}

// Do executes an HTTP request with logging and audit.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	operation := c.operation(req)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set(CorrelationHeader, correlationID)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		if err != nil {
			c.log.Error("Failed to read request body for tracing",
				"error", err,
				"correlation_id", correlationID,
			)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	c.logRequest(correlationID, operation, req, requestBody)

	resp, err := c.client.Do(req)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		var readErr error
		responseBody, readErr = io.ReadAll(io.LimitReader(resp.Body, int64(c.maxBodySize)+1))
		if readErr != nil && err == nil {
			// A deadline that fires mid-body surfaces here; hand it back as the call's error.
			resp.Body.Close()
			err = readErr
			resp = nil
		} else {
			resp.Body = &replayBody{
				Reader: io.MultiReader(bytes.NewReader(responseBody), resp.Body),
				Closer: resp.Body,
			}
		}
	}
	duration := time.Since(start)

	c.logResponse(correlationID, operation, req, resp, err, duration, responseBody)

	if !c.auditEnabled || c.auditRepo == nil {
		return resp, err
	}

	if correlationID == "" {
		_, correlationID = ctxutil.EnsureCorrelationID(context.Background())
		c.log.Debug("Missing correlation ID, generated fallback",
			"fallback_id", correlationID,
			"operation", operation,
		)
	}

	rec := c.buildRecord(correlationID, operation, req, resp, err, duration, requestBody, responseBody)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("Panic in audit persistence",
					"panic", r,
					"correlation_id", rec.CorrelationID,
					"operation", rec.Operation,
				)
			}
		}()

		// Detached from the request context: the caller cancels it as soon as the response is read.
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := c.auditRepo.Save(saveCtx, rec); err != nil {
			c.log.Error("Failed to persist audit record",
				"error", err,
				"correlation_id", rec.CorrelationID,
				"operation", rec.Operation,
				"url", rec.RequestURL,
				"response_status", rec.ResponseStatus,
			)
		}
	}()

	return resp, err
}

// replayBody hands back the traced prefix of a response body, then streams the rest.
// Close releases the underlying connection.
type replayBody struct {
	io.Reader
	io.Closer
}

// Flush waits until every pending audit record has been written or ctx is done.
func (c *TracedClient) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *TracedClient) logRequest(correlationID, operation string, req *http.Request, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}

	if c.logReqBody && len(body) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	c.log.Debug("duca_request", attrs...)
}

func (c *TracedClient) logResponse(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Warn("duca_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if len(body) > c.maxBodySize {
		attrs = append(attrs, "response_truncated", true)
	}

	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("duca_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("duca_response", attrs...)
	default:
		c.log.Debug("duca_response", attrs...)
	}
}

func (c *TracedClient) buildRecord(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) audit.Record {
	rec := audit.Record{
		CorrelationID:  correlationID,
		Operation:      operation,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		RequestBody:    security.SanitizeBody(requestBody, c.maxBodySize),
		DurationMs:     duration.Milliseconds(),
	}

	if resp != nil {
		status := resp.StatusCode
		rec.ResponseStatus = &status
		rec.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		rec.ResponseBody = security.SanitizeBody(responseBody, c.maxBodySize)
	}

	if err != nil {
		rec.ErrorMessage = err.Error()
	}
	return rec
}

// operation prefers the name set by the executor and falls back to the last path segment.
func (c *TracedClient) operation(req *http.Request) string {
	if op := OperationFromContext(req.Context()); op != "" {
		return op
	}

	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return strings.ToLower(req.Method) + "_" + last
	}
	return strings.ToLower(req.Method) + "_root"
}
