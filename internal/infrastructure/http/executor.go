package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout applies when neither the request nor the executor sets one.
const DefaultTimeout = 10 * time.Second

// HTTPClient sends a prepared request. *http.Client and *TracedClient satisfy it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the Authorization header for the current session, or an empty header.
type TokenSource interface {
	AuthHeader(ctx context.Context) http.Header
}

// Observer receives the outcome of every attempt. Outcome is "success" or an error Kind.
type Observer interface {
	ObserveRequest(operation, method, outcome string, duration time.Duration)
}

// Request describes one call to the DUCA API.
type Request struct {
	Operation string // stable name used in logs, metrics and audit, e.g. "reject_declaration"
	Method    string // defaults to GET
	Path      string // relative to the base URL
	Body      any    // JSON-encoded when non-nil
	Header    http.Header
	Timeout   time.Duration // 0 uses the executor default
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	BaseURL           string
	Timeout           time.Duration
	Retry             RetryPolicy
	MaxErrorBodyBytes int64
	Breaker           *Breaker // nil disables fail-fast
}

// Executor issues requests against the DUCA API and normalizes every outcome
// into either a decoded value or an *APIError.
type Executor struct {
	baseURL      string
	timeout      time.Duration
	retry        RetryPolicy
	breaker      *Breaker
	maxErrorBody int64
	client       HTTPClient
	tokens       TokenSource
	observer     Observer
	log          *slog.Logger
}

// NewExecutor creates an executor. tokens, observer and log may be nil.
func NewExecutor(cfg ExecutorConfig, client HTTPClient, tokens TokenSource, observer Observer, log *slog.Logger) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxErrorBodyBytes <= 0 {
		cfg.MaxErrorBodyBytes = 64 << 10
	}
	if client == nil {
		client = NewClient(&ClientConfig{})
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Executor{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		timeout:      cfg.Timeout,
		retry:        cfg.Retry,
		breaker:      cfg.Breaker,
		maxErrorBody: cfg.MaxErrorBodyBytes,
		client:       client,
		tokens:       tokens,
		observer:     observer,
		log:          log,
	}
}

// BaseURL returns the configured base URL without a trailing slash.
func (e *Executor) BaseURL() string {
	return e.baseURL
}

// Do sends req and decodes a 2xx JSON body into out (when out is non-nil).
// Non-JSON or empty 2xx bodies leave out untouched.
func (e *Executor) Do(ctx context.Context, req Request, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "could not encode request body", Err: err}
		}
	}

	url := e.resolve(req.Path)
	ctx = withOperation(ctx, req.Operation)

	var lastErr error
	attempts := e.retry.attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			pause := e.retry.pause(attempt - 1)
			e.log.Warn("Retrying request",
				"operation", req.Operation,
				"attempt", attempt,
				"max_attempts", attempts,
				"backoff", pause,
				"error", lastErr,
			)
			if err := sleepContext(ctx, pause); err != nil {
				return &APIError{Kind: KindCanceled, Message: "request canceled", Err: err}
			}
		}

		if err := e.breaker.Allow(); err != nil {
			e.log.Debug("Request not sent, circuit open", "operation", req.Operation)
			if lastErr != nil {
				return lastErr
			}
			return err
		}
		lastErr = e.attempt(ctx, req, url, payload, out)
		e.breaker.Record(lastErr)
		if lastErr == nil || !e.retry.shouldRetry(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (e *Executor) attempt(ctx context.Context, req Request, url string, payload []byte, out any) (err error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		e.observe(req, err, time.Since(start))
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, url, body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "could not build request", Err: err}
	}
	e.applyHeaders(ctx, httpReq, req.Header, payload != nil)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return transportError(ctx, err, timeout)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, e.maxErrorBody))
		if readErr != nil && len(raw) == 0 && attemptCtx.Err() != nil {
			return transportError(ctx, readErr, timeout)
		}
		return &APIError{
			Kind:    KindHTTP,
			Status:  resp.StatusCode,
			Message: ResponseMessage(resp.StatusCode, resp.Status, raw),
		}
	}

	return e.decode(ctx, resp, out, timeout)
}

func (e *Executor) decode(ctx context.Context, resp *http.Response, out any, timeout time.Duration) error {
	if out == nil || !isJSON(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, err, timeout)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{
			Kind:    KindMalformed,
			Status:  resp.StatusCode,
			Message: "malformed response from server",
			Err:     err,
		}
	}
	return nil
}

// applyHeaders layers defaults, then caller headers, then the session's Authorization.
func (e *Executor) applyHeaders(ctx context.Context, httpReq *http.Request, extra http.Header, hasBody bool) {
	h := httpReq.Header
	h.Set("Accept", "application/json")
	if hasBody {
		h.Set("Content-Type", "application/json")
	}

	for key, values := range extra {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}

	if e.tokens == nil {
		return
	}
	for key, values := range e.tokens.AuthHeader(ctx) {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}
}

func (e *Executor) resolve(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return e.baseURL + path
}

func (e *Executor) observe(req Request, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}

	if e.observer != nil {
		e.observer.ObserveRequest(req.Operation, req.Method, outcome, d)
	}

	if err != nil {
		e.log.Debug("Request attempt failed",
			"operation", req.Operation,
			"method", req.Method,
			"outcome", outcome,
			"status", StatusCode(err),
			"duration_ms", d.Milliseconds(),
		)
	}
}

// transportError classifies a failure that produced no HTTP status.
func transportError(parent context.Context, err error, timeout time.Duration) *APIError {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return &APIError{Kind: KindCanceled, Message: "request canceled", Err: err}
	case errors.Is(err, context.DeadlineExceeded) || isTimeoutError(err):
		return &APIError{Kind: KindTimeout, Message: fmt.Sprintf("request timed out after %s", timeout), Err: err}
	default:
		return &APIError{Kind: KindNetwork, Message: "could not reach server", Err: err}
	}
}

func isTimeoutError(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

type operationKey struct{}

func withOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey{}, operation)
}

// OperationFromContext returns the operation name the executor attached to ctx.
func OperationFromContext(ctx context.Context) string {
	op, _ := ctx.Value(operationKey{}).(string)
	return op
}
