package http

import (
	"errors"
	"net/http"
)

// Kind classifies a failed call so callers can branch without string matching.
type Kind string

const (
	// KindTimeout means no response arrived within the configured window.
	KindTimeout Kind = "timeout"
	// KindNetwork means the request never reached the server.
	KindNetwork Kind = "network"
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP Kind = "http"
	// KindMalformed means a 2xx response carried a body that could not be decoded.
	KindMalformed Kind = "malformed"
	// KindValidation means a client-side guard rejected the input before any request was sent.
	KindValidation Kind = "validation"
	// KindCanceled means the caller's context was canceled.
	KindCanceled Kind = "canceled"
)

// APIError is the single error value surfaced for every failed call.
type APIError struct {
	Kind    Kind
	Status  int // HTTP status, 0 unless Kind is KindHTTP or KindMalformed
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a client-side guard failure.
func NewValidationError(message string) *APIError {
	return &APIError{Kind: KindValidation, Message: message}
}

// KindOf returns the category of err, or "" when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func IsTimeout(err error) bool    { return KindOf(err) == KindTimeout }
func IsNetwork(err error) bool    { return KindOf(err) == KindNetwork }
func IsHTTP(err error) bool       { return KindOf(err) == KindHTTP }
func IsMalformed(err error) bool  { return KindOf(err) == KindMalformed }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsCanceled(err error) bool   { return KindOf(err) == KindCanceled }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports a 401, the signal that the stored session is stale.
func IsUnauthorized(err error) bool {
	return IsHTTP(err) && StatusCode(err) == http.StatusUnauthorized
}
