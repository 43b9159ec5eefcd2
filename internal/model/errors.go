package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
	ErrCartEmpty      = errors.New("cart is empty")

	// ErrTableNumberRequired lets surfaces reopen the table sub-form
	// instead of showing a generic validation failure.
	ErrTableNumberRequired = errors.New("table number required")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewUnauthorizedError creates a 401 error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewUpstreamError creates a 502 error for backend failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// NewCheckoutError creates a 502 error for checkout-path failures.
// Checkout-path errors are always surfaced: the pay control is
// re-enabled and nothing is retried automatically.
func NewCheckoutError(stage string, err error) *APIError {
	return &APIError{
		Code:       "CHECKOUT_FAILED",
		Message:    fmt.Sprintf("%s failed", stage),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// RequestError is returned by the API client for non-2xx responses.
// Carries the upstream HTTP status and the raw response body so callers
// can surface server-provided detail messages.
type RequestError struct {
	Status int
	Body   []byte

	// RateLimit holds parsed RateLimit header fields on 429 responses, if present.
	RateLimit *RateLimitInfo
}

func (e *RequestError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("request failed: status %d: %s", e.Status, truncate(e.Body, 200))
	}
	return fmt.Sprintf("request failed: status %d", e.Status)
}

func (e *RequestError) Unwrap() error {
	switch e.Status {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	}
	if e.Status >= 400 && e.Status < 500 {
		return ErrInvalidRequest
	}
	return ErrUpstreamError
}

// Detail extracts the backend's human-readable error message, if any.
// The backend uses {"detail": "..."} and {"message": "..."} interchangeably.
func (e *RequestError) Detail() string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Message
}

// RateLimitInfo describes a parsed RateLimit structured header (RFC 8941 dictionary).
type RateLimitInfo struct {
	Limit     int64 // requests allotted in the window
	Remaining int64 // requests remaining
	ResetSecs int64 // seconds until the window resets
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
