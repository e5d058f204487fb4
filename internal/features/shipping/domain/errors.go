package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExhausted is returned when a 401 survived the maximum number of
	// re-authentication retries.
	ErrAuthExhausted = errors.New("authorization retries exhausted")
	// ErrForbidden is returned on HTTP 403. Never retried.
	ErrForbidden = errors.New("carrier request forbidden")
	// ErrRateLimited is returned on HTTP 429.
	ErrRateLimited = errors.New("carrier rate limit exceeded")
	// ErrAWBNotAvailable signals the provider has not assigned an air waybill
	// yet. Expected and retryable later; callers should not log it as an error.
	ErrAWBNotAvailable = errors.New("awb not yet assigned")
	// ErrDocumentURLMissing is returned when a document-generation response
	// carries no file URL.
	ErrDocumentURLMissing = errors.New("document url missing from carrier response")
	// ErrNotSupported is returned when the selected API generation cannot
	// perform the requested operation.
	ErrNotSupported = errors.New("operation not supported by this carrier api generation")
	// ErrTimeout is returned when a provider call exceeded its deadline.
	ErrTimeout = errors.New("carrier request timed out")
)

// AuthError reports a failed authentication attempt against the legacy API.
type AuthError struct {
	// Status is the HTTP status of the login response, 0 for local failures.
	Status int
	// Message describes the failure.
	Message string
}

func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("carrier authentication failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("carrier authentication failed: %s", e.Message)
}

// APIError reports a non-2xx provider response that is not an auth,
// forbidden or rate-limit condition.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// StatusText is the HTTP status text.
	StatusText string
	// Body is the raw response body, possibly truncated.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("carrier api error %d %s: %s", e.Status, e.StatusText, e.Body)
}

// APIStatusError reports an application-level failure from the modern API,
// which signals errors via a status_code field independent of the HTTP status.
type APIStatusError struct {
	// StatusCode is the application-level status code from the body.
	StatusCode int
	// Message is the provider's error message, when present.
	Message string
	// Body is the raw response body, possibly truncated.
	Body string
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("carrier rejected request (status_code %d): %s", e.StatusCode, e.Message)
}

// DecodeError reports a provider response that could not be parsed as JSON.
type DecodeError struct {
	// Status is the HTTP status of the unparseable response.
	Status int
	// Snippet is a truncated copy of the body for diagnostics.
	Snippet string
	// Err is the underlying decode error.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode carrier response (status %d): %v; body: %s", e.Status, e.Err, e.Snippet)
}

// Unwrap exposes the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
