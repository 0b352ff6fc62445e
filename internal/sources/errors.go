package sources

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by source adapters.
var (
	// ErrNotFound indicates the source returned no usable candidate.
	ErrNotFound = errors.New("no candidate found")

	// ErrAuthError indicates a rejected or missing credential.
	ErrAuthError = errors.New("authentication error")

	// ErrRateLimited indicates the source signaled throttling.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNetworkError indicates a connectivity or timeout failure.
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse indicates a malformed or unexpected response body.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError carries source and status context for a failed HTTP call.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error (status %d)", e.Source, e.StatusCode)
}

// IsAuthError returns true if the error indicates a credential problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRateLimited returns true if the error indicates throttling.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsNotFound returns true if the error indicates the resource was absent.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// checkStatus maps an HTTP response status onto the adapter error taxonomy.
func checkStatus(source string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s status %d", ErrAuthError, source, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s status %d", ErrRateLimited, source, resp.StatusCode)
	case resp.StatusCode >= 400:
		return &APIError{Source: source, StatusCode: resp.StatusCode}
	}
	return nil
}
