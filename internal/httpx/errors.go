package httpx

import (
	"fmt"
	"net/http"
)

// APIError is the typed error produced for every failed request. It carries
// enough context for callers to branch on status class without string checks.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Retryable  bool
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", e.StatusCode)
	}
	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s: %s", e.Endpoint, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether the error is a 4xx response.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports whether the error is a 5xx response.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsNotFound reports whether the error is a 404 response.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRetryableStatus reports whether a status code is worth retrying.
// Retryable: 408, 429, 500, 502, 503, 504.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
