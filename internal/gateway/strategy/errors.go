package strategy

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrPortfolioNotFound marks the 404 from GET /portfolio/status; the
// caller renders the uninitialized display instead of an error.
var ErrPortfolioNotFound = errors.New("portfolio not initialized")

// APIError carries a non-2xx response, with the server's own message
// when the body held one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("strategy service returned %d", e.StatusCode)
}

// Unauthorized reports whether the failure is an auth rejection.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// UserMessage extracts the message to surface for a failed request:
// the server-provided one for API errors, the fallback otherwise
// (transport failures carry no text meant for end users).
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsTransport reports whether no usable response was received at all.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	return !errors.As(err, &apiErr) && !errors.Is(err, ErrPortfolioNotFound)
}
