package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoints indicates the client was constructed without any candidate endpoints.
	ErrNoEndpoints = errors.New("no chat endpoints configured")

	// ErrTimeout indicates a single attempt exceeded the per-attempt timeout.
	ErrTimeout = errors.New("chat request timed out")

	// ErrEmptyBody indicates the server answered without a readable body.
	ErrEmptyBody = errors.New("response body is empty")

	// ErrAllEndpointsFailed indicates every candidate endpoint was tried and failed.
	ErrAllEndpointsFailed = errors.New("all chat endpoints failed")
)

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func errorCode(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("HTTP_%d", statusErr.Code)
	case errors.Is(err, ErrEmptyBody):
		return "EMPTY_BODY"
	case isConnectionError(err):
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}
