package places

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ProviderError represents a failed call to the external places API.
// StatusCode is the HTTP status of the provider response (0 for
// transport-level failures); Status is the provider's own status string
// when it returned one (e.g. "REQUEST_DENIED").
type ProviderError struct {
	StatusCode int
	Status     string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.Status != "":
		return fmt.Sprintf("places provider error: %s: %s", e.Status, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("places provider error (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("places provider error: %s", e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the error is a provider deadline or network
// timeout, so the boundary can map it to a gateway-timeout response.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
