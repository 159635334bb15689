package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedOrderEncoding means the string echoed back by the gateway
	// could not be parsed. Fatal at capture time: funds moved but the
	// buyer/item mapping is unrecoverable without manual reconciliation.
	ErrMalformedOrderEncoding = errors.New("malformed order encoding")

	// ErrMissingOrderEncoding means the capture response carried no encoding
	// in either location the gateway may place it.
	ErrMissingOrderEncoding = errors.New("capture response carries no order encoding")

	ErrUnsupportedCurrency = errors.New("unsupported settlement currency")

	// ErrSessionExpired marks a rejected local session credential. The cart
	// must survive it; the buyer re-authenticates and returns to checkout.
	ErrSessionExpired = errors.New("session credential rejected")

	// ErrAlreadyCaptured is the gateway's idempotent-replay rejection of a
	// second capture. Callers treat it as a no-op, never as a retry signal.
	ErrAlreadyCaptured = errors.New("order already captured")
)

// ValidationError rejects a checkout request before it reaches the gateway.
// Returned to the buyer; retrying without changing the request is pointless.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthError is a failed credential exchange with the payment gateway, or a
// 401 on any gateway resource call. Carries the gateway's own error body.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("gateway auth failed (status %d): %s", e.StatusCode, e.Body)
}

// GatewayError is a non-auth rejection from the gateway. The body is kept
// verbatim so support sees the gateway's message, not a generic one.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s failed (status %d): %s", e.Op, e.StatusCode, e.Body)
}
