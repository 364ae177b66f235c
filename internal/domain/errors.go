package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAuth indicates the backend rejected the API credential.
	ErrAuth = errors.New("api credential rejected")
	// ErrEmptyCart blocks order submission when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrIdentityUnavailable is returned when no device identity can be
	// established; identity-dependent operations must be skipped.
	ErrIdentityUnavailable = errors.New("device identity unavailable")
)

// TransportError wraps network-level failures (unreachable backend, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError carries a non-2xx backend status and its message body.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// ParseError wraps a malformed backend response shape.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed backend response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists the delivery fields missing from a checkout request.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}
