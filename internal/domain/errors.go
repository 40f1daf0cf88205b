package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found or is not
	// owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrOrderAlreadyAccepted rejects a second finalization of the same
	// order; accepting it again would decrement stock twice.
	ErrOrderAlreadyAccepted = errors.New("order already accepted")
)

// ValidationError flags malformed caller input.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// ErrEmptyCart is returned when an order snapshot is requested for a cart
// with no lines.
const ErrEmptyCart = ValidationError("cart is empty")

// StockError identifies the exact product whose stock would go negative.
type StockError struct {
	ProductID int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// GatewayError wraps a failed call to an external payment gateway. Any
// ambiguity in a gateway response (transport error, non-2xx status,
// unparsable body, non-success return code) surfaces as a GatewayError;
// ambiguous responses are never treated as success.
type GatewayError struct {
	Gateway string
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Gateway, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Gateway, e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
