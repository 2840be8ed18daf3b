package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMissingFields     = errors.New("products and totalAmount are required")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrPriceMismatch     = errors.New("submitted price does not match catalog price")
	ErrTotalMismatch     = errors.New("totalAmount does not match the sum of line items")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// IsValidationError reports whether err maps to a 400 at the HTTP boundary.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrPriceMismatch) ||
		errors.Is(err, ErrTotalMismatch) ||
		errors.Is(err, ErrInvalidTransition)
}
