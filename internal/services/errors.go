// internal/services/errors.go
package services

import "errors"

// Failure taxonomy surfaced by the catalog/order services. Handlers match
// these with errors.Is to pick status codes; the messages double as the
// reason strings returned to clients.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrVariationNotFound = errors.New("variation option not found")
	ErrProductInactive   = errors.New("product is not available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")

	ErrEmptyCart         = errors.New("order items are required")
	ErrPersistenceFailed = errors.New("failed to persist order")

	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrNotOrderOwner      = errors.New("not authorized to view this order")
	ErrConcurrentConflict = errors.New("order was modified concurrently")

	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)
