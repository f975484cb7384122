// Package errs regroupe les erreurs sentinelles du panier et du checkout.
// Comparer avec errors.Is, les appelants enveloppent avec fmt.Errorf("...: %w", err).
package errs

import (
	"errors"
	"fmt"
)

var (
	// Auth
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAdminRequired          = errors.New("admin role required")

	// Panier
	ErrOutOfStock        = errors.New("product out of stock")
	ErrStockLimitReached = errors.New("stock limit reached")
	ErrInvalidQuantity   = errors.New("invalid quantity")

	// Checkout
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrStockContention        = errors.New("stock update contention")
	ErrOrderPersistenceFailed = errors.New("order persistence failed")
	ErrNotificationFailed     = errors.New("notification failed")
	ErrInvalidPaymentMethod   = errors.New("invalid payment method")
	ErrInvalidCustomerInfo    = errors.New("invalid customer info")

	// Commandes
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	// Store
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// StockError détaille un décrément refusé faute de stock
type StockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
