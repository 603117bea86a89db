package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error classes. Every error a service returns either wraps one of these or
// is treated as internal by the HTTP layer.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrShippingAddressRequired = fmt.Errorf("%w: shipping address is required", ErrValidation)
	ErrEmptyCart               = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrOrderNotCancellable     = fmt.Errorf("%w: only pending or paid orders can be cancelled", ErrValidation)
	ErrOrderNotPayable         = fmt.Errorf("%w: only pending orders can be paid", ErrValidation)
	ErrInvalidStatus           = fmt.Errorf("%w: invalid order status", ErrValidation)
	ErrOrderCancelled          = fmt.Errorf("%w: cancelled orders cannot change status", ErrValidation)
	ErrCartChanged             = fmt.Errorf("%w: cart changed during checkout", ErrConflict)
	ErrInvalidCard             = fmt.Errorf("%w: card number must be 16 digits", ErrValidation)
	ErrPaymentMethodRequired   = fmt.Errorf("%w: payment method is required", ErrValidation)
	ErrCategoryInUse           = fmt.Errorf("%w: category still has products", ErrValidation)
	ErrOwnRole                 = fmt.Errorf("%w: cannot change your own role", ErrValidation)
	ErrDeleteSelf              = fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	ErrInvalidRole             = fmt.Errorf("%w: role must be USER or ADMIN", ErrValidation)

	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	ErrNotOrderOwner    = fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	ErrNotCartOwner     = fmt.Errorf("%w: cart item belongs to another user", ErrForbidden)
	ErrEmailTaken       = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrProductOrdered   = fmt.Errorf("%w: product is referenced by orders", ErrConflict)
	ErrUserHasOrders    = fmt.Errorf("%w: user has orders", ErrConflict)
	ErrBadCredentials   = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
)

// InsufficientStockError names the product whose stock cannot cover the
// requested quantity.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrValidation
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-row error onto the domain error.
func notFound(err, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return err
}
