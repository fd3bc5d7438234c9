package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinels for errors.Is checks at the HTTP and CLI boundaries.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrMalformedData = errors.New("malformed data")
	ErrStorage       = errors.New("storage write failed")
)

// ValidationError rejects an input field or a state transition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports an unknown product, customer, sale or cart line.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError rejects a cart change that exceeds current stock.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrValidation }

// StockShortage is one product that failed the commit-time stock check.
type StockShortage struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError lists every product that failed a commit.
type StockError struct {
	Shortages []StockShortage
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.Name, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *StockError) Unwrap() error { return ErrValidation }

// InsufficientPaymentError rejects a cash commit tendered below the total.
type InsufficientPaymentError struct {
	Total     decimal.Decimal
	Tendered  decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: total %s, tendered %s, missing %s",
		e.Total.StringFixed(2), e.Tendered.StringFixed(2), e.Shortfall.StringFixed(2))
}

func (e *InsufficientPaymentError) Unwrap() error { return ErrValidation }

// StorageError means the in-memory change was applied but could not be
// written to the store.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

// Unwrap exposes both the sentinel and the driver error.
func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// MalformedDataError rejects an unreadable blob or backup document.
type MalformedDataError struct {
	Source string
	Err    error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Source, e.Err)
}

func (e *MalformedDataError) Unwrap() []error { return []error{ErrMalformedData, e.Err} }

// Invalid is shorthand for a state-transition ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsStorage reports whether err carries a persistence failure.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }
