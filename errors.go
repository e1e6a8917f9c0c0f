package storefront

import (
	"errors"
	"fmt"

	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/memory"
	"github.com/vishxl-0001/vipn/pkg/payment"
)

// Sentinel errors for comparison using errors.Is()
var (
	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// Lifecycle errors
	ErrAlreadyStarted = errors.New("already started")

	// Backend errors
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
)

// StoreError provides structured error information with context
type StoreError struct {
	Op      string // Operation that failed (e.g., "Config.Validate")
	Kind    string // Error kind (e.g., "config", "session")
	ID      string // Optional ID of the entity involved
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *StoreError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(op, kind string, err error) *StoreError {
	return &StoreError{Op: op, Kind: kind, Err: err}
}

func configError(message string, err error) *StoreError {
	return &StoreError{Op: "Config.Validate", Kind: "config", Message: message, Err: err}
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, catalog.ErrProductNotFound) ||
		errors.Is(err, memory.ErrKeyNotFound)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration) ||
		errors.Is(err, payment.ErrMissingKey) ||
		errors.Is(err, payment.ErrUnknownProvider)
}
