package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds.
var (
	ErrConfiguration        = errors.New("configuration error")
	ErrAccountNotConfigured = errors.New("the account must be set up")
	ErrValidation           = errors.New("validation error")
	ErrInvalidInput         = errors.New("the dlts object must be an array")
	ErrUnknownDlt           = errors.New("dlt not configured")
	ErrUnsupportedDlt       = errors.New("dlt not supported")
	ErrOptionsMismatch      = errors.New("transaction options belong to another dlt")
)

// MissingOptionError is returned when building a transaction without one of its required options.
type MissingOptionError struct {
	Field string
}

func (e *MissingOptionError) Error() string {
	return fmt.Sprintf("options.%s must be set up", e.Field)
}

// Is makes MissingOptionError match ErrValidation.
func (e *MissingOptionError) Is(target error) bool {
	return target == ErrValidation
}

// MissingOption returns the validation error for field.
func MissingOption(field string) error {
	return &MissingOptionError{Field: field}
}

// AccountNotConfiguredError is returned by operations that need an account when none was set up.
type AccountNotConfiguredError struct {
	Dlt string
}

func (e *AccountNotConfiguredError) Error() string {
	if e.Dlt == "" {
		return ErrAccountNotConfigured.Error()
	}

	return fmt.Sprintf("the %s account must be set up", e.Dlt)
}

// Is makes AccountNotConfiguredError match ErrAccountNotConfigured.
func (e *AccountNotConfiguredError) Is(target error) bool {
	return target == ErrAccountNotConfigured
}

// UnknownDltError is returned by the orchestrator for a DLT name it has no adapter for.
type UnknownDltError struct {
	Name string
}

func (e *UnknownDltError) Error() string {
	return fmt.Sprintf("dlt %q is not configured", e.Name)
}

// Is makes UnknownDltError match ErrUnknownDlt.
func (e *UnknownDltError) Is(target error) bool {
	return target == ErrUnknownDlt
}

// UnsupportedDltError is returned at configuration time for a DLT name with no adapter implementation.
type UnsupportedDltError struct {
	Name string
}

func (e *UnsupportedDltError) Error() string {
	return fmt.Sprintf("dlt %q is not supported", e.Name)
}

// Is makes UnsupportedDltError match both ErrUnsupportedDlt and ErrConfiguration.
func (e *UnsupportedDltError) Is(target error) bool {
	return target == ErrUnsupportedDlt || target == ErrConfiguration
}
