package errors

import (
	"errors"
	"fmt"
)

// Common error types for the atelier portal
var (
	// Persisted session errors (absorbed by the session store)
	ErrCorruptSession = errors.New("corrupt session")
	ErrExpiredToken   = errors.New("token expired")
	ErrStorage        = errors.New("storage failure")

	// Backend call errors (surfaced to the caller)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrServer             = errors.New("server error")
	ErrNetwork            = errors.New("network error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")

	// Auth data errors
	ErrIncompleteAuthData = errors.New("incomplete auth data")

	// Auth mutation errors
	ErrOperationInFlight = errors.New("auth operation already in flight")
	ErrSuperseded        = errors.New("auth operation superseded by logout")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, dropping nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
