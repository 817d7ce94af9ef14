package errors

import (
	"errors"
	"fmt"
)

// Common error types for the bot platform identity core
var (
	// Credential errors
	ErrCredentialNotFound          = errors.New("credential not found")
	ErrCredentialSourceUnavailable = errors.New("credential source unavailable")

	// Webhook errors
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrSignatureMissing  = errors.New("signature missing")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Handoff token errors
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Binding errors
	ErrBindingConflict = errors.New("binding conflict")

	// Store errors
	ErrDurableWriteFailed = errors.New("durable write failed")

	// Shop errors
	ErrShopNotFound = errors.New("shop not found")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
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
