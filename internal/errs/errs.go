package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrTicketNotFound       = fmt.Errorf("ticket %w", ErrNotFound)
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrAccountInactive      = errors.New("account inactive")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("already exists")
	ErrSelfRegisterDisabled = fmt.Errorf("admin self-registration disabled: %w", ErrForbidden)
)

// Validation wraps ErrValidation with a field-level message safe to return to callers.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
