package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated indicates a missing, invalid or expired credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the caller is not allowed to touch the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation such as a duplicate email.
	ErrConflict = errors.New("conflict")
	// ErrInternal indicates a storage or otherwise unexpected failure.
	ErrInternal = errors.New("internal error")

	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	// ErrDeleteConsumed indicates the delete latch of a post was already used.
	ErrDeleteConsumed = fmt.Errorf("%w: post can only be deleted once", ErrForbidden)
)

// Validationf builds an ErrValidation carrying a field specific message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
