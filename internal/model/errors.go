package model

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("admin privileges required")
	ErrNotFound            = errors.New("not found")
	ErrOldPasswordRequired = errors.New("old password is required")
	ErrValidation          = errors.New("validation failed")
	ErrStorageUnavailable  = errors.New("storage unavailable")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	// ErrCredentialInactive is reported for soft-deleted accounts.
	ErrCredentialInactive = fmt.Errorf("%w: credential inactive", ErrNotFound)
)

// IsDomain reports whether err carries one of the deterministic domain errors.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrDuplicateUsername,
		ErrInvalidCredentials,
		ErrUnauthenticated,
		ErrForbidden,
		ErrNotFound,
		ErrOldPasswordRequired,
		ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
