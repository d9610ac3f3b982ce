package application

import (
	"errors"

	"github.com/simplecrud/users-service/pkg/validation"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUserNotFound        = errors.New("user not found")
	ErrPoolProfileNotFound = errors.New("pool profile not found")
)

// ValidationError carries every field error found while validating a
// request; nothing is persisted when it is returned.
type ValidationError struct {
	Fields validation.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}
