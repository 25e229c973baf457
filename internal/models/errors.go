package models

import "github.com/pkg/errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
	// ErrConflict means a conditional write lost against a concurrent one.
	ErrConflict = errors.New("conflict")
)
