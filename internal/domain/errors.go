package domain

import (
	"errors"
	"fmt"
)

// Error categories. Package level errors wrap exactly one of them so callers
// can branch on the category with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuthorization  = errors.New("authorization error")
	ErrNotFound       = errors.New("not found")
	ErrTransientStore = errors.New("transient store error")
)

var (
	// ErrInvalidStatus is returned for a status outside the closed set
	ErrInvalidStatus = fmt.Errorf("%w: invalid appointment status", ErrValidation)

	// ErrInvalidStatusTransition is returned for a transition missing from the table
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)

	// ErrInvalidRole is returned for an unknown caller role
	ErrInvalidRole = fmt.Errorf("%w: invalid role", ErrValidation)
)
