package services

import (
	"errors"

	"foodfront/internal/models"
	"foodfront/internal/repositories"
)

var (
	ErrForbidden       = errors.New("permission denied")
	ErrAlreadyAssigned = errors.New("order already assigned to another rider")
)

// DetailError pairs a sentinel with the text shown to the caller.
type DetailError struct {
	Err    error
	Detail string
}

func (e *DetailError) Error() string { return e.Err.Error() + ": " + e.Detail }

func (e *DetailError) Unwrap() error { return e.Err }

func denied(detail string) error {
	return &DetailError{Err: ErrForbidden, Detail: detail}
}

func notFound(detail string) error {
	return &DetailError{Err: repositories.ErrNotFound, Detail: detail}
}

// Actor is the authenticated caller of a backend operation.
type Actor struct {
	ID   int64
	Role models.Role
}
