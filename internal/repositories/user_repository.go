package repositories

import (
	"context"
	"errors"

	"foodfront/internal/models"
)

// ErrNotFound is returned when a backend record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository defines the interface for account data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
