package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists login accounts. Implementations translate store
// errors into the apperr taxonomy (ErrNotFound, ErrConflict on
// duplicate email).
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
