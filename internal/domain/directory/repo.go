package directory

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists doctor profiles. Implementations translate store
// errors into the apperr taxonomy (ErrNotFound, ErrConflict).
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	GetByLinkedUser(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	// Update writes only the provided fields in a single statement and
	// returns the resulting row.
	Update(ctx context.Context, id uuid.UUID, upd DoctorUpdate) (*Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	// SetLinkedUser links a login account to the profile. It fails with
	// ErrConflict when a link is already present.
	SetLinkedUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}
