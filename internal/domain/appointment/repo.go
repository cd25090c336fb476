package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointment records. Implementations translate
// store errors into the apperr taxonomy, and implement the lifecycle
// edges (Cancel, Reschedule) as single guarded statements so the state
// checks hold under concurrent writers.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Cancel marks the record cancelled and appends the audit note.
	// ErrInvalidState when the record is already terminal.
	Cancel(ctx context.Context, id uuid.UUID, note string) error
	// Reschedule moves the record to newDate, resets the time to the
	// unassigned placeholder, sets status back to pending and appends
	// the audit note. ErrInvalidState when terminal.
	Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, note string) error
	// Update writes only the provided fields in a single statement and
	// returns the resulting row.
	Update(ctx context.Context, id uuid.UUID, upd Update) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	// ListForUser returns the user's non-cancelled records, soonest
	// date first, newest booking first within a date.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Appointment, error)
	// ListForDoctor returns the doctor's non-cancelled records dated
	// from on or later, soonest first.
	ListForDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]*Appointment, error)
	// CountOpenForDoctor counts pending and confirmed records.
	CountOpenForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}
