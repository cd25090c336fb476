package timetable

import (
	"context"

	"github.com/google/uuid"

	"github.com/caredesk/caredesk/internal/domain/directory"
)

// Store reads and writes per-day schedule entries on a doctor profile.
// Implementations translate store errors into the apperr taxonomy.
type Store interface {
	// Get returns the entry under key, or nil without error when the
	// doctor has no entry for that day. ErrNotFound when the doctor
	// itself is absent.
	Get(ctx context.Context, doctorID uuid.UUID, key string) (*directory.DaySchedule, error)
	// SetDay writes the entry under key and drops every entry keyed
	// before cutoff, in one statement.
	SetDay(ctx context.Context, doctorID uuid.UUID, key string, s directory.DaySchedule, cutoff string) error
}
