package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. pending and confirmed are open; completed and
// cancelled are terminal for patient-side edits.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// UnassignedTime is the placeholder until a doctor or admin assigns a
// concrete slot. Rescheduling resets the time back to it.
const UnassignedTime = "To be assigned"

// DateFormat is the calendar-date layout used in requests, audit notes
// and timetable keys.
const DateFormat = "2006-01-02"

// Appointment maps to the appointments table. Notes is append-only
// audit text; lifecycle events add lines, nothing removes them.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string    `db:"appointment_time" json:"appointment_time"`
	Reason          string    `db:"reason" json:"reason"`
	Notes           string    `db:"notes" json:"notes"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether patient-side edits are closed off.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// TransitionPolicy decides which staff-side status changes are
// permitted. Patient-side edge guards (cancel, reschedule) apply on top
// of it regardless.
type TransitionPolicy func(from, to string) bool

// AnyTransition permits every change between valid statuses, matching
// how staff tooling historically behaved.
func AnyTransition(from, to string) bool { return true }

// StrictTransitions refuses to move a record out of a terminal status.
func StrictTransitions(from, to string) bool {
	if Terminal(from) {
		return from == to
	}
	return true
}

// Update carries a partial record update. Nil fields are left
// untouched. AppendNote adds a line to notes instead of replacing them.
type Update struct {
	DoctorID        *uuid.UUID
	AppointmentDate *time.Time
	AppointmentTime *string
	Reason          *string
	Status          *string
	AppendNote      *string
}
