package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
)

// DoctorResolver is implemented by the doctor directory. The ledger
// never dereferences profiles itself; it only needs existence and the
// account-to-profile link.
type DoctorResolver interface {
	DoctorExists(ctx context.Context, doctorID uuid.UUID) error
	// DoctorForUser returns the profile id linked to a login account,
	// ErrNotFound when no profile is linked.
	DoctorForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo    Repository
	doctors DoctorResolver
	policy  TransitionPolicy
	now     func() time.Time
}

func NewService(repo Repository, doctors DoctorResolver, policy TransitionPolicy, now func() time.Time) *Service {
	if policy == nil {
		policy = AnyTransition
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, doctors: doctors, policy: policy, now: now}
}

// today truncates the injected clock to a calendar date in UTC, the
// resolution appointment dates are compared at.
func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateInput carries a booking request. Time is optional; the record
// holds the unassigned placeholder until staff set one.
type CreateInput struct {
	DoctorID        uuid.UUID
	AppointmentDate time.Time
	AppointmentTime string
	Reason          string
	Notes           string
}

func (s *Service) Create(ctx context.Context, principal auth.Principal, in CreateInput) (*Appointment, error) {
	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("%w: doctor_id is required", apperr.ErrValidation)
	}
	if in.AppointmentDate.IsZero() {
		return nil, fmt.Errorf("%w: appointment_date is required", apperr.ErrValidation)
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: reason is required", apperr.ErrValidation)
	}
	if err := s.doctors.DoctorExists(ctx, in.DoctorID); err != nil {
		return nil, err
	}

	appointmentTime := in.AppointmentTime
	if appointmentTime == "" {
		appointmentTime = UnassignedTime
	}
	a := &Appointment{
		UserID:          principal.SubjectID,
		DoctorID:        in.DoctorID,
		AppointmentDate: in.AppointmentDate,
		AppointmentTime: appointmentTime,
		Reason:          in.Reason,
		Notes:           in.Notes,
		Status:          StatusPending,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel is the patient-side exit. Only the booking owner may call it,
// and a completed or already cancelled record stays put; a second
// cancel is an error, not a no-op.
func (s *Service) Cancel(ctx context.Context, principal auth.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != principal.SubjectID {
		return nil, fmt.Errorf("%w: appointment belongs to another user", apperr.ErrForbidden)
	}
	note := fmt.Sprintf("Cancelled by user on %s", s.now().UTC().Format(time.RFC3339))
	if err := s.repo.Cancel(ctx, id, note); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Reschedule moves the booking to a new future date. The slot is
// released: time resets to the placeholder and status drops back to
// pending for staff re-confirmation.
func (s *Service) Reschedule(ctx context.Context, principal auth.Principal, id uuid.UUID, newDate time.Time) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != principal.SubjectID {
		return nil, fmt.Errorf("%w: appointment belongs to another user", apperr.ErrForbidden)
	}
	if newDate.IsZero() {
		return nil, fmt.Errorf("%w: new_date is required", apperr.ErrValidation)
	}
	if newDate.Before(s.today()) {
		return nil, fmt.Errorf("%w: new_date must not be in the past", apperr.ErrValidation)
	}
	note := fmt.Sprintf("Rescheduled from %s to %s",
		a.AppointmentDate.Format(DateFormat), newDate.Format(DateFormat))
	if err := s.repo.Reschedule(ctx, id, newDate, note); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// DoctorInput is the staff-side partial update available to the
// treating doctor.
type DoctorInput struct {
	Status          *string
	AppointmentTime *string
	Notes           *string
}

func (s *Service) UpdateByDoctor(ctx context.Context, principal auth.Principal, id uuid.UUID, in DoctorInput) (*Appointment, error) {
	doctorID, err := s.doctors.DoctorForUser(ctx, principal.SubjectID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: no doctor profile linked to this account", apperr.ErrForbidden)
		}
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, fmt.Errorf("%w: appointment belongs to another doctor", apperr.ErrForbidden)
	}
	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, *in.Status)
		}
		if !s.policy(a.Status, *in.Status) {
			return nil, fmt.Errorf("%w: cannot move appointment from %s to %s",
				apperr.ErrInvalidState, a.Status, *in.Status)
		}
	}
	return s.repo.Update(ctx, id, Update{
		Status:          in.Status,
		AppointmentTime: in.AppointmentTime,
		AppendNote:      in.Notes,
	})
}

// AdminInput is the staff-side full update. Every field is mutable;
// only provided fields are written.
type AdminInput struct {
	DoctorID        *uuid.UUID
	AppointmentDate *time.Time
	AppointmentTime *string
	Reason          *string
	Status          *string
	Notes           *string
}

func (s *Service) UpdateByAdmin(ctx context.Context, id uuid.UUID, in AdminInput) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DoctorID != nil {
		if err := s.doctors.DoctorExists(ctx, *in.DoctorID); err != nil {
			return nil, err
		}
	}
	if in.Reason != nil && *in.Reason == "" {
		return nil, fmt.Errorf("%w: reason must not be empty", apperr.ErrValidation)
	}
	if in.AppointmentDate != nil && in.AppointmentDate.IsZero() {
		return nil, fmt.Errorf("%w: appointment_date must not be empty", apperr.ErrValidation)
	}
	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, *in.Status)
		}
		if !s.policy(a.Status, *in.Status) {
			return nil, fmt.Errorf("%w: cannot move appointment from %s to %s",
				apperr.ErrInvalidState, a.Status, *in.Status)
		}
	}
	return s.repo.Update(ctx, id, Update{
		DoctorID:        in.DoctorID,
		AppointmentDate: in.AppointmentDate,
		AppointmentTime: in.AppointmentTime,
		Reason:          in.Reason,
		Status:          in.Status,
		AppendNote:      in.Notes,
	})
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

func (s *Service) ListForUser(ctx context.Context, principal auth.Principal) ([]*Appointment, error) {
	return s.repo.ListForUser(ctx, principal.SubjectID)
}

func (s *Service) ListForDoctor(ctx context.Context, principal auth.Principal) ([]*Appointment, error) {
	doctorID, err := s.doctors.DoctorForUser(ctx, principal.SubjectID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: no doctor profile linked to this account", apperr.ErrForbidden)
		}
		return nil, err
	}
	return s.repo.ListForDoctor(ctx, doctorID, s.today())
}

// CountOpenForDoctor lets the directory refuse deleting a profile that
// still has open bookings.
func (s *Service) CountOpenForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	return s.repo.CountOpenForDoctor(ctx, doctorID)
}
