package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/caredesk/caredesk/internal/platform/apperr"
)

// OpenAppointmentCounter is implemented by the appointment ledger. The
// directory consults it before deleting a profile so appointment records
// never end up pointing at a doctor that no longer exists.
type OpenAppointmentCounter interface {
	CountOpenForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}

type Service struct {
	doctors Repository
	open    OpenAppointmentCounter
}

func NewService(doctors Repository, open OpenAppointmentCounter) *Service {
	return &Service{doctors: doctors, open: open}
}

func (s *Service) Create(ctx context.Context, d *Doctor) error {
	if d.FirstName == "" {
		return fmt.Errorf("%w: first_name is required", apperr.ErrValidation)
	}
	if d.Gender == "" {
		return fmt.Errorf("%w: gender is required", apperr.ErrValidation)
	}
	if d.Age <= 0 {
		return fmt.Errorf("%w: age is required", apperr.ErrValidation)
	}
	if d.Email == "" {
		return fmt.Errorf("%w: email is required", apperr.ErrValidation)
	}
	if d.PhoneNumber == "" {
		return fmt.Errorf("%w: phone_number is required", apperr.ErrValidation)
	}
	if d.Department == "" {
		return fmt.Errorf("%w: department is required", apperr.ErrValidation)
	}
	d.Specialization = NormalizeSet(d.Specialization)
	if len(d.Specialization) == 0 {
		return fmt.Errorf("%w: specialization is required", apperr.ErrValidation)
	}
	d.Qualification = NormalizeSet(d.Qualification)
	if len(d.Qualification) == 0 {
		return fmt.Errorf("%w: qualification is required", apperr.ErrValidation)
	}
	if d.Experience < 0 {
		return fmt.Errorf("%w: experience must not be negative", apperr.ErrValidation)
	}
	d.AvailableDays = NormalizeSet(d.AvailableDays)
	if len(d.AvailableDays) == 0 {
		return fmt.Errorf("%w: available_days is required", apperr.ErrValidation)
	}

	d.Email = NormalizeEmail(d.Email)
	if _, err := s.doctors.GetByEmail(ctx, d.Email); err == nil {
		return fmt.Errorf("%w: doctor with this email already exists", apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	if d.Timetable == nil {
		d.Timetable = map[string]DaySchedule{}
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetByLinkedUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByLinkedUser(ctx, userID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// Update merges the provided fields into the profile. Array fields are
// replaced wholesale after normalization; address merges key-by-key in
// the repository.
func (s *Service) Update(ctx context.Context, id uuid.UUID, upd DoctorUpdate) (*Doctor, error) {
	if upd.Email != nil {
		normalized := NormalizeEmail(*upd.Email)
		if normalized == "" {
			return nil, fmt.Errorf("%w: email must not be empty", apperr.ErrValidation)
		}
		upd.Email = &normalized
	}
	if upd.Specialization != nil {
		upd.Specialization = NormalizeSet(upd.Specialization)
	}
	if upd.Qualification != nil {
		upd.Qualification = NormalizeSet(upd.Qualification)
	}
	if upd.AvailableDays != nil {
		upd.AvailableDays = NormalizeSet(upd.AvailableDays)
	}
	return s.doctors.Update(ctx, id, upd)
}

// Delete removes a profile. It is refused while the doctor still has
// open (pending or confirmed) appointments.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.doctors.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.open.CountOpenForDoctor(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: doctor has %d open appointments", apperr.ErrConflict, n)
	}
	return s.doctors.Delete(ctx, id)
}

// LinkAccount connects a login account to the profile matching the
// email. Returns the linked profile id.
func (s *Service) LinkAccount(ctx context.Context, email string, userID uuid.UUID) (uuid.UUID, error) {
	d, err := s.doctors.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("%w: doctor profile not found for this email", apperr.ErrNotFound)
		}
		return uuid.Nil, err
	}
	if d.LinkedUserID != nil {
		return uuid.Nil, fmt.Errorf("%w: doctor account already exists", apperr.ErrConflict)
	}
	if err := s.doctors.SetLinkedUser(ctx, d.ID, userID); err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}
