package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caredesk/caredesk/internal/domain/directory"
	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
)

// DefaultRetentionDays bounds how far back schedule entries are kept.
const DefaultRetentionDays = 30

// ProfileResolver maps a login account to its linked doctor profile.
type ProfileResolver interface {
	DoctorForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Resolver answers "what is this doctor's schedule for a given day".
// A missing entry and a half-bounded entry are the same answer: none.
type Resolver struct {
	store     Store
	profiles  ProfileResolver
	retention int
	now       func() time.Time
}

func NewResolver(store Store, profiles ProfileResolver, retentionDays int, now func() time.Time) *Resolver {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, profiles: profiles, retention: retentionDays, now: now}
}

func (r *Resolver) todayKey() string {
	return r.now().UTC().Format(directory.DateKeyFormat)
}

// GetToday returns the doctor's schedule for today, nil when none is
// published. ErrNotFound only when the doctor does not exist.
func (r *Resolver) GetToday(ctx context.Context, doctorID uuid.UUID) (*directory.DaySchedule, error) {
	return r.getOn(ctx, doctorID, r.todayKey())
}

// GetOn is GetToday for an arbitrary date.
func (r *Resolver) GetOn(ctx context.Context, doctorID uuid.UUID, date time.Time) (*directory.DaySchedule, error) {
	return r.getOn(ctx, doctorID, date.UTC().Format(directory.DateKeyFormat))
}

func (r *Resolver) getOn(ctx context.Context, doctorID uuid.UUID, key string) (*directory.DaySchedule, error) {
	s, err := r.store.Get(ctx, doctorID, key)
	if err != nil {
		return nil, err
	}
	if s == nil || !s.Complete() {
		return nil, nil
	}
	return s, nil
}

// SetInput is a day's working window. Blank slots are dropped.
type SetInput struct {
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Slots     []string `json:"slots"`
}

// SetToday publishes the caller's schedule for today. Only today's
// entry is written; other days are untouched except that entries older
// than the retention window are dropped.
func (r *Resolver) SetToday(ctx context.Context, principal auth.Principal, in SetInput) (*directory.DaySchedule, error) {
	doctorID, err := r.profiles.DoctorForUser(ctx, principal.SubjectID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: no doctor profile linked to this account", apperr.ErrForbidden)
		}
		return nil, err
	}
	if in.StartTime == "" || in.EndTime == "" {
		return nil, fmt.Errorf("%w: startTime and endTime are required", apperr.ErrValidation)
	}
	sched := directory.DaySchedule{
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Slots:     directory.NormalizeSet(in.Slots),
	}
	key := r.todayKey()
	cutoff := r.now().UTC().AddDate(0, 0, -r.retention).Format(directory.DateKeyFormat)
	if err := r.store.SetDay(ctx, doctorID, key, sched, cutoff); err != nil {
		return nil, err
	}
	return &sched, nil
}

// GetOwnToday resolves the caller's own schedule for today.
func (r *Resolver) GetOwnToday(ctx context.Context, principal auth.Principal) (*directory.DaySchedule, error) {
	doctorID, err := r.profiles.DoctorForUser(ctx, principal.SubjectID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: no doctor profile linked to this account", apperr.ErrForbidden)
		}
		return nil, err
	}
	return r.GetToday(ctx, doctorID)
}
