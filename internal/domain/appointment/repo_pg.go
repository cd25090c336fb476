package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caredesk/caredesk/internal/platform/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const appointmentCols = `id, user_id, doctor_id, appointment_date, appointment_time,
	reason, notes, status, created_at, updated_at`

// appendNoteSQL appends a line to notes without clobbering history.
const appendNoteSQL = `CASE WHEN notes = '' THEN %[1]s ELSE notes || E'\n' || %[1]s END`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.AppointmentDate, &a.AppointmentTime,
		&a.Reason, &a.Notes, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: appointment", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, user_id, doctor_id, appointment_date,
			appointment_time, reason, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.UserID, a.DoctorID, a.AppointmentDate,
		a.AppointmentTime, a.Reason, a.Notes, a.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

// Cancel is one guarded statement: the status check and the write
// cannot be split by a concurrent transition.
func (r *repoPG) Cancel(ctx context.Context, id uuid.UUID, note string) error {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET status = 'cancelled', notes = %s, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')`,
		fmt.Sprintf(appendNoteSQL, "$2"))
	tag, err := r.pool.Exec(ctx, query, id, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.guardFailure(ctx, id)
	}
	return nil
}

func (r *repoPG) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, note string) error {
	query := fmt.Sprintf(`
		UPDATE appointments
		SET appointment_date = $2, appointment_time = $3, status = 'pending',
			notes = %s, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'cancelled')`,
		fmt.Sprintf(appendNoteSQL, "$4"))
	tag, err := r.pool.Exec(ctx, query, id, newDate, UnassignedTime, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.guardFailure(ctx, id)
	}
	return nil
}

// guardFailure tells a missing record apart from one refused by the
// status guard.
func (r *repoPG) guardFailure(ctx context.Context, id uuid.UUID) error {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: appointment is already %s", apperr.ErrInvalidState, a.Status)
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, upd Update) (*Appointment, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	idx := 2

	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if upd.DoctorID != nil {
		add("doctor_id", *upd.DoctorID)
	}
	if upd.AppointmentDate != nil {
		add("appointment_date", *upd.AppointmentDate)
	}
	if upd.AppointmentTime != nil {
		add("appointment_time", *upd.AppointmentTime)
	}
	if upd.Reason != nil {
		add("reason", *upd.Reason)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.AppendNote != nil {
		sets = append(sets, fmt.Sprintf("notes = "+appendNoteSQL, fmt.Sprintf("$%d", idx)))
		args = append(args, *upd.AppendNote)
		idx++
	}

	query := fmt.Sprintf(`UPDATE appointments SET %s WHERE id = $1 RETURNING %s`,
		joinSets(sets), appointmentCols)
	return scanAppointment(r.pool.QueryRow(ctx, query, args...))
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: appointment", apperr.ErrNotFound)
	}
	return nil
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentCols+` FROM appointments
		WHERE user_id = $1 AND status <> 'cancelled'
		ORDER BY appointment_date ASC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListForDoctor(ctx context.Context, doctorID uuid.UUID, from time.Time) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentCols+` FROM appointments
		WHERE doctor_id = $1 AND status <> 'cancelled' AND appointment_date >= $2
		ORDER BY appointment_date ASC, created_at ASC`, doctorID, from)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) CountOpenForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE doctor_id = $1 AND status IN ('pending', 'confirmed')`, doctorID).Scan(&n)
	return n, err
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
