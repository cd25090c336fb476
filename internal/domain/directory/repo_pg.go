package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caredesk/caredesk/internal/platform/apperr"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const doctorCols = `id, first_name, last_name, gender, age, email, phone_number, department,
	specialization, qualification, experience, bio, available_days,
	address_street, address_city, address_state, address_pin_code, address_country,
	timetable, user_id, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var timetable []byte
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Gender, &d.Age, &d.Email,
		&d.PhoneNumber, &d.Department, &d.Specialization, &d.Qualification,
		&d.Experience, &d.Bio, &d.AvailableDays,
		&d.Address.Street, &d.Address.City, &d.Address.State, &d.Address.PinCode, &d.Address.Country,
		&timetable, &d.LinkedUserID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: doctor", apperr.ErrNotFound)
		}
		return nil, err
	}
	if len(timetable) > 0 {
		if err := json.Unmarshal(timetable, &d.Timetable); err != nil {
			return nil, fmt.Errorf("decode timetable: %w", err)
		}
	}
	if d.Timetable == nil {
		d.Timetable = map[string]DaySchedule{}
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	timetable, err := json.Marshal(d.Timetable)
	if err != nil {
		return fmt.Errorf("encode timetable: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO doctors (id, first_name, last_name, gender, age, email, phone_number,
			department, specialization, qualification, experience, bio, available_days,
			address_street, address_city, address_state, address_pin_code, address_country,
			timetable, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		d.ID, d.FirstName, d.LastName, d.Gender, d.Age, d.Email, d.PhoneNumber,
		d.Department, d.Specialization, d.Qualification, d.Experience, d.Bio, d.AvailableDays,
		d.Address.Street, d.Address.City, d.Address.State, d.Address.PinCode, d.Address.Country,
		timetable, d.LinkedUserID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: doctor with this email already exists", apperr.ErrConflict)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *repoPG) GetByLinkedUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE user_id = $1`, userID))
}

// Update builds a single UPDATE statement covering only the provided
// fields so concurrent edits to other fields are never overwritten.
func (r *repoPG) Update(ctx context.Context, id uuid.UUID, upd DoctorUpdate) (*Doctor, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	idx := 2

	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Gender != nil {
		add("gender", *upd.Gender)
	}
	if upd.Age != nil {
		add("age", *upd.Age)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.PhoneNumber != nil {
		add("phone_number", *upd.PhoneNumber)
	}
	if upd.Department != nil {
		add("department", *upd.Department)
	}
	if upd.Specialization != nil {
		add("specialization", upd.Specialization)
	}
	if upd.Qualification != nil {
		add("qualification", upd.Qualification)
	}
	if upd.Experience != nil {
		add("experience", *upd.Experience)
	}
	if upd.Bio != nil {
		add("bio", *upd.Bio)
	}
	if upd.AvailableDays != nil {
		add("available_days", upd.AvailableDays)
	}
	if upd.Address != nil {
		if upd.Address.Street != nil {
			add("address_street", *upd.Address.Street)
		}
		if upd.Address.City != nil {
			add("address_city", *upd.Address.City)
		}
		if upd.Address.State != nil {
			add("address_state", *upd.Address.State)
		}
		if upd.Address.PinCode != nil {
			add("address_pin_code", *upd.Address.PinCode)
		}
		if upd.Address.Country != nil {
			add("address_country", *upd.Address.Country)
		}
	}

	query := fmt.Sprintf(`UPDATE doctors SET %s WHERE id = $1 RETURNING %s`,
		joinSets(sets), doctorCols)
	d, err := scanDoctor(r.pool.QueryRow(ctx, query, args...))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: doctor with this email already exists", apperr.ErrConflict)
	}
	return d, err
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: doctor", apperr.ErrNotFound)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+doctorCols+` FROM doctors ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SetLinkedUser is guarded so two concurrent registrations cannot both
// claim the same profile.
func (r *repoPG) SetLinkedUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE doctors SET user_id = $2, updated_at = NOW() WHERE id = $1 AND user_id IS NULL`,
		id, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account already linked to another profile", apperr.ErrConflict)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: doctor account already exists", apperr.ErrConflict)
	}
	return nil
}
