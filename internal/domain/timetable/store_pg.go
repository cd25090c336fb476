package timetable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caredesk/caredesk/internal/domain/directory"
	"github.com/caredesk/caredesk/internal/platform/apperr"
)

type storePG struct{ pool *pgxpool.Pool }

func NewStorePG(pool *pgxpool.Pool) Store { return &storePG{pool: pool} }

func (s *storePG) Get(ctx context.Context, doctorID uuid.UUID, key string) (*directory.DaySchedule, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT timetable -> $2 FROM doctors WHERE id = $1`, doctorID, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: doctor", apperr.ErrNotFound)
		}
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var sched directory.DaySchedule
	if err := json.Unmarshal(raw, &sched); err != nil {
		return nil, fmt.Errorf("decode timetable entry: %w", err)
	}
	return &sched, nil
}

// SetDay rebuilds the map from entries at or after cutoff and merges
// the new entry in, all in one guarded statement. Lexicographic key
// comparison matches date order for YYYY-MM-DD keys.
func (s *storePG) SetDay(ctx context.Context, doctorID uuid.UUID, key string, sched directory.DaySchedule, cutoff string) error {
	entry, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("encode timetable entry: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE doctors
		SET timetable = COALESCE(
				(SELECT jsonb_object_agg(t.key, t.value)
				 FROM jsonb_each(timetable) AS t
				 WHERE t.key >= $3),
				'{}'::jsonb
			) || jsonb_build_object($2::text, $4::jsonb),
			updated_at = NOW()
		WHERE id = $1`,
		doctorID, key, cutoff, entry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: doctor", apperr.ErrNotFound)
	}
	return nil
}
