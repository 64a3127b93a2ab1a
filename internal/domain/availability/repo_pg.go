package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const cols = `id, doctor_id, day_of_week, start_time, is_available`

func (r *repoPG) Create(ctx context.Context, t *TimeSlot) error {
	t.ID = uuid.New()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO time_slot (`+cols+`) VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.DoctorID, t.DayOfWeek, t.StartTime, t.IsAvailable)
	if db.IsUniqueViolation(err, "time_slot_doctor_day_start_key") {
		return ErrDuplicateSlot
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*TimeSlot, error) {
	var t TimeSlot
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM time_slot WHERE id = $1`, id).
		Scan(&t.ID, &t.DoctorID, &t.DayOfWeek, &t.StartTime, &t.IsAvailable)
	if db.IsNoRows(err) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get time slot %s: %w", id, err)
	}
	return &t, nil
}

func (r *repoPG) Exists(ctx context.Context, doctorID uuid.UUID, day Weekday, start string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM time_slot WHERE doctor_id = $1 AND day_of_week = $2 AND start_time = $3)`,
		doctorID, day, start).Scan(&exists)
	return exists, err
}

func (r *repoPG) SetAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `UPDATE time_slot SET is_available = $2 WHERE id = $1`, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*TimeSlot, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+cols+` FROM time_slot WHERE doctor_id = $1 ORDER BY day_of_week, start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TimeSlot
	for rows.Next() {
		var t TimeSlot
		if err := rows.Scan(&t.ID, &t.DoctorID, &t.DayOfWeek, &t.StartTime, &t.IsAvailable); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}
