package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/clinic/internal/domain/timeslot"
	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/db"
)

const activeSlotConstraint = "appointment_active_slot_key"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const apptCols = `id, patient_id, doctor_id, date, time_slot, status, reason, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.TimeSlot, &a.Status,
		&a.Reason, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, date, time_slot, status, reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.TimeSlot, a.Status, a.Reason, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, activeSlotConstraint) {
		return ErrSlotConflict
	}
	if db.IsForeignKeyViolation(err, "") {
		// patient or doctor row vanished after the caller was resolved
		return apperr.ErrPermission
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE appointment SET date=$2, time_slot=$3, status=$4, reason=$5, notes=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Date, a.TimeSlot, a.Status, a.Reason, a.Notes,
	).Scan(&a.UpdatedAt)
	if db.IsUniqueViolation(err, activeSlotConstraint) {
		return ErrSlotConflict
	}
	if db.IsNoRows(err) {
		return apperr.ErrNotFound
	}
	return err
}

func (r *repoPG) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeslot.Slot, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT time_slot FROM appointment
		WHERE doctor_id = $1 AND date = $2 AND status IN ('pending', 'confirmed')`,
		doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []timeslot.Slot
	for rows.Next() {
		var s timeslot.Slot
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *repoPG) SlotTaken(ctx context.Context, key SlotKey, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment
			WHERE doctor_id = $1 AND date = $2 AND time_slot = $3
			  AND status IN ('pending', 'confirmed') AND id <> $4)`,
		key.DoctorID, key.Date, key.Slot, excludeID).Scan(&taken)
	return taken, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var (
		clauses []string
		args    []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if f.PatientID != uuid.Nil {
		add("patient_id = $%d", f.PatientID)
	}
	if f.DoctorID != uuid.Nil {
		add("doctor_id = $%d", f.DoctorID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + ` FROM appointment` + where +
		fmt.Sprintf(` ORDER BY date DESC, time_slot DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := conn.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByStatusOn(ctx context.Context, date time.Time, status Status) ([]*Appointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE date = $1 AND status = $2 ORDER BY time_slot`,
		date, status)
	if err != nil {
		return nil, err
	}
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
