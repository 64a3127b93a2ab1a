package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/db"
)

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

const userCols = `id, username, email, first_name, last_name, role, phone, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO app_user (id, username, email, first_name, last_name, role, phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.Role, u.Phone,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if db.IsUniqueViolation(err, "") {
		return ErrDuplicateUsername
	}
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorCols = `d.id, d.user_id, d.specialization, d.license_number, d.experience_years,
	d.consultation_fee, d.bio, d.is_available, d.created_at,
	TRIM(u.first_name || ' ' || u.last_name)`

const doctorFrom = ` FROM doctor_profile d JOIN app_user u ON u.id = d.user_id`

func scanDoctor(row pgx.Row) (*DoctorProfile, error) {
	var d DoctorProfile
	err := row.Scan(&d.ID, &d.UserID, &d.Specialty, &d.LicenseNumber, &d.ExperienceYears,
		&d.ConsultationFee, &d.Bio, &d.IsAvailable, &d.CreatedAt, &d.Name)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *DoctorProfile) error {
	d.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctor_profile (id, user_id, specialization, license_number, experience_years,
			consultation_fee, bio, is_available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		d.ID, d.UserID, d.Specialty, d.LicenseNumber, d.ExperienceYears,
		d.ConsultationFee, d.Bio, d.IsAvailable,
	).Scan(&d.CreatedAt)
	if db.IsUniqueViolation(err, "doctor_profile_license_number_key") {
		return ErrDuplicateLicense
	}
	return err
}

func (r *doctorRepoPG) get(ctx context.Context, where string, arg interface{}) (*DoctorProfile, error) {
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+doctorCols+doctorFrom+` WHERE `+where, arg))
	if db.IsNoRows(err) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return r.get(ctx, `d.id = $1`, id)
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	return r.get(ctx, `d.user_id = $1`, userID)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *DoctorProfile) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE doctor_profile SET specialization=$2, experience_years=$3, consultation_fee=$4,
			bio=$5, is_available=$6
		WHERE id = $1`,
		d.ID, d.Specialty, d.ExperienceYears, d.ConsultationFee, d.Bio, d.IsAvailable)
	return err
}

func (r *doctorRepoPG) ListAvailable(ctx context.Context, specialty Specialty, limit, offset int) ([]*DoctorProfile, int, error) {
	where := ` WHERE d.is_available`
	var args []interface{}
	if specialty != "" {
		where += ` AND d.specialization = $1`
		args = append(args, specialty)
	}

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*)`+doctorFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + doctorCols + doctorFrom + where +
		fmt.Sprintf(` ORDER BY d.specialization, u.first_name LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := conn.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DoctorProfile
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) Create(ctx context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patient_profile (id, user_id, blood_group, emergency_contact, medical_history, allergies)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		p.ID, p.UserID, p.BloodGroup, p.EmergencyContact, p.MedicalHistory, p.Allergies,
	).Scan(&p.CreatedAt)
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, blood_group, emergency_contact, medical_history, allergies, created_at
		FROM patient_profile WHERE user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.BloodGroup, &p.EmergencyContact, &p.MedicalHistory, &p.Allergies, &p.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient profile: %w", err)
	}
	return &p, nil
}
