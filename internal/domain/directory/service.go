package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/validate"
)

var (
	ErrDuplicateLicense  = apperr.Conflict("duplicate_license", "a doctor with this license number already exists")
	ErrDuplicateUsername = apperr.Conflict("duplicate_username", "this username is already taken")
)

// Transactor runs fn atomically. The production value wraps db.RunInTx.
type Transactor func(ctx context.Context, fn func(ctx context.Context) error) error

// PatientRegistration is the validated input for creating a patient account.
type PatientRegistration struct {
	Username         string `json:"username" validate:"notblank,max=150"`
	Email            string `json:"email" validate:"required,email"`
	FirstName        string `json:"first_name" validate:"max=150"`
	LastName         string `json:"last_name" validate:"max=150"`
	Phone            string `json:"phone" validate:"max=15"`
	BloodGroup       string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact string `json:"emergency_contact" validate:"max=15"`
	MedicalHistory   string `json:"medical_history"`
	Allergies        string `json:"allergies"`
}

// DoctorRegistration is the validated input for creating a doctor account.
type DoctorRegistration struct {
	Username        string `json:"username" validate:"notblank,max=150"`
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Phone           string `json:"phone" validate:"max=15"`
	Specialty       string `json:"specialization" validate:"required"`
	LicenseNumber   string `json:"license_number" validate:"notblank,max=50"`
	ExperienceYears int    `json:"experience_years" validate:"gte=0"`
	ConsultationFee string `json:"consultation_fee"`
	Bio             string `json:"bio"`
}

type Service struct {
	users    UserRepository
	doctors  DoctorRepository
	patients PatientRepository
	inTx     Transactor
}

func NewService(users UserRepository, doctors DoctorRepository, patients PatientRepository, inTx Transactor) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	return &Service{users: users, doctors: doctors, patients: patients, inTx: inTx}
}

// -- Registration --

func (s *Service) RegisterPatient(ctx context.Context, reg PatientRegistration) (*User, *PatientProfile, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, nil, err
	}
	u := &User{
		Username:  strings.TrimSpace(reg.Username),
		Email:     reg.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Phone:     reg.Phone,
		Role:      RolePatient,
	}
	p := &PatientProfile{
		BloodGroup:       reg.BloodGroup,
		EmergencyContact: reg.EmergencyContact,
		MedicalHistory:   reg.MedicalHistory,
		Allergies:        reg.Allergies,
	}
	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		p.UserID = u.ID
		return s.patients.Create(ctx, p)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("register patient: %w", err)
	}
	return u, p, nil
}

func (s *Service) RegisterDoctor(ctx context.Context, reg DoctorRegistration) (*User, *DoctorProfile, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, nil, err
	}
	specialty := Specialty(reg.Specialty)
	if !specialty.Valid() {
		return nil, nil, apperr.Validation("specialization", fmt.Sprintf("unknown specialization %q", reg.Specialty))
	}
	fee := DefaultConsultationFee
	if reg.ConsultationFee != "" {
		parsed, err := decimal.NewFromString(reg.ConsultationFee)
		if err != nil || parsed.IsNegative() {
			return nil, nil, apperr.Validation("consultation_fee", "enter a valid non-negative amount")
		}
		fee = parsed.Round(2)
	}

	u := &User{
		Username:  strings.TrimSpace(reg.Username),
		Email:     reg.Email,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Phone:     reg.Phone,
		Role:      RoleDoctor,
	}
	d := &DoctorProfile{
		Specialty:       specialty,
		LicenseNumber:   strings.TrimSpace(reg.LicenseNumber),
		ExperienceYears: reg.ExperienceYears,
		ConsultationFee: fee,
		Bio:             reg.Bio,
		IsAvailable:     true,
	}
	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		d.UserID = u.ID
		return s.doctors.Create(ctx, d)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("register doctor: %w", err)
	}
	d.Name = u.FullName()
	return u, d, nil
}

// -- Lookups --

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorProfile, error) {
	return s.doctors.GetByID(ctx, id)
}

// ListDoctors lists available doctors, optionally by specialty.
func (s *Service) ListDoctors(ctx context.Context, specialty string, limit, offset int) ([]*DoctorProfile, int, error) {
	sp := Specialty(specialty)
	if sp != "" && !sp.Valid() {
		return nil, 0, apperr.Validation("specialization", fmt.Sprintf("unknown specialization %q", specialty))
	}
	return s.doctors.ListAvailable(ctx, sp, limit, offset)
}

// AvailableBySpecialty returns up to limit bookable doctors of a specialty.
func (s *Service) AvailableBySpecialty(ctx context.Context, specialty Specialty, limit int) ([]*DoctorProfile, error) {
	items, _, err := s.doctors.ListAvailable(ctx, specialty, limit, 0)
	return items, err
}

// SetAvailability flips the calling doctor's is_available flag.
func (s *Service) SetAvailability(ctx context.Context, actor Actor, available bool) (*DoctorProfile, error) {
	if !actor.IsDoctor() {
		return nil, apperr.ErrPermission
	}
	d, err := s.doctors.GetByID(ctx, actor.DoctorID)
	if err != nil {
		return nil, err
	}
	d.IsAvailable = available
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor availability: %w", err)
	}
	return d, nil
}

// -- Actor resolution --

// ResolveActor turns an authenticated identity into an Actor. The first
// role claim that names a known Role wins. Patients must have an account and
// doctors must own a profile.
func (s *Service) ResolveActor(ctx context.Context, userID string, roles []string) (Actor, error) {
	if userID == "" {
		return Actor{}, apperr.ErrUnauthenticated
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Actor{}, apperr.ErrUnauthenticated
	}

	role, ok := firstRole(roles)
	if !ok {
		return Actor{}, apperr.ErrPermission
	}

	actor := Actor{UserID: uid, Role: role}
	switch role {
	case RoleDoctor:
		d, err := s.doctors.GetByUserID(ctx, uid)
		if errors.Is(err, apperr.ErrNotFound) {
			return Actor{}, apperr.ErrPermission
		}
		if err != nil {
			return Actor{}, fmt.Errorf("resolve doctor profile: %w", err)
		}
		actor.DoctorID = d.ID
	case RolePatient:
		_, err := s.users.GetByID(ctx, uid)
		if errors.Is(err, apperr.ErrNotFound) {
			return Actor{}, apperr.ErrPermission
		}
		if err != nil {
			return Actor{}, fmt.Errorf("resolve patient: %w", err)
		}
	}
	return actor, nil
}

func firstRole(roles []string) (Role, bool) {
	for _, raw := range roles {
		if r, err := ParseRole(raw); err == nil {
			return r, true
		}
	}
	return "", false
}
