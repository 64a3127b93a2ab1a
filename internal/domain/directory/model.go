package directory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the closed set of account types.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// ParseRole maps a token role claim to a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Specialty is one of the ten fixed medical specialties.
type Specialty string

const (
	GeneralPhysician Specialty = "general_physician"
	Cardiologist     Specialty = "cardiologist"
	Dermatologist    Specialty = "dermatologist"
	Pediatrician     Specialty = "pediatrician"
	Orthopedic       Specialty = "orthopedic"
	ENT              Specialty = "ent"
	Gastroenterology Specialty = "gastroenterology"
	Neurology        Specialty = "neurology"
	Psychiatry       Specialty = "psychiatry"
	Endocrinology    Specialty = "endocrinology"
)

// SpecialtyChoice is a specialty with its display label.
type SpecialtyChoice struct {
	Value   Specialty `json:"value"`
	Display string    `json:"display"`
}

var specialtyChoices = []SpecialtyChoice{
	{GeneralPhysician, "General Physician"},
	{Cardiologist, "Cardiologist"},
	{Dermatologist, "Dermatologist"},
	{Pediatrician, "Pediatrician"},
	{Orthopedic, "Orthopedic"},
	{ENT, "ENT"},
	{Gastroenterology, "Gastroenterology"},
	{Neurology, "Neurology"},
	{Psychiatry, "Psychiatry"},
	{Endocrinology, "Endocrinology"},
}

// Specialties returns all specialties in display order.
func Specialties() []SpecialtyChoice {
	out := make([]SpecialtyChoice, len(specialtyChoices))
	copy(out, specialtyChoices)
	return out
}

func (s Specialty) Valid() bool {
	for _, c := range specialtyChoices {
		if c.Value == s {
			return true
		}
	}
	return false
}

func (s Specialty) Display() string {
	for _, c := range specialtyChoices {
		if c.Value == s {
			return c.Display
		}
	}
	return string(s)
}

// DefaultConsultationFee applies when a doctor does not declare a fee.
var DefaultConsultationFee = decimal.RequireFromString("500.00")

// User maps to the app_user table.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Role      Role      `db:"role" json:"role"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName falls back to the username when no name is recorded.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// DoctorProfile maps to the doctor_profile table.
type DoctorProfile struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	Specialty       Specialty       `db:"specialization" json:"specialization"`
	LicenseNumber   string          `db:"license_number" json:"license_number"`
	ExperienceYears int             `db:"experience_years" json:"experience_years"`
	ConsultationFee decimal.Decimal `db:"consultation_fee" json:"consultation_fee"`
	Bio             string          `db:"bio" json:"bio,omitempty"`
	IsAvailable     bool            `db:"is_available" json:"is_available"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`

	// Name is joined from app_user for listings.
	Name string `db:"-" json:"name,omitempty"`
}

// PatientProfile maps to the patient_profile table.
type PatientProfile struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	BloodGroup       string    `db:"blood_group" json:"blood_group,omitempty"`
	EmergencyContact string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	MedicalHistory   string    `db:"medical_history" json:"medical_history,omitempty"`
	Allergies        string    `db:"allergies" json:"allergies,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Actor is the authenticated caller of a domain operation. DoctorID is set
// only for doctors.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	DoctorID uuid.UUID
}

func (a Actor) IsPatient() bool {
	switch a.Role {
	case RolePatient:
		return true
	case RoleDoctor:
		return false
	default:
		return false
	}
}

func (a Actor) IsDoctor() bool {
	switch a.Role {
	case RoleDoctor:
		return a.DoctorID != uuid.Nil
	case RolePatient:
		return false
	default:
		return false
	}
}
