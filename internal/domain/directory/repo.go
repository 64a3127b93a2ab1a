package directory

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *DoctorProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*DoctorProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	Update(ctx context.Context, d *DoctorProfile) error
	// ListAvailable returns doctors with is_available set, optionally filtered
	// by specialty (empty means all).
	ListAvailable(ctx context.Context, specialty Specialty, limit, offset int) ([]*DoctorProfile, int, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *PatientProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
}
