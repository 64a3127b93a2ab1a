package availability

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *TimeSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*TimeSlot, error)
	Exists(ctx context.Context, doctorID uuid.UUID, day Weekday, start string) (bool, error)
	SetAvailable(ctx context.Context, id uuid.UUID, available bool) error
	// ListByDoctor returns the doctor's template ordered by (day, start).
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*TimeSlot, error)
}
