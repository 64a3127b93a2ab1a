package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/clinic/internal/domain/timeslot"
)

type Repository interface {
	// Create inserts an appointment. An active appointment on the same triple
	// yields ErrSlotConflict.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Update persists date, slot, status, reason and notes. Moving onto an
	// occupied triple yields ErrSlotConflict.
	Update(ctx context.Context, a *Appointment) error
	// BookedSlots returns the slots held by active appointments.
	BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeslot.Slot, error)
	// SlotTaken reports whether an active appointment other than excludeID
	// holds the triple.
	SlotTaken(ctx context.Context, key SlotKey, excludeID uuid.UUID) (bool, error)
	// List orders by date desc, time_slot desc.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	ListByStatusOn(ctx context.Context, date time.Time, status Status) ([]*Appointment, error)
}
