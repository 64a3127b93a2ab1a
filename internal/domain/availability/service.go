package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/domain/timeslot"
	"github.com/smarthealth/clinic/internal/platform/apperr"
)

var ErrDuplicateSlot = apperr.Conflict("duplicate_slot", "this time slot already exists for the doctor")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// DefineSlot adds a weekly opening to the calling doctor's template.
func (s *Service) DefineSlot(ctx context.Context, actor directory.Actor, day Weekday, start string) (*TimeSlot, error) {
	if !actor.IsDoctor() {
		return nil, apperr.ErrPermission
	}
	if !day.Valid() {
		return nil, apperr.Validation("day_of_week", fmt.Sprintf("day_of_week must be between 0 and 6, got %d", day))
	}
	slot, err := timeslot.Parse(start)
	if err != nil {
		return nil, apperr.Validation("start_time", err.Error())
	}

	exists, err := s.repo.Exists(ctx, actor.DoctorID, day, string(slot))
	if err != nil {
		return nil, fmt.Errorf("check time slot: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSlot
	}

	t := &TimeSlot{DoctorID: actor.DoctorID, DayOfWeek: day, StartTime: slot, IsAvailable: true}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create time slot: %w", err)
	}
	return t, nil
}

// ToggleAvailability opens or closes a template slot. Existing
// appointments are left alone.
func (s *Service) ToggleAvailability(ctx context.Context, actor directory.Actor, id uuid.UUID, available bool) (*TimeSlot, error) {
	if !actor.IsDoctor() {
		return nil, apperr.ErrPermission
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.DoctorID != actor.DoctorID {
		return nil, apperr.ErrPermission
	}
	if t.IsAvailable == available {
		return t, nil
	}
	if err := s.repo.SetAvailable(ctx, id, available); err != nil {
		return nil, fmt.Errorf("update time slot: %w", err)
	}
	t.IsAvailable = available
	return t, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*TimeSlot, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}
