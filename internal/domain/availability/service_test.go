package availability

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	slots map[uuid.UUID]*TimeSlot
	// skipExists simulates a concurrent insert racing past the pre-check.
	skipExists bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{slots: make(map[uuid.UUID]*TimeSlot)}
}

func (m *mockRepo) Create(_ context.Context, t *TimeSlot) error {
	for _, s := range m.slots {
		if s.DoctorID == t.DoctorID && s.DayOfWeek == t.DayOfWeek && s.StartTime == t.StartTime {
			return ErrDuplicateSlot
		}
	}
	t.ID = uuid.New()
	m.slots[t.ID] = t
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*TimeSlot, error) {
	t, ok := m.slots[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) Exists(_ context.Context, doctorID uuid.UUID, day Weekday, start string) (bool, error) {
	if m.skipExists {
		return false, nil
	}
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.DayOfWeek == day && string(s.StartTime) == start {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) SetAvailable(_ context.Context, id uuid.UUID, available bool) error {
	t, ok := m.slots[id]
	if !ok {
		return apperr.ErrNotFound
	}
	t.IsAvailable = available
	return nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*TimeSlot, error) {
	var result []*TimeSlot
	for _, s := range m.slots {
		if s.DoctorID == doctorID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func doctorActor() directory.Actor {
	return directory.Actor{UserID: uuid.New(), Role: directory.RoleDoctor, DoctorID: uuid.New()}
}

func TestService_DefineSlot(t *testing.T) {
	s := NewService(newMockRepo())
	doc := doctorActor()

	slot, err := s.DefineSlot(context.Background(), doc, Monday, "09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot.DoctorID != doc.DoctorID || !slot.IsAvailable {
		t.Errorf("unexpected slot: %+v", slot)
	}
	if slot.Label() != "Monday 09:00 AM" {
		t.Errorf("unexpected label %q", slot.Label())
	}
}

func TestService_DefineSlot_Duplicate(t *testing.T) {
	s := NewService(newMockRepo())
	doc := doctorActor()
	if _, err := s.DefineSlot(context.Background(), doc, Monday, "09:00"); err != nil {
		t.Fatalf("first define: %v", err)
	}
	_, err := s.DefineSlot(context.Background(), doc, Monday, "09:00")
	if !errors.Is(err, ErrDuplicateSlot) {
		t.Errorf("expected ErrDuplicateSlot, got %v", err)
	}

	// Another doctor may use the same day and time.
	if _, err := s.DefineSlot(context.Background(), doctorActor(), Monday, "09:00"); err != nil {
		t.Errorf("unexpected error for other doctor: %v", err)
	}
}

func TestService_DefineSlot_DuplicateFromStorage(t *testing.T) {
	repo := newMockRepo()
	s := NewService(repo)
	doc := doctorActor()
	if _, err := s.DefineSlot(context.Background(), doc, Friday, "14:00"); err != nil {
		t.Fatalf("first define: %v", err)
	}
	repo.skipExists = true
	_, err := s.DefineSlot(context.Background(), doc, Friday, "14:00")
	if !errors.Is(err, ErrDuplicateSlot) {
		t.Errorf("expected ErrDuplicateSlot from storage, got %v", err)
	}
}

func TestService_DefineSlot_Validation(t *testing.T) {
	s := NewService(newMockRepo())
	doc := doctorActor()
	tests := []struct {
		name  string
		day   Weekday
		start string
		field string
	}{
		{"day too large", 7, "09:00", "day_of_week"},
		{"negative day", -1, "09:00", "day_of_week"},
		{"lunch break", Monday, "13:00", "start_time"},
		{"bad format", Monday, "9am", "start_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.DefineSlot(context.Background(), doc, tt.day, tt.start)
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestService_DefineSlot_PatientForbidden(t *testing.T) {
	s := NewService(newMockRepo())
	patient := directory.Actor{UserID: uuid.New(), Role: directory.RolePatient}
	_, err := s.DefineSlot(context.Background(), patient, Monday, "09:00")
	if !errors.Is(err, apperr.ErrPermission) {
		t.Errorf("expected ErrPermission, got %v", err)
	}
}

func TestService_ToggleAvailability(t *testing.T) {
	s := NewService(newMockRepo())
	doc := doctorActor()
	slot, _ := s.DefineSlot(context.Background(), doc, Tuesday, "10:30")

	got, err := s.ToggleAvailability(context.Background(), doc, slot.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsAvailable {
		t.Error("expected slot to be closed")
	}

	_, err = s.ToggleAvailability(context.Background(), doctorActor(), slot.ID, true)
	if !errors.Is(err, apperr.ErrPermission) {
		t.Errorf("expected ErrPermission for another doctor, got %v", err)
	}

	_, err = s.ToggleAvailability(context.Background(), doc, uuid.New(), true)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ListForDoctor_Ordered(t *testing.T) {
	s := NewService(newMockRepo())
	doc := doctorActor()
	s.DefineSlot(context.Background(), doc, Wednesday, "09:00")
	s.DefineSlot(context.Background(), doc, Monday, "14:00")
	s.DefineSlot(context.Background(), doc, Monday, "09:30")

	items, err := s.ListForDoctor(context.Background(), doc.DoctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Monday 09:30 AM", "Monday 02:00 PM", "Wednesday 09:00 AM"}
	if len(items) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(items))
	}
	for i, w := range want {
		if items[i].Label() != w {
			t.Errorf("position %d: expected %q, got %q", i, w, items[i].Label())
		}
	}
}

func TestWeekday_String(t *testing.T) {
	if Sunday.String() != "Sunday" {
		t.Errorf("unexpected %q", Sunday.String())
	}
	if Weekday(9).String() != "Weekday(9)" {
		t.Errorf("unexpected %q", Weekday(9).String())
	}
}
