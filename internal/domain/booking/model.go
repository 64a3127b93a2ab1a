package booking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/clinic/internal/domain/timeslot"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed next states. Terminal states have none.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("unknown appointment status %q", raw)
	}
	return s, nil
}

// Active statuses occupy their slot.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed:
		return true
	case StatusCompleted, StatusCancelled:
		return false
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return !s.Active()
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DateLayout is the wire and storage format of appointment dates.
const DateLayout = "2006-01-02"

// ParseDate reads a calendar date. The result is midnight UTC and carries no
// zone meaning.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, raw)
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	PatientID uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	Date      time.Time     `db:"date" json:"date"`
	TimeSlot  timeslot.Slot `db:"time_slot" json:"time_slot"`
	Status    Status        `db:"status" json:"status"`
	Reason    string        `db:"reason" json:"reason"`
	Notes     string        `db:"notes" json:"notes"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

func (a *Appointment) MarshalJSON() ([]byte, error) {
	type alias Appointment
	return json.Marshal(struct {
		*alias
		Date        string `json:"date"`
		TimeDisplay string `json:"time_display"`
	}{
		alias:       (*alias)(a),
		Date:        a.Date.Format(DateLayout),
		TimeDisplay: a.TimeSlot.Display(),
	})
}

// SlotKey identifies one bookable (doctor, date, slot) triple.
type SlotKey struct {
	DoctorID uuid.UUID
	Date     time.Time
	Slot     timeslot.Slot
}

func (a *Appointment) Key() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.Date, Slot: a.TimeSlot}
}

// Filter narrows appointment listings. Exactly one of PatientID and DoctorID
// is set by the engine.
type Filter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    Status
}
