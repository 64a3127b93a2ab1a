package availability

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/smarthealth/clinic/internal/domain/timeslot"
)

// Weekday numbers the week from Monday = 0 to Sunday = 6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// TimeSlot maps to the time_slot table: one recurring weekly opening of a
// doctor.
type TimeSlot struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	DoctorID    uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   Weekday       `db:"day_of_week" json:"day_of_week"`
	StartTime   timeslot.Slot `db:"start_time" json:"start_time"`
	IsAvailable bool          `db:"is_available" json:"is_available"`
}

// Label renders the slot as "Monday 09:00 AM".
func (t *TimeSlot) Label() string {
	return t.DayOfWeek.String() + " " + t.StartTime.Display()
}
