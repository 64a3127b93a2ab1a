package booking

import (
	"time"

	"github.com/smarthealth/clinic/internal/domain/timeslot"
)

// Clock answers "today" and "upcoming" questions in the clinic's location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Clock{loc: loc, now: now}
}

func (c Clock) Now() time.Time { return c.now().In(c.loc) }

func (c Clock) Location() *time.Location { return c.loc }

// Today is the current calendar date at the clinic as a midnight-UTC value,
// comparable with dates read by ParseDate.
func (c Clock) Today() time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Upcoming reports whether date at slot is strictly after now.
func (c Clock) Upcoming(date time.Time, slot timeslot.Slot) bool {
	at, err := slot.At(date, c.loc)
	if err != nil {
		return false
	}
	return at.After(c.now())
}
