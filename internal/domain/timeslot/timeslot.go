// Package timeslot holds the clinic's canonical daily schedule: fourteen
// half-hour start times across a morning and an afternoon shift.
package timeslot

import (
	"fmt"
	"time"
)

// Slot is one fixed start time, encoded as "HH:MM".
type Slot string

// Choice pairs a slot value with its display label. It is the wire shape
// consumed by the slot picker.
type Choice struct {
	Value   Slot   `json:"value"`
	Display string `json:"display"`
}

var choices = []Choice{
	{"09:00", "09:00 AM"},
	{"09:30", "09:30 AM"},
	{"10:00", "10:00 AM"},
	{"10:30", "10:30 AM"},
	{"11:00", "11:00 AM"},
	{"11:30", "11:30 AM"},
	{"12:00", "12:00 PM"},
	{"14:00", "02:00 PM"},
	{"14:30", "02:30 PM"},
	{"15:00", "03:00 PM"},
	{"15:30", "03:30 PM"},
	{"16:00", "04:00 PM"},
	{"16:30", "04:30 PM"},
	{"17:00", "05:00 PM"},
}

var index = func() map[Slot]int {
	m := make(map[Slot]int, len(choices))
	for i, c := range choices {
		m[c.Value] = i
	}
	return m
}()

// All returns every slot choice in chronological order. The returned slice is
// a copy.
func All() []Choice {
	out := make([]Choice, len(choices))
	copy(out, choices)
	return out
}

// Count is the number of slots in a day.
func Count() int { return len(choices) }

// Valid reports whether s belongs to the canonical schedule.
func (s Slot) Valid() bool {
	_, ok := index[s]
	return ok
}

// Display returns the label for s, or the raw value for unknown slots.
func (s Slot) Display() string {
	if i, ok := index[s]; ok {
		return choices[i].Display
	}
	return string(s)
}

// Order returns the chronological position of s, or -1.
func (s Slot) Order() int {
	if i, ok := index[s]; ok {
		return i
	}
	return -1
}

// Parse validates a raw slot value.
func Parse(raw string) (Slot, error) {
	s := Slot(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown time slot %q", raw)
	}
	return s, nil
}

// At combines a calendar date with the slot's wall-clock time in loc.
func (s Slot) At(date time.Time, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", string(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time slot %q: %w", s, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}
