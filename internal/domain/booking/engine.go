package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/domain/timeslot"
	"github.com/smarthealth/clinic/internal/platform/apperr"
	"github.com/smarthealth/clinic/internal/platform/validate"
)

// DefaultWindowDays is how far ahead patients may book.
const DefaultWindowDays = 30

// DoctorDirectory is the part of the directory the engine reads.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*directory.DoctorProfile, error)
}

// BookingRequest is a patient's request for a new appointment.
type BookingRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"time_slot" validate:"required"`
	Reason   string `json:"reason" validate:"notblank"`
}

// EditRequest reschedules an appointment or changes its reason.
type EditRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `json:"time_slot" validate:"required"`
	Reason   string `json:"reason" validate:"notblank"`
}

// StatusUpdate is a doctor's status change. A nil Notes keeps the current
// notes.
type StatusUpdate struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

type Engine struct {
	repo       Repository
	doctors    DoctorDirectory
	clock      Clock
	windowDays int
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithWindowDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.windowDays = days
		}
	}
}

func NewEngine(repo Repository, doctors DoctorDirectory, opts ...Option) *Engine {
	e := &Engine{
		repo:       repo,
		doctors:    doctors,
		clock:      NewClock(time.UTC, nil),
		windowDays: DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Clock() Clock { return e.clock }

// AvailableSlots returns the slots of date not held by an active
// appointment, in chronological order. The doctor's weekly template is not
// consulted. Unknown doctors yield apperr.ErrNotFound.
func (e *Engine) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeslot.Choice, error) {
	if _, err := e.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	booked, err := e.repo.BookedSlots(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}
	taken := make(map[timeslot.Slot]bool, len(booked))
	for _, s := range booked {
		taken[s] = true
	}
	free := make([]timeslot.Choice, 0, timeslot.Count())
	for _, c := range timeslot.All() {
		if !taken[c.Value] {
			free = append(free, c)
		}
	}
	return free, nil
}

// Book creates a pending appointment for the calling patient.
func (e *Engine) Book(ctx context.Context, actor directory.Actor, req BookingRequest) (*Appointment, error) {
	if !actor.IsPatient() {
		return nil, apperr.ErrPermission
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	doctorID, _ := uuid.Parse(req.DoctorID)
	date, slot, err := parseDateSlot(req.Date, req.TimeSlot)
	if err != nil {
		return nil, err
	}

	if err := e.checkDate(date); err != nil {
		return nil, err
	}
	if err := e.checkDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	key := SlotKey{DoctorID: doctorID, Date: date, Slot: slot}
	if err := e.checkFree(ctx, key, uuid.Nil); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID: actor.UserID,
		DoctorID:  doctorID,
		Date:      date,
		TimeSlot:  slot,
		Status:    StatusPending,
		Reason:    strings.TrimSpace(req.Reason),
	}
	if err := e.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return a, nil
}

// Edit lets the booking patient move an upcoming appointment or change its
// reason.
func (e *Engine) Edit(ctx context.Context, actor directory.Actor, id uuid.UUID, req EditRequest) (*Appointment, error) {
	a, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.isPatientOf(actor, a) {
		return nil, apperr.ErrPermission
	}
	if !e.modifiable(a) {
		return nil, ErrNotEditable
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	date, slot, err := parseDateSlot(req.Date, req.TimeSlot)
	if err != nil {
		return nil, err
	}
	if err := e.checkDate(date); err != nil {
		return nil, err
	}
	key := SlotKey{DoctorID: a.DoctorID, Date: date, Slot: slot}
	if err := e.checkFree(ctx, key, a.ID); err != nil {
		return nil, err
	}

	a.Date = date
	a.TimeSlot = slot
	a.Reason = strings.TrimSpace(req.Reason)
	if err := e.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return a, nil
}

// Cancel is open to the booking patient and the assigned doctor.
func (e *Engine) Cancel(ctx context.Context, actor directory.Actor, id uuid.UUID) (*Appointment, error) {
	a, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.isPatientOf(actor, a) && !e.isDoctorOf(actor, a) {
		return nil, apperr.ErrPermission
	}
	if !e.modifiable(a) {
		return nil, ErrNotCancellable
	}
	a.Status = StatusCancelled
	if err := e.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	return a, nil
}

// UpdateStatus moves an appointment along the status graph on behalf of its
// doctor. Requesting the current status of an active appointment only updates
// the notes. Completed and cancelled appointments accept no update.
func (e *Engine) UpdateStatus(ctx context.Context, actor directory.Actor, id uuid.UUID, upd StatusUpdate) (*Appointment, error) {
	a, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.isDoctorOf(actor, a) {
		return nil, apperr.ErrPermission
	}
	next, err := ParseStatus(upd.Status)
	if err != nil {
		return nil, apperr.Validation("status", err.Error())
	}
	if a.Status.Terminal() {
		return nil, ErrInvalidTransition
	}
	if next != a.Status && !a.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	a.Status = next
	if upd.Notes != nil {
		a.Notes = *upd.Notes
	}
	if err := e.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return a, nil
}

// Get returns an appointment visible to actor.
func (e *Engine) Get(ctx context.Context, actor directory.Actor, id uuid.UUID) (*Appointment, error) {
	a, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.isPatientOf(actor, a) && !e.isDoctorOf(actor, a) {
		return nil, apperr.ErrPermission
	}
	return a, nil
}

// List returns the actor's own appointments, newest first. An empty status
// lists all.
func (e *Engine) List(ctx context.Context, actor directory.Actor, status string, limit, offset int) ([]*Appointment, int, error) {
	var f Filter
	switch {
	case actor.IsPatient():
		f.PatientID = actor.UserID
	case actor.IsDoctor():
		f.DoctorID = actor.DoctorID
	default:
		return nil, 0, apperr.ErrPermission
	}
	if status != "" {
		s, err := ParseStatus(status)
		if err != nil {
			return nil, 0, apperr.Validation("status", err.Error())
		}
		f.Status = s
	}
	return e.repo.List(ctx, f, limit, offset)
}

// -- rules --

func parseDateSlot(rawDate, rawSlot string) (time.Time, timeslot.Slot, error) {
	date, err := ParseDate(rawDate)
	if err != nil {
		return time.Time{}, "", apperr.Validation("date", "enter a valid date (YYYY-MM-DD)")
	}
	slot, err := timeslot.Parse(rawSlot)
	if err != nil {
		return time.Time{}, "", apperr.Validation("time_slot", err.Error())
	}
	return date, slot, nil
}

func (e *Engine) checkDate(date time.Time) error {
	today := e.clock.Today()
	if date.Before(today) {
		return ErrPastDate
	}
	if date.After(today.AddDate(0, 0, e.windowDays)) {
		return ErrBookingWindowExceeded
	}
	return nil
}

func (e *Engine) checkDoctor(ctx context.Context, id uuid.UUID) error {
	d, err := e.doctors.GetDoctor(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrDoctorUnavailable
	}
	if err != nil {
		return fmt.Errorf("load doctor: %w", err)
	}
	if !d.IsAvailable {
		return ErrDoctorUnavailable
	}
	return nil
}

func (e *Engine) checkFree(ctx context.Context, key SlotKey, excludeID uuid.UUID) error {
	taken, err := e.repo.SlotTaken(ctx, key, excludeID)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return ErrSlotConflict
	}
	return nil
}

// modifiable holds for active appointments that have not started yet.
func (e *Engine) modifiable(a *Appointment) bool {
	return a.Status.Active() && e.clock.Upcoming(a.Date, a.TimeSlot)
}

func (e *Engine) isPatientOf(actor directory.Actor, a *Appointment) bool {
	return actor.IsPatient() && actor.UserID == a.PatientID
}

func (e *Engine) isDoctorOf(actor directory.Actor, a *Appointment) bool {
	return actor.IsDoctor() && actor.DoctorID == a.DoctorID
}
