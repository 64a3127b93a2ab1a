package booking

import "github.com/smarthealth/clinic/internal/platform/apperr"

var (
	ErrPastDate              = apperr.Rule("past_date", "cannot book appointments in the past")
	ErrBookingWindowExceeded = apperr.Rule("booking_window_exceeded", "cannot book appointments that far in advance")
	ErrDoctorUnavailable     = apperr.Rule("doctor_unavailable", "the selected doctor is not accepting appointments")
	ErrSlotConflict          = apperr.Conflict("slot_conflict", "this time slot is already booked, please choose another")
	ErrNotEditable           = apperr.Rule("not_editable", "this appointment can no longer be edited")
	ErrNotCancellable        = apperr.Rule("not_cancellable", "this appointment can no longer be cancelled")
	ErrInvalidTransition     = apperr.Rule("invalid_transition", "the appointment cannot move to that status")
)
