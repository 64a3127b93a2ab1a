package validate

import (
	"errors"
	"testing"

	"github.com/smarthealth/clinic/internal/platform/apperr"
)

type bookingForm struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason   string `json:"reason" validate:"notblank"`
	Email    string `json:"email" validate:"omitempty,email"`
	Blood    string `json:"blood_group" validate:"omitempty,oneof=A+ A- O+ O-"`
}

func validForm() bookingForm {
	return bookingForm{
		DoctorID: "0b7c8a46-7a62-4f5e-9b55-3f3cf4a6f001",
		Date:     "2026-05-04",
		Reason:   "follow-up",
	}
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(validForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_ReportsJSONFieldName(t *testing.T) {
	f := validForm()
	f.Reason = "   "
	err := Struct(f)
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *apperr.ValidationError, got %T", err)
	}
	if ve.Field != "reason" {
		t.Errorf("expected field reason, got %q", ve.Field)
	}
	if ve.Message != "this field is required" {
		t.Errorf("unexpected message %q", ve.Message)
	}
}

func TestStruct_Failures(t *testing.T) {
	cases := map[string]func(*bookingForm){
		"doctor_id":   func(f *bookingForm) { f.DoctorID = "nope" },
		"date":        func(f *bookingForm) { f.Date = "04/05/2026" },
		"email":       func(f *bookingForm) { f.Email = "not-an-email" },
		"blood_group": func(f *bookingForm) { f.Blood = "C+" },
	}
	for field, mutate := range cases {
		f := validForm()
		mutate(&f)
		var ve *apperr.ValidationError
		if err := Struct(f); !errors.As(err, &ve) || ve.Field != field {
			t.Errorf("expected validation error on %s, got %v", field, err)
		}
	}
}

func TestEchoValidator(t *testing.T) {
	f := validForm()
	f.DoctorID = ""
	if err := (EchoValidator{}).Validate(f); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
