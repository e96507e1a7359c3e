package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type sample struct {
	LeadID string `json:"lead_id" validate:"required,uuid"`
}

type colored struct {
	Color *string `json:"color" validate:"omitempty,primary"`
}

func TestFieldsUsesJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(sample{})
	fields := Fields(err)
	if len(fields) != 1 {
		t.Fatalf("expected one field error, got %#v", fields)
	}
	if fields[0].Field != "lead_id" || fields[0].Rule != "required" {
		t.Fatalf("unexpected field error %#v", fields[0])
	}
}

func TestRegisterValidation(t *testing.T) {
	v := New()
	if err := v.RegisterValidation("primary", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "red", "green", "blue":
			return true
		}
		return false
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	bad := "purple"
	err := v.Struct(colored{Color: &bad})
	if err == nil {
		t.Fatalf("expected custom rule to reject %q", bad)
	}

	good := "red"
	if err := v.Struct(colored{Color: &good}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	if Fields(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
