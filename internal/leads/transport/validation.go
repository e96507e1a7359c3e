package transport

import (
	"lead_capture_backend/internal/leads/domain"
	"lead_capture_backend/internal/shared/normalize"
	"lead_capture_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// RegisterValidators adds the lead-specific rules used by the request DTOs:
// "intent" (Hot, Warm, Cold) and "sizebucket" (the company size buckets).
func RegisterValidators(v *validator.Validator) error {
	if err := v.RegisterValidation("intent", func(fl playground.FieldLevel) bool {
		_, ok := domain.ParseIntent(fl.Field().String())
		return ok
	}); err != nil {
		return err
	}
	return v.RegisterValidation("sizebucket", func(fl playground.FieldLevel) bool {
		return normalize.IsSizeBucket(fl.Field().String())
	})
}
