package core

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"designkit/internal/types"
)

// Validator wraps go-playground/validator so handlers translate struct tag
// failures into the standard AppError shape.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with struct tag validation enabled.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateStruct validates the given struct against its `validate` tags.
// Failures are returned as a *types.AppError with code
// "validation_invalid_field" and a per-field details map. A missing required
// field uses the dedicated missing-field code when it is the only failure.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	details := make(map[string]any, len(verrs))
	allRequired := true
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			details[fe.Field()] = "is required"
		} else {
			details[fe.Field()] = "failed rule: " + fe.Tag()
			allRequired = false
		}
	}

	code := types.ErrCodeValidationInvalidField
	if allRequired {
		code = types.ErrCodeValidationMissingField
	}
	return types.NewAppErrorWithDetails(code, "request validation failed", err, details)
}
