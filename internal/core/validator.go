package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"meteo/internal/types"
)

// Validator checks request DTOs against their `validate` tags and reports
// failures as a validation AppError listing each field.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator. Field names in reports come from the json
// tag so they match what the client sent.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// FieldError describes one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidateStruct returns nil when s satisfies its tags. Otherwise the error
// is a validation_invalid_payload AppError whose details carry the fields.
func (v *Validator) ValidateStruct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.NewAppError(types.ErrCodeValidationInvalidPayload, "invalid request", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		names = append(names, fe.Field())
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidPayload,
		fmt.Sprintf("invalid fields: %s", strings.Join(names, ", ")),
		err,
		map[string]any{"fields": fields},
	)
}
