package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %q: %s", e.Field, e.Message)
}

// Validator provides configuration validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: []ValidationError{},
	}
}

// RequireNonEmpty validates that a string field is not empty
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: "value cannot be empty",
		})
	}
	return v
}

// RequirePositive validates that an integer field is greater than 0
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be positive, got %d", value),
		})
	}
	return v
}

// RequireNotNil validates that a required dependency was injected
func (v *Validator) RequireNotNil(field string, value any) *Validator {
	if value == nil {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: "value cannot be nil",
		})
	}
	return v
}

// ValidateRange validates that an integer field is within a range [min, max]
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value must be between %d and %d, got %d", min, max, value),
		})
	}
	return v
}

// Err returns nil when validation passed, or all collected errors joined.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	errs := make([]error, len(v.errors))
	for i, e := range v.errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
