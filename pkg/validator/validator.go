// Package validator provides struct validation for replytune configuration
// and API requests. It wraps go-playground/validator with the project's
// custom rules and readable error messages.
package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ============================================================================
// Validator Instance
// ============================================================================

// Validator wraps go-playground validator with custom rules
type Validator struct {
	validator *validator.Validate
}

// New creates a new validator instance with custom rules. Field names in
// errors follow the mapstructure tag, then the json tag.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	registerCustomValidations(v)

	return &Validator{validator: v}
}

// Validate validates a struct based on tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// ValidateVar validates a single variable
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	if err := v.validator.Var(field, tag); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// ============================================================================
// Custom Validation Rules
// ============================================================================

var snapshotNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

func registerCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation("snapshot_name", validateSnapshotName)
	_ = v.RegisterValidation("not_blank", validateNotBlank)
}

// validateSnapshotName accepts a single safe path segment
func validateSnapshotName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return snapshotNamePattern.MatchString(name) && !strings.Contains(name, "..")
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// ============================================================================
// Error Formatting
// ============================================================================

// ValidationError represents a formatted validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
}

// FormattedValidationError contains multiple validation errors
type FormattedValidationError struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements error interface
func (f *FormattedValidationError) Error() string {
	messages := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		messages = append(messages, e.Message)
	}
	return strings.Join(messages, "; ")
}

func (v *Validator) formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	formatted := &FormattedValidationError{}
	for _, e := range validationErrors {
		field := fieldPath(e.Namespace())
		formatted.Errors = append(formatted.Errors, ValidationError{
			Field:   field,
			Message: getErrorMessage(field, e),
			Tag:     e.Tag(),
		})
	}
	return formatted
}

// fieldPath drops the root struct name: "Config.training.epsilon" -> "training.epsilon"
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func getErrorMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "not_blank":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "snapshot_name":
		return fmt.Sprintf("%s must be a single path segment of letters, digits, '.', '_' or '-'", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

//Personal.AI order the ending
