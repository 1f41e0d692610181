package models

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Value != "" {
		return fmt.Sprintf("%s: %s (value: %q)", ve.Field, ve.Message, ve.Value)
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ves ValidationErrors) Error() string {
	if len(ves) == 0 {
		return ""
	}
	if len(ves) == 1 {
		return ves[0].Error()
	}

	var messages []string
	for _, ve := range ves {
		messages = append(messages, ve.Error())
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

var iconBackgroundPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NewValidator creates a new validator with custom validation rules
func NewValidator() *validator.Validate {
	v := validator.New()

	// Report json field names so messages match the wire format
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterValidation("app_mode", validateAppMode)
	v.RegisterValidation("icon_background", validateIconBackground)

	return v
}

// Validate runs tag-based validation on a request payload
func Validate(req interface{}) error {
	if err := NewValidator().Struct(req); err != nil {
		return convertValidatorErrors(err)
	}
	return nil
}

// convertValidatorErrors converts go-playground validator errors to our custom format
func convertValidatorErrors(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errors ValidationErrors

		for _, ve := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   ve.Field(),
				Message: getValidationMessage(ve),
				Value:   valueString(ve.Value()),
			})
		}

		return errors
	}

	return err
}

func valueString(v interface{}) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	return fmt.Sprintf("%v", rv.Interface())
}

// getValidationMessage returns a human-readable message for validation errors
func getValidationMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", ve.Param())
	case "max":
		return fmt.Sprintf("too long, must be at most %s characters", ve.Param())
	case "app_mode":
		return fmt.Sprintf("must be one of %s", modeList())
	case "icon_background":
		return "must be a hex color like #FFEAD5"
	case "bcp47_language_tag":
		return "must be a language tag like en-US"
	case "url":
		return "must be a valid URL"
	default:
		return ve.Error()
	}
}

func modeList() string {
	names := make([]string, 0, len(Modes))
	for _, m := range Modes {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

// validateAppMode validates application modes
func validateAppMode(fl validator.FieldLevel) bool {
	return Mode(fl.Field().String()).IsValid()
}

// validateIconBackground validates #RRGGBB colors
func validateIconBackground(fl validator.FieldLevel) bool {
	return iconBackgroundPattern.MatchString(fl.Field().String())
}
