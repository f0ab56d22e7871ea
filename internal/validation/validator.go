// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError represents a single field validation error.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the JSON path of the field that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the parameter for the validation tag (e.g., "100" for "max=100").
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the actual value that failed validation.
func (e *ValidationError) Value() interface{} {
	return e.value
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	return e.message
}

// RequestValidationError represents a collection of validation errors.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error implements the error interface, returning a combined error message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ToModelError converts the collected errors into the service's
// ValidationError type.
func (ve *RequestValidationError) ToModelError() *models.ValidationError {
	fields := make([]models.FieldError, len(ve.errors))
	for i, e := range ve.errors {
		fields[i] = models.FieldError{Field: e.field, Tag: e.tag, Message: e.message}
	}
	return &models.ValidationError{Fields: fields}
}

// GetValidator returns the singleton validator instance.
// The validator is initialized once with custom validators and options.
// This function is thread-safe.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so errors match what callers sent.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		mustRegister("iso8601duration", validateISODuration)
		mustRegister("confidentiality", validateConfidentiality)
		mustRegister("nocontrol", validateNoControl)
	})

	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func validateISODuration(fl validator.FieldLevel) bool {
	_, err := indexkey.ParseISODuration(fl.Field().String())
	return err == nil
}

// validateNoControl rejects control characters. Index keys join values with
// NUL, so a value carrying one could alias another key.
func validateNoControl(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsControl) < 0
}

func validateConfidentiality(fl validator.FieldLevel) bool {
	return models.Confidentiality(fl.Field().String()).Valid()
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *RequestValidationError if validation fails.
func ValidateStruct(s interface{}) *RequestValidationError {
	v := GetValidator()

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{
				{
					field:   "unknown",
					tag:     "unknown",
					message: err.Error(),
				},
			},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldPath(fieldErr),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

// fieldPath strips the top-level struct name from the namespace, so
// "Payload.processedObjects[0].subjectId" becomes "processedObjects[0].subjectId".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required":        "%s is required",
	"url":             "%s must be a valid URL",
	"uuid":            "%s must be a valid UUID",
	"iso8601duration": "%s must be an ISO 8601 duration of at most 200 years, such as P10Y",
	"nocontrol":       "%s must not contain control characters",
	"confidentiality": "%s must be one of: normaal, vertrouwelijk, opgeheven",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof":    "%s must be one of: %s",
	"excludes": "%s must not contain %q",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field := fieldPath(fe)
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}

	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max validation with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	kind := fe.Kind()
	var unit string
	switch kind {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array:
		unit = " items"
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must have at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must have at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
