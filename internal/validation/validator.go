// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package validation provides struct validation using go-playground/validator v10.
// It holds a thread-safe singleton validator with a trackid rule and turns
// failures into VALIDATION_ERROR API errors keyed by JSON field name.
//
// Example usage:
//
//	type RecommendRequest struct {
//	    UserID string   `json:"user_id" validate:"required,max=256"`
//	    Seeds  []string `json:"seeds" validate:"required,min=1,max=100,dive,trackid"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/cadence/internal/catalog"
)

// CodeValidation is the API error code for failed validation.
const CodeValidation = "VALIDATION_ERROR"

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule on one request field.
type FieldError struct {
	field   string
	tag     string
	message string
}

// Field is the JSON name of the field.
func (e *FieldError) Field() string { return e.field }

func (e *FieldError) Error() string { return e.message }

// RequestValidationError collects every failed rule of one request.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the field failures in declaration order.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	return ve.joined()
}

func (ve *RequestValidationError) joined() string {
	parts := make([]string, len(ve.errors))
	for i := range ve.errors {
		parts[i] = ve.errors[i].message
	}
	return strings.Join(parts, "; ")
}

// APIError mirrors the api package's error body to avoid an import cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts validation errors to the API error format.
func (ve *RequestValidationError) ToAPIError() *APIError {
	if len(ve.errors) == 0 {
		return &APIError{Code: CodeValidation, Message: "Validation failed"}
	}

	if len(ve.errors) == 1 {
		err := ve.errors[0]
		return &APIError{
			Code:    CodeValidation,
			Message: err.message,
			Details: map[string]interface{}{
				"field": err.field,
				"tag":   err.tag,
			},
		}
	}

	fields := make([]map[string]interface{}, len(ve.errors))
	for i, err := range ve.errors {
		fields[i] = map[string]interface{}{"field": err.field, "tag": err.tag, "message": err.message}
	}
	return &APIError{
		Code:    CodeValidation,
		Message: ve.joined(),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so messages match the request body.
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

		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("trackid", validateTrackID)
	})

	return validate
}

// validateTrackID accepts a bare id or a "<namespace>:track:<id>" URI with a
// non-empty id and no embedded whitespace.
func validateTrackID(fl validator.FieldLevel) bool {
	id := catalog.NormalizeTrackID(fl.Field().String())
	return id != "" && !strings.ContainsAny(id, " \t\r\n")
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *RequestValidationError if it fails.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// InvalidValidationError: s was not a struct.
		return &RequestValidationError{errors: []FieldError{{field: "body", tag: "struct", message: err.Error()}}}
	}

	out := &RequestValidationError{errors: make([]FieldError, 0, len(validationErrs))}
	for _, fe := range validationErrs {
		out.errors = append(out.errors, FieldError{field: fe.Field(), tag: fe.Tag(), message: describe(fe)})
	}
	return out
}

// describe renders a FieldError the way API clients see it.
func describe(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "trackid":
		return field + " must be a track id or <namespace>:track:<id> URI"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, param)
	case "min", "max":
		return describeBound(fe, field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func describeBound(fe validator.FieldError, field, param string) string {
	bound := "at least"
	if fe.Tag() == "max" {
		bound = "at most"
	}
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("%s must have %s %s characters", field, bound, param)
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%s must have %s %s items", field, bound, param)
	default:
		return fmt.Sprintf("%s must be %s %s", field, bound, param)
	}
}
