// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// TimestampLayout is the wall-clock layout used by the interaction logs.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed constraint.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// Errors collects every failed constraint of one struct.
type Errors struct {
	Fields []FieldError
}

// Error joins the field messages.
func (e *Errors) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i := range e.Fields {
		msgs[i] = e.Fields[i].Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation.
func (e *Errors) Has(field string) bool {
	for i := range e.Fields {
		if e.Fields[i].Field == field {
			return true
		}
	}
	return false
}

// GetValidator returns the shared validator with the log-specific rules registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Registration only fails on an empty tag or nil func.
		_ = validate.RegisterValidation("logtime", validateLogTime)
	})
	return validate
}

// validateLogTime accepts strings in TimestampLayout.
func validateLogTime(fl validator.FieldLevel) bool {
	_, err := time.Parse(TimestampLayout, fl.Field().String())
	return err == nil
}

// ValidateStruct validates s and returns nil or the collected field errors.
func ValidateStruct(s interface{}) *Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Errors{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &Errors{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translate(fe),
		}
	}
	return out
}

var messages = map[string]string{
	"required": "%s is required",
	"logtime":  "%s must use the " + TimestampLayout + " layout",
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"gt":       "%s must be greater than %s",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
}

func translate(fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	if strings.Count(tmpl, "%s") == 2 {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf(tmpl, fe.Field())
}
