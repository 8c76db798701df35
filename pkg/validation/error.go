// QR Studio Core
// Copyright (c) 2026 The QR Studio Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of QR Studio Core.
//
// QR Studio Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// QR Studio Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with QR Studio Core.  If not, see <http://www.gnu.org/licenses/>.

package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
)

// Error wraps validation errors with formatted messages.
type Error struct {
	Fields []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Tag     string
	Value   any
	Message string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// tagErrors maps custom tags to the codec error a failure on them means.
var tagErrors = map[string]error{
	"notblank":    codec.ErrEmptyContent,
	"promptpayid": codec.ErrInvalidIdentifier,
	"amount":      codec.ErrInvalidAmount,
}

// Unwrap places every validation failure under codec.ErrValidation, plus
// the codec error of each failed tag that has one.
func (e *Error) Unwrap() []error {
	errs := []error{codec.ErrValidation}
	for _, fe := range e.Fields {
		if err, ok := tagErrors[fe.Tag]; ok {
			errs = append(errs, err)
		}
	}
	return errs
}

// NewError creates an Error from validator.ValidationErrors.
func NewError(errs validator.ValidationErrors) *Error {
	ve := &Error{
		Fields: make([]FieldError, len(errs)),
	}
	for i, fe := range errs {
		ve.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: formatValidationError(fe),
		}
	}
	return ve
}

// formatValidationError creates a human-readable error message.
func formatValidationError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "absurl":
		return field + " must be an absolute URL (e.g., https://example.com)"
	case "promptpayid":
		return field + " must be a 10 digit mobile number or a 13 digit national ID"
	case "amount":
		return field + " must be a non-negative amount with at most 13 characters"
	case "email":
		return field + " must be a valid email address"
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
