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

// Package validation validates API params and content payloads using
// go-playground/validator with custom validators for QR payload fields.
package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/qrstudio/qrstudio-core/pkg/codec"
	"github.com/qrstudio/qrstudio-core/pkg/codec/promptpay"
)

// Common validation errors.
var (
	ErrMissingParams = fmt.Errorf("%w: missing params", codec.ErrValidation)
	ErrInvalidParams = fmt.Errorf("%w: invalid params", codec.ErrValidation)
)

// Validator handles validation of API parameters.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator with registered custom validators.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("absurl", validateAbsURL)
	_ = v.RegisterValidation("promptpayid", validatePromptPayID)
	_ = v.RegisterValidation("amount", validateAmount)
	_ = v.RegisterValidation("notblank", validateNotBlank)

	return &Validator{validate: v}
}

// DefaultValidator is a shared validator instance.
var DefaultValidator = NewValidator()

// Validate validates a struct and returns a formatted error if validation fails.
func (v *Validator) Validate(params any) error {
	return v.ValidateCtx(context.Background(), params)
}

// ValidateCtx validates a struct with context and returns a formatted error.
func (v *Validator) ValidateCtx(ctx context.Context, params any) error {
	if err := v.validate.StructCtx(ctx, params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateAndUnmarshal unmarshals JSON params and validates them.
// Returns ErrMissingParams if params is empty, ErrInvalidParams if unmarshal
// fails, or an Error if validation fails.
func ValidateAndUnmarshal[T any](params json.RawMessage, dest *T) error {
	if len(params) == 0 {
		return ErrMissingParams
	}
	if err := json.Unmarshal(params, dest); err != nil {
		return ErrInvalidParams
	}
	return DefaultValidator.Validate(dest)
}

func validateAbsURL(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return codec.IsAbsoluteURL(val)
}

// validatePromptPayID accepts 10 digit mobile numbers and 13 digit
// national IDs, with optional hyphens.
func validatePromptPayID(fl validator.FieldLevel) bool {
	_, _, err := promptpay.NormalizeIdentifier(fl.Field().String())
	return err == nil
}

func validateAmount(fl validator.FieldLevel) bool {
	_, err := promptpay.ParseAmount(fl.Field().String())
	return err == nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return true
		}
	}
	return false
}
