// ECMO Console Core
// Copyright (c) 2026 The ECMO Console Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ECMO Console Core.
//
// ECMO Console Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ECMO Console Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ECMO Console Core.  If not, see <http://www.gnu.org/licenses/>.

// Package validation decodes and checks JSON-RPC params before a method
// handler sees them.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ecmo-console/ecmo-core/pkg/service/actuator"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingParams = errors.New("missing params")
	ErrInvalidParams = errors.New("invalid params")
)

var paramsValidator = newParamsValidator()

func newParamsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("module", isModule)
	return v
}

// jsonFieldName reports fields under the name a client sent them as.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// isModule accepts empty values so "required" owns that case.
func isModule(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if v == "" {
		return true
	}
	_, err := actuator.ParseModuleID(v)
	return err == nil
}

// Check runs the validate tags of params. Tag failures come back as *Error.
func Check(params any) error {
	err := paramsValidator.Struct(params)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return newError(fieldErrs)
	}
	return fmt.Errorf("checking params: %w", err)
}

// ValidateAndUnmarshal decodes params into dest and checks the result.
// Unknown fields are rejected.
func ValidateAndUnmarshal[T any](params json.RawMessage, dest *T) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrMissingParams
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return Check(dest)
}

// Error is a params object that decoded but broke one or more rules.
type Error struct {
	Fields []FieldError
}

type FieldError struct {
	Field   string
	Rule    string
	Message string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidParams.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

func newError(fieldErrs validator.ValidationErrors) *Error {
	out := &Error{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: describe(fe),
		})
	}
	return out
}

var comparisons = map[string]string{
	"gt":  "greater than",
	"gte": "at least",
	"lt":  "less than",
	"lte": "at most",
	"min": "at least",
	"max": "at most",
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	if cmp, ok := comparisons[fe.Tag()]; ok {
		return fmt.Sprintf("%s must be %s %s", name, cmp, fe.Param())
	}

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "module":
		return fmt.Sprintf("unknown module %q, expected one of %s", fe.Value(), moduleNames())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", name, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
}

func moduleNames() string {
	mods := actuator.Modules()
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
