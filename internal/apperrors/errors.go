/*
Copyright 2025 Cloud Conveyor Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package apperrors is the structured error type used everywhere
// outside the substrate boundary: configuration loading, the
// scheduler's retry-exhaustion path, and the CLI. Substrate adapters
// speak substrate.Error instead (see pkg/substrate/errors.go) — that
// taxonomy is fixed by spec.md §4.4 and is not replaced by this one.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrorType discriminates the taxonomy from spec.md §7: config errors
// surfaced at load time, and the scheduler-level errors that result
// from retry-budget exhaustion against a substrate.
type ErrorType string

const (
	// ErrorTypeConfig marks a `.conveyor.yaml` load or validation
	// failure.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeSubstrate marks a substrate error that has exhausted
	// the scheduler's retry budget and is being surfaced as fatal.
	ErrorTypeSubstrate ErrorType = "substrate"
	// ErrorTypeInternal is anything that doesn't fit a more specific
	// category.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError is a structured error carrying a type, a message, optional
// free-form details, and an optional wrapped cause.
type AppError struct {
	Type    ErrorType
	Message string
	Details string
	Cause   error
}

// New constructs an AppError with no wrapped cause.
func New(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message}
}

// Newf constructs an AppError with a formatted message.
func Newf(t ErrorType, format string, args ...any) *AppError {
	return New(t, fmt.Sprintf(format, args...))
}

// Wrap constructs an AppError around an existing cause.
func Wrap(cause error, t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, Cause: cause}
}

// Wrapf constructs an AppError around an existing cause with a
// formatted message.
func Wrapf(cause error, t ErrorType, format string, args ...any) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

// WithDetails sets Details in place and returns the same error, so it
// can be chained onto a constructor call.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithDetailsf sets a formatted Details in place.
func (e *AppError) WithDetailsf(format string, args ...any) *AppError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
}

// Unwrap exposes Cause to errors.Is/errors.As.
func (e *AppError) Unwrap() error { return e.Cause }

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// GetType returns err's ErrorType, or ErrorTypeInternal if err is not
// an *AppError.
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// LogFields renders err as logrus fields suitable for
// logrus.WithFields, omitting details/cause keys when not present.
func LogFields(err error) logrus.Fields {
	fields := logrus.Fields{"error": err.Error()}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fields
	}
	fields["error_type"] = string(appErr.Type)
	if appErr.Details != "" {
		fields["error_details"] = appErr.Details
	}
	if appErr.Cause != nil {
		fields["underlying_error"] = appErr.Cause.Error()
	}
	return fields
}

// Chain joins non-nil errors with " -> ", returning nil if every
// argument is nil and the bare error back if there is exactly one.
func Chain(errs ...error) error {
	var present []string
	var nonNil []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		nonNil = append(nonNil, err)
		present = append(present, err.Error())
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return errors.New(strings.Join(present, " -> "))
	}
}
