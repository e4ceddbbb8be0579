// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrNotFound is returned when no project has the requested UUID.
	ErrNotFound = errors.New("project not found")
	// ErrDuplicateName is returned when the store rejects a name already in use.
	ErrDuplicateName = errors.New("project with this name already exists")
)

// Validation messages.
const (
	msgRequired = "This field is required."
	msgNull     = "This field may not be null."
	msgBlank    = "This field may not be blank."
)

func msgMaxLength(n int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", n)
}

func msgInvalidChoice(v string) string {
	return fmt.Sprintf("%q is not a valid choice.", v)
}

// ValidationError reports rejected input, keyed by field name.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an error with a single message for field.
func NewValidationError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)

	return e
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}

	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil returns e when it holds at least one message, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}

	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], " "))
	}

	return "invalid project: " + strings.Join(parts, "; ")
}
