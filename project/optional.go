// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that distinguishes an absent key from an explicit
// null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a set Optional holding null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// UnmarshalJSON is only called by encoding/json when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T

		o.Null, o.Value = true, zero

		return nil
	}

	o.Null = false

	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON encodes null for unset or null values.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}

	return json.Marshal(o.Value)
}

// Ptr returns a pointer to the value, nil when null.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}

	v := o.Value

	return &v
}
