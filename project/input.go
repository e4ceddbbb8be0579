// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/civil"
)

// Input is the client-writable subset of a Project. Absent fields are left
// untouched on update.
type Input struct {
	Name        Optional[string]     `json:"name"`
	Description Optional[string]     `json:"description"`
	StartDate   Optional[civil.Date] `json:"start_date"`
	EndDate     Optional[civil.Date] `json:"end_date"`
	Status      Optional[Status]     `json:"status"`
	Location    Optional[string]     `json:"location"`
}

// InputOf returns the Input that recreates p.
func InputOf(p *Project) Input {
	in := Input{
		Name:      Some(p.Name),
		StartDate: Some(p.StartDate),
		Status:    Some(p.Status),
		Location:  Some(p.Location),
	}

	if p.Description != nil {
		in.Description = Some(*p.Description)
	}

	if p.EndDate != nil {
		in.EndDate = Some(*p.EndDate)
	}

	return in
}

// Validate checks the shape of in. With partial set, absent required fields
// are accepted.
//
// No ordering is enforced between start_date and end_date.
func (in *Input) Validate(partial bool) error {
	verr := &ValidationError{}

	required := func(field string, set bool) bool {
		if !set && !partial {
			verr.Add(field, msgRequired)
		}

		return set
	}

	if required("name", in.Name.Set) {
		in.Name.Value = strings.TrimSpace(in.Name.Value)
		validateText(verr, "name", in.Name, MaxNameLength)
	}

	if required("start_date", in.StartDate.Set) {
		switch {
		case in.StartDate.Null:
			verr.Add("start_date", msgNull)
		case !in.StartDate.Value.IsValid():
			verr.Add("start_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		}
	}

	if in.EndDate.Set && !in.EndDate.Null && !in.EndDate.Value.IsValid() {
		verr.Add("end_date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}

	if required("status", in.Status.Set) {
		switch {
		case in.Status.Null:
			verr.Add("status", msgNull)
		case !in.Status.Value.Valid():
			verr.Add("status", msgInvalidChoice(string(in.Status.Value)))
		}
	}

	if required("location", in.Location.Set) {
		in.Location.Value = strings.TrimSpace(in.Location.Value)
		validateText(verr, "location", in.Location, MaxLocationLength)
	}

	return verr.OrNil()
}

func validateText(verr *ValidationError, field string, v Optional[string], maxLen int) {
	switch {
	case v.Null:
		verr.Add(field, msgNull)
	case v.Value == "":
		verr.Add(field, msgBlank)
	case utf8.RuneCountInString(v.Value) > maxLen:
		verr.Add(field, msgMaxLength(maxLen))
	}
}

// apply copies the set fields of in onto p. Coordinates are not touched.
func (in *Input) apply(p *Project) {
	if in.Name.Set {
		p.Name = in.Name.Value
	}

	if in.Description.Set {
		p.Description = in.Description.Ptr()
	}

	if in.StartDate.Set {
		p.StartDate = in.StartDate.Value
	}

	if in.EndDate.Set {
		p.EndDate = in.EndDate.Ptr()
	}

	if in.Status.Set {
		p.Status = in.Status.Value
	}

	if in.Location.Set {
		p.Location = in.Location.Value
	}
}
