package domain

import (
	"strings"
)

// Field is one of the canonical identity fields
type Field string

const (
	FieldFirstName         Field = "firstName"
	FieldLastName          Field = "lastName"
	FieldDateOfBirth       Field = "dateOfBirth"
	FieldGender            Field = "gender"
	FieldNationalIDNumber  Field = "nationalIdNumber"
	FieldAddress           Field = "address"
	FieldRegion            Field = "region"
	FieldInsuranceProvider Field = "insuranceProvider"
)

// AllFields lists the canonical fields in report order
var AllFields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldDateOfBirth,
	FieldGender,
	FieldNationalIDNumber,
	FieldAddress,
	FieldRegion,
	FieldInsuranceProvider,
}

// Canonical gender values
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// FieldSet is the partial identity record built by a parser.
// A nil pointer means the field was not found in the scan.
type FieldSet struct {
	FirstName         *string `json:"firstName,omitempty"`
	LastName          *string `json:"lastName,omitempty"`
	DateOfBirth       *string `json:"dateOfBirth,omitempty"`
	Gender            *string `json:"gender,omitempty"`
	NationalIDNumber  *string `json:"nationalIdNumber,omitempty"`
	Address           *string `json:"address,omitempty"`
	Region            *string `json:"region,omitempty"`
	InsuranceProvider *string `json:"insuranceProvider,omitempty"`

	frozen bool
}

func (s *FieldSet) slot(f Field) **string {
	switch f {
	case FieldFirstName:
		return &s.FirstName
	case FieldLastName:
		return &s.LastName
	case FieldDateOfBirth:
		return &s.DateOfBirth
	case FieldGender:
		return &s.Gender
	case FieldNationalIDNumber:
		return &s.NationalIDNumber
	case FieldAddress:
		return &s.Address
	case FieldRegion:
		return &s.Region
	case FieldInsuranceProvider:
		return &s.InsuranceProvider
	}
	return nil
}

// Get returns the value of f and whether it is present
func (s FieldSet) Get(f Field) (string, bool) {
	p := s.slot(f)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Value returns the value of f or an empty string
func (s FieldSet) Value(f Field) string {
	v, _ := s.Get(f)
	return v
}

// Has reports whether f is present
func (s FieldSet) Has(f Field) bool {
	_, ok := s.Get(f)
	return ok
}

// Set stores v for f, overwriting any previous value.
// Empty values are ignored. A national identity number has separators removed
// and is rejected unless only decimal digits remain.
// Returns false if nothing was stored.
func (s *FieldSet) Set(f Field, v string) bool {
	if s.frozen {
		return false
	}
	p := s.slot(f)
	if p == nil {
		return false
	}
	v = strings.TrimSpace(v)
	if f == FieldNationalIDNumber {
		v = SanitizeIDNumber(v)
		if !IsDigits(v) {
			return false
		}
	}
	if v == "" {
		return false
	}
	*p = &v
	return true
}

// SetIfEmpty stores v only when f is not present yet
func (s *FieldSet) SetIfEmpty(f Field, v string) bool {
	if s.Has(f) {
		return false
	}
	return s.Set(f, v)
}

// Merge copies every field of other that is missing in s
func (s *FieldSet) Merge(other FieldSet) {
	for _, f := range AllFields {
		if v, ok := other.Get(f); ok {
			s.SetIfEmpty(f, v)
		}
	}
}

// Populated returns the present fields in canonical order
func (s FieldSet) Populated() []Field {
	var out []Field
	for _, f := range AllFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// IsEmpty reports whether no canonical field is present
func (s FieldSet) IsEmpty() bool {
	return len(s.Populated()) == 0
}

// Freeze returns a copy that rejects further writes through Set
func (s FieldSet) Freeze() FieldSet {
	out := FieldSet{}
	for _, f := range AllFields {
		if v, ok := s.Get(f); ok {
			vv := v
			*out.slot(f) = &vv
		}
	}
	out.frozen = true
	return out
}

// Frozen reports whether the set has been frozen
func (s FieldSet) Frozen() bool {
	return s.frozen
}

// SanitizeIDNumber removes the separators scanners and people put into identity numbers
func SanitizeIDNumber(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '/', '.', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(v))
}

// IsDigits reports whether s is non-empty and consists of ASCII digits only
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
