package directory

import (
	"encoding/json"
	"sort"
)

// SyncField identifies a client field that participates in external-ledger
// synchronization. Using an explicit enum (rather than free-form strings)
// keeps the pending-field set well defined.
type SyncField string

const (
	FieldName        SyncField = "name"
	FieldEmail       SyncField = "email"
	FieldPhone       SyncField = "phone"
	FieldAddress     SyncField = "address"
	FieldPostalCode  SyncField = "postal_code"
	FieldNotes       SyncField = "notes"
	FieldStatus      SyncField = "status"
	FieldCoordinates SyncField = "coordinates"
)

// knownSyncFields is the closed set of valid sync fields
var knownSyncFields = map[SyncField]struct{}{
	FieldName:        {},
	FieldEmail:       {},
	FieldPhone:       {},
	FieldAddress:     {},
	FieldPostalCode:  {},
	FieldNotes:       {},
	FieldStatus:      {},
	FieldCoordinates: {},
}

// IsValid reports whether f is a known sync field
func (f SyncField) IsValid() bool {
	_, ok := knownSyncFields[f]
	return ok
}

// ParseSyncField converts a string to a SyncField, reporting validity
func ParseSyncField(s string) (SyncField, bool) {
	f := SyncField(s)
	return f, f.IsValid()
}

// FieldSet is a set of sync fields with union and removal semantics.
// The zero value is an empty, usable set.
type FieldSet struct {
	fields map[SyncField]struct{}
}

// NewFieldSet creates a field set containing the given fields.
// Unknown fields are ignored.
func NewFieldSet(fields ...SyncField) FieldSet {
	s := FieldSet{}
	s.Add(fields...)
	return s
}

// Add inserts fields into the set. Unknown fields are ignored.
func (s *FieldSet) Add(fields ...SyncField) {
	for _, f := range fields {
		if !f.IsValid() {
			continue
		}
		if s.fields == nil {
			s.fields = make(map[SyncField]struct{})
		}
		s.fields[f] = struct{}{}
	}
}

// Remove deletes fields from the set. Removing an absent field is a no-op.
func (s *FieldSet) Remove(fields ...SyncField) {
	for _, f := range fields {
		delete(s.fields, f)
	}
}

// Has reports whether the set contains f
func (s FieldSet) Has(f SyncField) bool {
	_, ok := s.fields[f]
	return ok
}

// IsEmpty reports whether the set has no fields
func (s FieldSet) IsEmpty() bool {
	return len(s.fields) == 0
}

// Len returns the number of fields in the set
func (s FieldSet) Len() int {
	return len(s.fields)
}

// Union returns a new set containing fields from both sets
func (s FieldSet) Union(other FieldSet) FieldSet {
	out := NewFieldSet(s.Fields()...)
	out.Add(other.Fields()...)
	return out
}

// Fields returns the fields in deterministic (sorted) order
func (s FieldSet) Fields() []SyncField {
	out := make([]SyncField, 0, len(s.fields))
	for f := range s.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON serializes the set as a sorted JSON array
func (s FieldSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fields())
}

// UnmarshalJSON deserializes a JSON array into the set, dropping unknown fields
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	var raw []SyncField
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.fields = nil
	s.Add(raw...)
	return nil
}
