package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is the JSON-serializable mapping of form field names to their
// values at submission time.
//
// Values are either strings (text-like controls) or booleans (checkboxes).
// Keys keep the order in which they were first set, which follows the DOM
// order of the form. Setting an existing key replaces its value but keeps its
// position, so duplicate field names resolve to the last value written.
type Snapshot struct {
	keys   []string
	values map[string]any
}

// NewSnapshot creates an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		keys:   make([]string, 0),
		values: make(map[string]any),
	}
}

// SetString stores a string value for name.
func (s *Snapshot) SetString(name, value string) {
	s.set(name, value)
}

// SetBool stores a boolean value for name.
func (s *Snapshot) SetBool(name string, value bool) {
	s.set(name, value)
}

func (s *Snapshot) set(name string, value any) {
	if _, ok := s.values[name]; !ok {
		s.keys = append(s.keys, name)
	}
	s.values[name] = value
}

// Get returns the value stored for name.
func (s *Snapshot) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether name is present.
func (s *Snapshot) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Keys returns the field names in insertion order.
func (s *Snapshot) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of fields.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// Map returns a copy of the snapshot as a plain map.
func (s *Snapshot) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the snapshot as a JSON object in insertion order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
