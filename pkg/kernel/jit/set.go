// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package jit holds the named constants used to specialize a generic kernel template for one
// invocation.
//
// A Set keeps the order in which constants were added, since it is the order in which they are
// emitted. Names are unique within a Set, and merging two sets that define the same name with different
// values fails with ErrMergeConflict, instead of silently picking one of the values.
package jit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ErrMergeConflict is returned (wrapped in a *ConflictError) when two sources of constants declare
// the same name with different values.
var ErrMergeConflict = errors.New("jit constant merge conflict")

// ConflictError describes a conflicting constant definition.
type ConflictError struct {
	Name             string
	Existing, Update string
}

// Error implements error.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %q defined as %q and as %q", ErrMergeConflict, e.Name, e.Existing, e.Update)
}

// Unwrap returns ErrMergeConflict, so errors.Is(err, ErrMergeConflict) works.
func (e *ConflictError) Unwrap() error {
	return ErrMergeConflict
}

// Set is an ordered collection of uniquely named constants.
//
// The zero value is an empty set ready to use. A Set is not safe for concurrent mutation.
type Set struct {
	constants []Constant
	index     map[string]int
}

// NewSet returns a Set with the given constants. It returns a *ConflictError if the same name
// is given twice with different values.
func NewSet(constants ...Constant) (*Set, error) {
	s := &Set{}
	if err := s.Add(constants...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add appends the constants to the set, in order.
//
// Re-adding a name with an identical value is a no-op. Re-adding it with a different value returns
// a *ConflictError, and in that case the set is left unchanged.
func (s *Set) Add(constants ...Constant) error {
	if err := s.checkConflicts(constants); err != nil {
		return err
	}
	for _, c := range constants {
		if _, found := s.index[c.Name]; found {
			continue
		}
		if s.index == nil {
			s.index = make(map[string]int)
		}
		s.index[c.Name] = len(s.constants)
		s.constants = append(s.constants, c)
	}
	return nil
}

// AddValue is a shortcut for s.Add(MakeConstant(name, value)).
func (s *Set) AddValue(name string, value any) error {
	return s.Add(MakeConstant(name, value))
}

// Merge appends all constants of other to s, keeping other's order.
// It is atomic: on conflict nothing is merged and a *ConflictError is returned.
// Merging a nil set is a no-op.
func (s *Set) Merge(other *Set) error {
	if other == nil {
		return nil
	}
	return s.Add(other.constants...)
}

func (s *Set) checkConflicts(constants []Constant) error {
	var pending map[string]string
	for _, c := range constants {
		if existing, found := s.Get(c.Name); found {
			if existing != c.Value {
				return &ConflictError{Name: c.Name, Existing: existing, Update: c.Value}
			}
			continue
		}
		if previous, found := pending[c.Name]; found {
			if previous != c.Value {
				return &ConflictError{Name: c.Name, Existing: previous, Update: c.Value}
			}
			continue
		}
		if pending == nil {
			pending = make(map[string]string, len(constants))
		}
		pending[c.Name] = c.Value
	}
	return nil
}

// Get returns the literal value for name, and whether it was found.
func (s *Set) Get(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	idx, found := s.index[name]
	if !found {
		return "", false
	}
	return s.constants[idx].Value, true
}

// Has returns whether name is defined in the set.
func (s *Set) Has(name string) bool {
	_, found := s.Get(name)
	return found
}

// Len returns the number of constants.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.constants)
}

// Names returns the constant names, in order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.constants))
	for i, c := range s.constants {
		names[i] = c.Name
	}
	return names
}

// All returns a copy of the constants, in order.
func (s *Set) All() []Constant {
	if s == nil {
		return nil
	}
	return slices.Clone(s.constants)
}

// Lines returns each constant formatted as "NAME = literal", in order.
func (s *Set) Lines() []string {
	if s == nil {
		return nil
	}
	lines := make([]string, len(s.constants))
	for i, c := range s.constants {
		lines[i] = c.String()
	}
	return lines
}

// String returns all lines joined by new lines.
func (s *Set) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	clone := &Set{}
	if s.Len() == 0 {
		return clone
	}
	clone.constants = slices.Clone(s.constants)
	clone.index = make(map[string]int, len(s.index))
	for name, idx := range s.index {
		clone.index[name] = idx
	}
	return clone
}

// Equal returns whether both sets hold the same constants in the same order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	return slices.Equal(s.constants, other.constants)
}
