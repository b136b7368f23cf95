// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package capability

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"
)

// Set is a set of small enum values (0 <= value < 64) stored as a bitmask, so it is comparable
// and cheap to copy.
type Set[E constraints.Integer] uint64

func bit[E constraints.Integer](value E) uint64 {
	if value < 0 || uint64(value) >= 64 {
		exceptions.Panicf("capability.Set: value %v out of range [0, 64)", value)
	}
	return 1 << uint64(value)
}

// SetOf returns a Set with the given values.
func SetOf[E constraints.Integer](values ...E) Set[E] {
	var s Set[E]
	return s.With(values...)
}

// With returns a copy of s with the values added.
func (s Set[E]) With(values ...E) Set[E] {
	for _, v := range values {
		s |= Set[E](bit(v))
	}
	return s
}

// Has returns whether value is in the set.
func (s Set[E]) Has(value E) bool {
	return uint64(s)&bit(value) != 0
}

// Contains returns whether every element of other is in s.
func (s Set[E]) Contains(other Set[E]) bool {
	return other&^s == 0
}

// Difference returns the elements of s not in other.
func (s Set[E]) Difference(other Set[E]) Set[E] {
	return s &^ other
}

// Len returns the number of elements.
func (s Set[E]) Len() int {
	return bits.OnesCount64(uint64(s))
}

// IsEmpty returns whether the set has no elements.
func (s Set[E]) IsEmpty() bool {
	return s == 0
}

// Values returns the elements in increasing order.
func (s Set[E]) Values() []E {
	values := make([]E, 0, s.Len())
	for remaining := uint64(s); remaining != 0; remaining &= remaining - 1 {
		values = append(values, E(bits.TrailingZeros64(remaining)))
	}
	return values
}

// String implements fmt.Stringer.
func (s Set[E]) String() string {
	parts := make([]string, 0, s.Len())
	for _, v := range s.Values() {
		parts = append(parts, fmt.Sprint(v))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
