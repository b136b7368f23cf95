// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xmath holds small integer helpers shared by the dispatch and kernel packages.
package xmath

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a/b) for non-negative a and positive b.
func CeilDiv[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}

// AlignUp rounds value up to the next multiple of alignment.
func AlignUp[T constraints.Integer](value, alignment T) T {
	return CeilDiv(value, alignment) * alignment
}

// IsPowerOfTwo returns whether value is a positive power of two (1 included).
func IsPowerOfTwo[T constraints.Integer](value T) bool {
	return value > 0 && value&(value-1) == 0
}

// Divisors returns all positive divisors of value that are <= limit, in decreasing order.
// It returns nil for value <= 0 or limit <= 0.
func Divisors[T constraints.Integer](value, limit T) []T {
	if value <= 0 || limit <= 0 {
		return nil
	}
	var low, high []T
	for d := T(1); d*d <= value; d++ {
		if value%d != 0 {
			continue
		}
		if d <= limit {
			low = append(low, d)
		}
		if other := value / d; other != d && other <= limit {
			high = append(high, other)
		}
	}
	// high is decreasing already, low is increasing.
	divisors := high
	for ii := len(low) - 1; ii >= 0; ii-- {
		divisors = append(divisors, low[ii])
	}
	return divisors
}
