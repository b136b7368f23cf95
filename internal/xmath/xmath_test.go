// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCeilDivAlignUp(t *testing.T) {
	assert.Equal(t, 2, CeilDiv(16, 8))
	assert.Equal(t, 1, CeilDiv(5, 8))
	assert.Equal(t, 0, CeilDiv(0, 8))
	assert.Equal(t, uint32(3), CeilDiv[uint32](17, 8))
	assert.Equal(t, 16, AlignUp(5, 16))
	assert.Equal(t, 32, AlignUp(32, 16))
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, v := range []int{1, 2, 4, 64, 1024} {
		assert.True(t, IsPowerOfTwo(v), "%d", v)
	}
	for _, v := range []int{0, -2, 3, 6, 24} {
		assert.False(t, IsPowerOfTwo(v), "%d", v)
	}
}

func TestDivisors(t *testing.T) {
	assert.Equal(t, []int{12, 6, 4, 3, 2, 1}, Divisors(12, 100))
	assert.Equal(t, []int{4, 3, 2, 1}, Divisors(12, 5))
	assert.Equal(t, []int{7, 1}, Divisors(7, 7))
	assert.Equal(t, []int{3, 1}, Divisors(9, 8))
	assert.Equal(t, []int{1}, Divisors(1, 1))
	assert.Nil(t, Divisors(0, 10))
	assert.Nil(t, Divisors(10, 0))
}
