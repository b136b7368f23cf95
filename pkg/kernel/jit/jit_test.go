// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package jit

import (
	"math"
	"strconv"
	"testing"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestLiteral(t *testing.T) {
	for _, tc := range []struct {
		value any
		want  string
	}{
		{7, "7"},
		{int64(-3), "-3"},
		{uint32(16), "16"},
		{true, "1"},
		{false, "0"},
		{float32(0.5), "0.5f"},
		{float32(1), "1.0f"},
		{float32(1e-5), "1e-05f"},
		{1.0 / 9.0, "0.1111111111111111"},
		{2.0, "2.0"},
		{float32(math.Inf(1)), "INFINITY"},
		{math.Inf(-1), "-INFINITY"},
		{math.NaN(), "NAN"},
		{float16.Fromfloat32(0.25), "0.25f"},
		{"lrn_result", "lrn_result"},
		{dtypes.Float16, "half"},
	} {
		got, ok := Literal(tc.value)
		require.True(t, ok, "%T", tc.value)
		assert.Equal(t, tc.want, got, "%T(%v)", tc.value, tc.value)
	}

	_, ok := Literal([]int{1})
	assert.False(t, ok)
	require.Panics(t, func() { MakeConstant("X", struct{}{}) })
	require.Panics(t, func() { MakeConstant("", 1) })
}

func TestLiteral_FullPrecision(t *testing.T) {
	// Float32 literals must parse back to the exact same value.
	for _, v := range []float32{1.0 / 9.0, 1.0 / 25.0, 0.0001, 3.4028235e38, 1.1754944e-38} {
		literal, _ := Literal(v)
		parsed, err := strconv.ParseFloat(literal[:len(literal)-1], 32)
		require.NoError(t, err, literal)
		assert.Equal(t, v, float32(parsed), literal)
	}
}

func TestSet_AddAndOrder(t *testing.T) {
	s := &Set{}
	require.NoError(t, s.AddValue("B", 2))
	require.NoError(t, s.AddValue("A", 1))
	require.NoError(t, s.Add(MakeConstant("C", float32(0.5))))
	assert.Equal(t, []string{"B", "A", "C"}, s.Names())
	assert.Equal(t, []string{"B = 2", "A = 1", "C = 0.5f"}, s.Lines())

	// Same value: no-op.
	require.NoError(t, s.AddValue("A", 1))
	assert.Equal(t, 3, s.Len())

	// Different value: conflict, set unchanged.
	err := s.Add(MakeConstant("D", 4), MakeConstant("A", 2))
	require.ErrorIs(t, err, ErrMergeConflict)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "A", conflict.Name)
	assert.Equal(t, "1", conflict.Existing)
	assert.Equal(t, "2", conflict.Update)
	assert.False(t, s.Has("D"))

	// Conflict within the same batch.
	_, err = NewSet(MakeConstant("X", 1), MakeConstant("X", 2))
	require.ErrorIs(t, err, ErrMergeConflict)
}

func TestSet_Merge(t *testing.T) {
	a, err := NewSet(MakeConstant("A", 1), MakeConstant("B", 2))
	require.NoError(t, err)
	b, err := NewSet(MakeConstant("C", 3), MakeConstant("D", 4), MakeConstant("E", 5))
	require.NoError(t, err)

	// Disjoint: sizes add up.
	merged := a.Clone()
	require.NoError(t, merged.Merge(b))
	assert.Equal(t, a.Len()+b.Len(), merged.Len())
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, merged.Names())
	assert.Equal(t, 2, a.Len(), "Clone must not share storage")

	// Conflicting: error and atomic.
	c, err := NewSet(MakeConstant("F", 6), MakeConstant("B", 7))
	require.NoError(t, err)
	before := merged.Clone()
	err = merged.Merge(c)
	require.ErrorIs(t, err, ErrMergeConflict)
	assert.True(t, before.Equal(merged))

	// nil and empty sets.
	require.NoError(t, merged.Merge(nil))
	require.NoError(t, merged.Merge(&Set{}))
	assert.True(t, before.Equal(merged))
	var nilSet *Set
	assert.Equal(t, 0, nilSet.Len())
	assert.True(t, nilSet.Equal(&Set{}))
}

func TestSet_Equal(t *testing.T) {
	a, _ := NewSet(MakeConstant("A", 1), MakeConstant("B", 2))
	b, _ := NewSet(MakeConstant("B", 2), MakeConstant("A", 1))
	assert.False(t, a.Equal(b), "order matters")
	assert.True(t, a.Equal(a.Clone()))
	v, found := a.Get("B")
	assert.True(t, found)
	assert.Equal(t, "2", v)
	assert.Equal(t, "A = 1\nB = 2", a.String())
}
