// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Order(t *testing.T) {
	assert.Equal(t, []Axis{AxisBatch, AxisY, AxisX, AxisFeature}, LayoutByxf.Order())
	assert.Equal(t, AxisFeature, LayoutByxf.Innermost())
	assert.Equal(t, AxisX, LayoutBfyx.Innermost())
	assert.Equal(t, 2, LayoutBf.Rank())
	assert.False(t, LayoutFb.IsSpatial())
	assert.True(t, LayoutYxfb.IsSpatial())
	assert.Nil(t, LayoutInvalid.Order())
	assert.Nil(t, LayoutLast.Order())

	// Every valid layout holds each of its axes exactly once.
	for _, l := range LayoutValues() {
		if !l.IsValid() {
			continue
		}
		seen := make(map[Axis]bool)
		for _, axis := range l.Order() {
			assert.False(t, seen[axis], "layout %s repeats axis %s", l, axis)
			seen[axis] = true
		}
		assert.True(t, seen[AxisBatch] && seen[AxisFeature], l.String())
	}
}

func TestFromName(t *testing.T) {
	l, err := FromName("BYXF")
	require.NoError(t, err)
	assert.Equal(t, LayoutByxf, l)
	assert.Equal(t, "byxf", l.String())

	_, err = FromName("invalid")
	require.Error(t, err)
	_, err = FromName("nchw")
	require.Error(t, err)
}
