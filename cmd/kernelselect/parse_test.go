// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInts(t *testing.T) {
	got, err := parseInts(" 1, 16,28 ,28", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 16, 28, 28}, got)

	got, err = parseInts("", 0)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseInts("1,2,3", 2)
	assert.Error(t, err)
	_, err = parseInts("1,x", 0)
	assert.Error(t, err)
	_, err = parseInts("", 1)
	assert.Error(t, err)
}

func TestParsePair(t *testing.T) {
	pair, err := parsePair("3")
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 3}, pair)

	pair, err = parsePair("1,5")
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 5}, pair)

	_, err = parsePair("1,2,3")
	assert.Error(t, err)
}

func TestParseFusedOps(t *testing.T) {
	ops, err := parseFusedOps("clamp:0:6, scale:2:0.5,elu:1,relu,eltwise:sum:f16")
	require.NoError(t, err)
	assert.Equal(t, []fusedops.PostOp{
		fusedops.Clamp(0, 6),
		fusedops.ScaleShift(2, 0.5),
		fusedops.Elu(1),
		fusedops.Relu(),
		fusedops.Eltwise(fusedops.EltwiseSum, dtypes.Float16),
	}, ops)

	ops, err = parseFusedOps("")
	require.NoError(t, err)
	assert.Empty(t, ops)

	for _, bad := range []string{"gelu", "clamp:0", "elu:x", "eltwise:sum", "eltwise:min:f32", "eltwise:sum:f8"} {
		_, err = parseFusedOps(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseModes(t *testing.T) {
	mode, err := parseNormMode("within")
	require.NoError(t, err)
	assert.Equal(t, params.LRNWithinChannel, mode)
	mode, err = parseNormMode("ACROSS_CHANNEL")
	require.NoError(t, err)
	assert.Equal(t, params.LRNAcrossChannel, mode)
	_, err = parseNormMode("diagonal")
	assert.Error(t, err)

	divider, err := parseDivider("dynamic")
	require.NoError(t, err)
	assert.Equal(t, params.LRNDividerDynamic, divider)
	_, err = parseDivider("none")
	assert.Error(t, err)
}

func lrnConfig() opConfig {
	return opConfig{
		op:        "lrn",
		dims:      []int{1, 16, 28, 28},
		dtype:     dtypes.Float32,
		outDType:  dtypes.Float32,
		layout:    layouts.LayoutByxf,
		outLayout: layouts.LayoutByxf,
		localSize: 5,
		normMode:  params.LRNWithinChannel,
		alpha:     1e-4,
		beta:      0.75,
		k:         1,
	}
}

func convConfig() opConfig {
	return opConfig{
		op:        "conv",
		dims:      []int{2, 32, 14, 14},
		dtype:     dtypes.Float16,
		outDType:  dtypes.Float16,
		layout:    layouts.LayoutBfyx,
		outLayout: layouts.LayoutBfyx,
		filter:    [2]int{3, 3},
		stride:    [2]int{2, 2},
		dilation:  [2]int{1, 1},
		pad:       [2]int{1, 1},
		groups:    1,
	}
}

func TestBuild(t *testing.T) {
	info, err := device.Preset("gen9")
	require.NoError(t, err)

	t.Run("lrn", func(t *testing.T) {
		cfg := lrnConfig()
		cfg.fused = []fusedops.PostOp{fusedops.Relu()}
		p, err := cfg.build(info)
		require.NoError(t, err)
		assert.Equal(t, params.OpKindLRN, p.Kind)
		assert.Equal(t, []int{1, 16, 28, 28}, p.Output.Dimensions)
		assert.Len(t, p.FusedOps, 1)
		assert.Equal(t, "gen9", p.Device.Name)
	})

	t.Run("conv", func(t *testing.T) {
		cfg := convConfig()
		p, err := cfg.build(info)
		require.NoError(t, err)
		assert.Equal(t, params.OpKindConvolution, p.Kind)
		// Output features default to the input features.
		assert.Equal(t, []int{2, 32, 7, 7}, p.Output.Dimensions)
		attrs := p.Attributes.(params.Convolution)
		assert.Equal(t, 32, attrs.OutputFeatures)
	})

	t.Run("padded", func(t *testing.T) {
		cfg := lrnConfig()
		cfg.layout, cfg.outLayout = layouts.LayoutBfyx, layouts.LayoutBfyx
		cfg.padBefore = []int{0, 0, 1, 1}
		cfg.padAfter = []int{0, 0, 1, 1}
		p, err := cfg.build(info)
		require.NoError(t, err)
		assert.True(t, p.Inputs[0].IsPadded())
		assert.False(t, p.Output.IsPadded())
	})

	t.Run("errors", func(t *testing.T) {
		cfg := lrnConfig()
		cfg.op = "pooling"
		_, err := cfg.build(info)
		assert.Error(t, err)

		cfg = lrnConfig()
		cfg.dims = []int{1, 0, 28, 28}
		_, err = cfg.build(info)
		assert.Error(t, err)

		cfg = convConfig()
		cfg.dims = []int{2, 32}
		_, err = cfg.build(info)
		assert.Error(t, err)

		cfg = convConfig()
		cfg.filter = [2]int{31, 31}
		_, err = cfg.build(info)
		assert.Error(t, err)

		cfg = convConfig()
		cfg.groups = 5
		_, err = cfg.build(info)
		assert.ErrorIs(t, err, params.ErrInvalidParams)
	})
}
