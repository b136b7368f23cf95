// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package common

import (
	"testing"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantsMap(constants []jit.Constant) map[string]string {
	m := make(map[string]string, len(constants))
	for _, c := range constants {
		m[c.Name] = c.Value
	}
	return m
}

func TestTensorConstants(t *testing.T) {
	d := tensors.Make(dtypes.Float16, layouts.LayoutBfyx, 2, 3, 4, 5).
		WithPadding([]int{0, 0, 1, 1}, []int{0, 0, 1, 1})
	got := constantsMap(TensorConstants("INPUT0", d))
	assert.Equal(t, "half", got["INPUT0_TYPE"])
	assert.Equal(t, "5", got["INPUT0_SIZE_X"])
	assert.Equal(t, "4", got["INPUT0_SIZE_Y"])
	assert.Equal(t, "3", got["INPUT0_FEATURE_NUM"])
	assert.Equal(t, "2", got["INPUT0_BATCH_NUM"])
	assert.Equal(t, "1", got["INPUT0_X_PITCH"])
	assert.Equal(t, "7", got["INPUT0_Y_PITCH"])
	assert.Equal(t, "42", got["INPUT0_FEATURE_PITCH"])
	assert.Equal(t, "126", got["INPUT0_BATCH_PITCH"])
	assert.Equal(t, "8", got["INPUT0_OFFSET"])
	assert.Equal(t, "252", got["INPUT0_LENGTH"])
	assert.Equal(t, "1", got["INPUT0_LAYOUT_BFYX"])
	assert.Equal(t, "65504.0f", got["INPUT0_VAL_MAX"])
	assert.Equal(t, "-65504.0f", got["INPUT0_VAL_MIN"])

	got = constantsMap(TensorConstants("OUTPUT", tensors.Make(dtypes.Int8, layouts.LayoutByxf, 1, 8, 2, 2)))
	assert.Equal(t, "char", got["OUTPUT_TYPE"])
	assert.Equal(t, "127", got["OUTPUT_VAL_MAX"])
	assert.Equal(t, "-128", got["OUTPUT_VAL_MIN"])
	assert.Equal(t, "1", got["OUTPUT_LAYOUT_BYXF"])
	assert.Equal(t, "1", got["OUTPUT_FEATURE_PITCH"])
	assert.Equal(t, "8", got["OUTPUT_X_PITCH"])
}

func lrnParams(t *testing.T) *params.Params {
	dev, err := device.Preset("generic")
	require.NoError(t, err)
	in := tensors.Make(dtypes.Float16, layouts.LayoutBfyx, 1, 4, 3, 3)
	out := tensors.Make(dtypes.Float32, layouts.LayoutBfyx, 1, 4, 3, 3)
	attrs := params.LRN{LocalSize: 3, Alpha: 1, Beta: 1, K: 1}
	return params.New(attrs, dev, out, in)
}

func TestConstants(t *testing.T) {
	set, err := Constants(lrnParams(t))
	require.NoError(t, err)
	get := func(name string) string {
		v, found := set.Get(name)
		require.True(t, found, name)
		return v
	}
	assert.Equal(t, "half", get("INPUT0_TYPE"))
	assert.Equal(t, "float", get("OUTPUT_TYPE"))
	assert.Equal(t, "1", get("FP16_UNIT_USED"))
	assert.Equal(t, "0", get("FP16_SUPPORTED"))
	assert.Equal(t, "half", get("UNIT_TYPE"))
	assert.Equal(t, "half", get("ACCUMULATOR_TYPE"))
}

func TestBase_ValidateBase(t *testing.T) {
	b := &Base{VariantName: "test"}
	b.Key.EnableInputTypes(dtypes.Float16).
		EnableOutputTypes(dtypes.Float32).
		EnableInputLayouts(layouts.LayoutBfyx).
		EnableOutputLayouts(layouts.LayoutBfyx).
		EnableModes(params.ModeLRNAcrossChannel, params.ModeLRNDividerFixed).
		EnableFlags(capability.FlagDifferentTypes)
	p := lrnParams(t)
	require.NoError(t, b.ValidateBase(p))

	p.WithFusedOps(fusedops.Relu())
	err := b.ValidateBase(p)
	require.ErrorIs(t, err, selector.ErrValidationFailed)
	assert.Contains(t, err.Error(), "fused_ops")

	require.ErrorIs(t, Rejectf("test", "feature %d", 3), selector.ErrValidationFailed)
}
