// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package convolution

import (
	"testing"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSelector(options ...selector.Option) *selector.Selector {
	r := selector.NewRegistry()
	Register(r)
	return selector.New(r, options...)
}

func preset(t *testing.T, name string) device.Info {
	info, err := device.Preset(name)
	require.NoError(t, err)
	return info
}

// makeParams returns the params of a convolution of a [b, ifm, size, size] image.
func makeParams(dev device.Info, dtype dtypes.DType, attrs params.Convolution, b, ifm, size int) *params.Params {
	in := tensors.Make(dtype, layouts.LayoutBfyx, b, ifm, size, size)
	outY, outX := attrs.OutputSpatial(size, size)
	out := tensors.Make(dtype, layouts.LayoutBfyx, b, attrs.OutputFeatures, outY, outX)
	return params.New(attrs, dev, out, in)
}

func pointWise(ofm int) params.Convolution {
	return params.Convolution{FilterY: 1, FilterX: 1, StrideY: 1, StrideX: 1, DilationY: 1, DilationX: 1,
		Groups: 1, OutputFeatures: ofm, HasBias: true}
}

func conv3x3(ofm int) params.Convolution {
	return params.Convolution{FilterY: 3, FilterX: 3, StrideY: 1, StrideX: 1, DilationY: 1, DilationX: 1,
		PadY: 1, PadX: 1, Groups: 1, OutputFeatures: ofm, HasBias: true}
}

func get(t *testing.T, desc *selector.Descriptor, name string) string {
	value, found := desc.Constants.Get(name)
	require.True(t, found, "constant %q not defined by %s", name, desc.VariantName)
	return value
}

func TestBfyx1x1(t *testing.T) {
	p := makeParams(preset(t, "gen9"), dtypes.Float32, pointWise(32), 2, 16, 7)
	desc, err := newSelector().Select(p)
	require.NoError(t, err)
	assert.Equal(t, "convolution_gpu_bfyx_1x1", desc.VariantName)
	assert.Equal(t, [3]int{13, 32, 2}, desc.Dispatch.Global)
	assert.Equal(t, [3]int{1, 16, 1}, desc.Dispatch.Local)
	assert.Equal(t, "16", get(t, desc, "SUB_GROUP_SIZE"))
	assert.Equal(t, "4", get(t, desc, "X_BLOCK_SIZE"))
	assert.Equal(t, "13", get(t, desc, "X_BLOCKS"))
	assert.Equal(t, "1", get(t, desc, "BIAS_TERM"))
	assert.Equal(t, "16", get(t, desc, "FILTER_IFM_NUM"))
	assert.Equal(t, "32", get(t, desc, "FILTER_OFM_NUM"))
	// 52 work-groups for 24 compute units: full occupancy bonus.
	assert.Equal(t, selector.ForcePriority(4)+1, desc.Priority)

	// Output features not aligned to the sub-group are padded in the dispatch.
	p = makeParams(preset(t, "gen9"), dtypes.Float16, pointWise(20), 1, 32, 2)
	desc, err = newSelector().Select(p)
	require.NoError(t, err)
	assert.Equal(t, "convolution_gpu_bfyx_1x1", desc.VariantName)
	assert.Equal(t, [3]int{1, 32, 1}, desc.Dispatch.Global)
	// 2 work-groups for 24 compute units.
	assert.InDelta(t, float64(selector.ForcePriority(4))+2.0/24.0, float64(desc.Priority), 1e-9)
}

func TestBfyx1x1_Rejections(t *testing.T) {
	v := NewBfyx1x1()

	// Input features not a multiple of 16.
	p := makeParams(preset(t, "gen9"), dtypes.Float32, pointWise(32), 1, 8, 7)
	require.ErrorIs(t, v.Validate(p), selector.ErrValidationFailed)

	// Device without sub-groups.
	p = makeParams(preset(t, "generic"), dtypes.Float32, pointWise(32), 1, 16, 7)
	require.ErrorIs(t, v.Validate(p), selector.ErrValidationFailed)
	desc, err := newSelector().Select(p)
	require.NoError(t, err)
	assert.Equal(t, "convolution_gpu_ref", desc.VariantName)

	// 3x3 filter.
	p = makeParams(preset(t, "gen9"), dtypes.Float32, conv3x3(32), 1, 16, 7)
	require.ErrorIs(t, v.Validate(p), selector.ErrValidationFailed)

	// Device that supports sub-groups of 16 but not work-groups of 16: geometry fails, the reference is used.
	tiny := device.Info{Name: "tiny", MaxWorkGroupSize: 8, PreferredVectorWidth: 8, SubgroupSizes: []int{16}, ComputeUnits: 4}
	p = makeParams(tiny, dtypes.Float32, pointWise(32), 1, 16, 7)
	require.NoError(t, v.Validate(p))
	desc, err = newSelector().Select(p)
	require.NoError(t, err)
	assert.Equal(t, "convolution_gpu_ref", desc.VariantName)
	_, err = newSelector(selector.WithForcedVariant(v.Name())).Select(p)
	require.ErrorIs(t, err, selector.ErrInvalidDispatchGeometry)
	var selErr *selector.SelectionError
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, selector.StageDispatch, selErr.Rejections[0].Stage)
}

// TestBFloat16ConvElu reproduces the scale-shift -> convolution -> elu -> convolution network in bfloat16:
// the scale-shift and elu are fused into the convolutions.
func TestBFloat16ConvElu(t *testing.T) {
	dev := preset(t, "gen12lp")
	first := makeParams(dev, dtypes.BFloat16, conv3x3(16), 1, 3, 40).
		WithFusedOps(fusedops.Elu(1))
	desc, err := newSelector().Select(first)
	require.NoError(t, err)
	assert.Equal(t, "convolution_gpu_ref", desc.VariantName)
	assert.Equal(t, "ushort", get(t, desc, "INPUT0_TYPE"))
	assert.Equal(t, "float", get(t, desc, "ACCUMULATOR_TYPE"))
	assert.Equal(t, "1.0f", get(t, desc, "FUSED_OP0_ALPHA"))
	assert.Equal(t, "float fused_op0_out = (dotProd >= 0 ? dotProd : FUSED_OP0_ALPHA * (exp(dotProd) - 1));",
		get(t, desc, "FUSED_OP0_ACTION"))
	assert.Equal(t, [3]int{40, 40, 16}, desc.Dispatch.Global)

	second := makeParams(dev, dtypes.BFloat16, conv3x3(16), 1, 16, 40).
		WithFusedOps(fusedops.ScaleShift(2, 1), fusedops.Elu(1))
	desc, err = newSelector().Select(second)
	require.NoError(t, err)
	assert.Equal(t, "FUSED_OP0_ACTION FUSED_OP1_ACTION", get(t, desc, "FUSED_OPS"))
	assert.Equal(t, "fused_op0_out", get(t, desc, "FUSED_OP1_INPUT"))
}

func TestRef_Modes(t *testing.T) {
	attrs := conv3x3(32)
	attrs.Groups = 4
	attrs.DilationY, attrs.DilationX = 2, 2
	attrs.PadY, attrs.PadX = 2, 2
	p := makeParams(preset(t, "gen9"), dtypes.Int8, attrs, 1, 8, 9)
	desc, err := newSelector().Select(p)
	require.NoError(t, err)
	assert.Equal(t, "convolution_gpu_ref", desc.VariantName)
	assert.Equal(t, "4", get(t, desc, "GROUPS"))
	assert.Equal(t, "2", get(t, desc, "FILTER_IFM_NUM"))
	assert.Equal(t, "8", get(t, desc, "FILTER_OFM_NUM"))
	assert.Equal(t, "2", get(t, desc, "DILATION_SIZE_X"))
	assert.Equal(t, "127", get(t, desc, "OUTPUT_VAL_MAX"))

	// Layout not supported by any convolution variant.
	in := tensors.Make(dtypes.Float32, layouts.LayoutFyxb, 1, 8, 9, 9)
	out := tensors.Make(dtypes.Float32, layouts.LayoutFyxb, 1, 8, 9, 9)
	_, err = newSelector().Select(params.New(conv3x3(8), preset(t, "gen9"), out, in))
	require.ErrorIs(t, err, selector.ErrNoCapabilityMatch)
}

func TestDispatchProperties(t *testing.T) {
	variants := Variants()
	for _, name := range []string{"gen9", "gen12lp", "generic"} {
		dev := preset(t, name)
		for _, dtype := range []dtypes.DType{dtypes.Float16, dtypes.Float32} {
			for _, attrs := range []params.Convolution{pointWise(16), pointWise(20), conv3x3(24)} {
				for _, ifm := range []int{3, 16, 32} {
					for _, size := range []int{1, 5, 17} {
						p := makeParams(dev, dtype, attrs, 2, ifm, size)
						for _, v := range variants {
							if !v.SupportedKey().Supports(capability.RequiredFor(p)) || v.Validate(p) != nil {
								continue
							}
							plan, err := v.DefaultDispatch(p)
							require.NoError(t, err, "%s: %s", v.Name(), p)
							require.NoError(t, plan.Validate(dev))
							assert.LessOrEqual(t, plan.LocalSize(), dev.MaxWorkGroupSize)
						}
					}
				}
			}
		}
	}
}
