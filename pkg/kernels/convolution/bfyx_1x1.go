// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package convolution

import (
	"github.com/gomlx/kernelselector/internal/xmath"
	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernels/common"
	"github.com/gomlx/kernelselector/pkg/selector"
)

const (
	// SubGroupSize is the sub-group size required by Bfyx1x1: each sub-group computes 16 output features.
	SubGroupSize = 16

	// XBlockSize is the number of consecutive output positions computed by each work-item of Bfyx1x1.
	XBlockSize = 4
)

// Bfyx1x1 implements point-wise (1x1) convolutions in bfyx layout.
type Bfyx1x1 struct {
	base
}

var _ selector.Variant = (*Bfyx1x1)(nil)

// NewBfyx1x1 returns the "convolution_gpu_bfyx_1x1" variant.
func NewBfyx1x1() *Bfyx1x1 {
	v := &Bfyx1x1{base{common.Base{VariantName: "convolution_gpu_bfyx_1x1"}}}
	v.Key.EnableInputTypes(dtypes.Float16, dtypes.Float32).
		EnableOutputTypes(dtypes.Float16, dtypes.Float32).
		EnableInputLayouts(layouts.LayoutBfyx).
		EnableOutputLayouts(layouts.LayoutBfyx).
		EnableModes(params.ModeConvBias).
		EnableFlags(capability.FlagBatching).
		EnableFusedOps(fusedops.KindActivation, fusedops.KindScale)
	return v
}

// Validate implements selector.Variant.
func (v *Bfyx1x1) Validate(p *params.Params) error {
	if err := v.validate(p); err != nil {
		return err
	}
	attrs := attributes(p)
	if !attrs.Is1x1() || attrs.Groups != 1 {
		return common.Rejectf(v.VariantName, "requires a 1x1 filter with no stride, dilation, padding or groups, got %+v", attrs)
	}
	if ifm := p.Inputs[0].Feature(); ifm%SubGroupSize != 0 {
		return common.Rejectf(v.VariantName, "input features (%d) must be a multiple of %d", ifm, SubGroupSize)
	}
	if !p.Device.SupportsSubgroupSize(SubGroupSize) {
		return common.Rejectf(v.VariantName, "device %q doesn't support sub-groups of size %d", p.Device.Name, SubGroupSize)
	}
	return nil
}

func (v *Bfyx1x1) global(p *params.Params) [3]int {
	out := p.Output
	return [3]int{
		xmath.CeilDiv(out.X()*out.Y(), XBlockSize),
		xmath.AlignUp(out.Feature(), SubGroupSize),
		out.Batch(),
	}
}

// DefaultDispatch implements selector.Variant: global = {ceil(X*Y/4), AlignUp(OFM, 16), B} with fixed
// local {1, 16, 1}.
func (v *Bfyx1x1) DefaultDispatch(p *params.Params) (dispatch.Plan, error) {
	return dispatch.FixedLocal(v.global(p), [3]int{1, SubGroupSize, 1}, p.Device)
}

// GenerateConstants implements selector.Variant.
func (v *Bfyx1x1) GenerateConstants(p *params.Params, plan dispatch.Plan) (*jit.Set, error) {
	set, err := v.constants(p)
	if err != nil {
		return nil, err
	}
	err = set.Add(
		jit.MakeConstant("SUB_GROUP_SIZE", SubGroupSize),
		jit.MakeConstant("X_BLOCK_SIZE", XBlockSize),
		jit.MakeConstant("X_BLOCKS", plan.Global[0]),
	)
	if err != nil {
		return nil, err
	}
	config := fusedops.Config{IndexNames: []string{"b", "f", "y", "x + i"}, InputVar: "dst", VecSize: 1}
	if err := mergeFusedOps(set, p, config); err != nil {
		return nil, err
	}
	return set, nil
}

// Priority implements selector.Variant: forced level 4, plus up to one level of bonus as the number of
// work-groups approaches the number of compute units of the device.
func (v *Bfyx1x1) Priority(p *params.Params) selector.Priority {
	global := v.global(p)
	workGroups := global[0] * (global[1] / SubGroupSize) * global[2]
	occupancy := min(1, float64(workGroups)/float64(p.Device.ComputeUnits))
	return selector.ForcePriority(4) + selector.Priority(occupancy)
}
