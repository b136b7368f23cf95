// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lrn

import (
	"github.com/gomlx/kernelselector/internal/xmath"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernels/common"
	"github.com/gomlx/kernelselector/pkg/selector"
)

// ByxfFeatureBlock is the number of features processed by each work-item of WithinChannelByxfOpt.
const ByxfFeatureBlock = 8

// WithinChannelByxfOpt normalizes within channel byxf tensors, each work-item handling
// ByxfFeatureBlock consecutive (contiguous in byxf) features of one position.
type WithinChannelByxfOpt struct {
	base
}

var _ selector.Variant = (*WithinChannelByxfOpt)(nil)

// NewWithinChannelByxfOpt returns the "lrn_within_channel_byxf_opt" variant.
func NewWithinChannelByxfOpt() *WithinChannelByxfOpt {
	v := &WithinChannelByxfOpt{base{common.Base{VariantName: "lrn_within_channel_byxf_opt"}}}
	v.Key.EnableInputTypes(inputTypes...).
		EnableOutputTypes(outputTypes...).
		EnableInputLayouts(layouts.LayoutByxf).
		EnableOutputLayouts(layouts.LayoutByxf).
		EnableModes(params.ModeLRNWithinChannel, params.ModeLRNDividerDynamic, params.ModeLRNDividerFixed).
		EnableFlags(capability.FlagTensorOffset, capability.FlagTensorPitches, capability.FlagBatching,
			capability.FlagDifferentTypes).
		EnableFusedOps(allFusedOps...)
	return v
}

// Validate implements selector.Variant: the number of input features must be a multiple of ByxfFeatureBlock.
func (v *WithinChannelByxfOpt) Validate(p *params.Params) error {
	if err := v.validate(p); err != nil {
		return err
	}
	if features := p.Inputs[0].Feature(); features%ByxfFeatureBlock != 0 {
		return common.Rejectf(v.VariantName, "number of features (%d) must be a multiple of %d", features, ByxfFeatureBlock)
	}
	return nil
}

// DefaultDispatch implements selector.Variant: global = {X*Y, ceil(F/8), B}.
func (v *WithinChannelByxfOpt) DefaultDispatch(p *params.Params) (dispatch.Plan, error) {
	out := p.Output
	global := [3]int{out.X() * out.Y(), xmath.CeilDiv(out.Feature(), ByxfFeatureBlock), out.Batch()}
	return dispatch.NewPlan(global, p.Device)
}

// NumElementsDiv returns the reciprocal of the number of elements in the normalization window:
// (2*floor(L/2)+1)^2 within channel, 2*floor(L/2)+1 across channels.
func NumElementsDiv(attrs params.LRN) float32 {
	roundNormSize := (attrs.LocalSize/2)*2 + 1
	numElements := roundNormSize * roundNormSize
	if attrs.NormMode == params.LRNAcrossChannel {
		numElements = roundNormSize
	}
	return 1 / float32(numElements)
}

// GenerateConstants implements selector.Variant.
//
// Besides the base LRN constants, it defines NUM_ELEMENTS_DIV and the mapping of the dispatch
// dimensions: GWS_YX=0, GWS_FEATURE=1 and GWS_BATCH=2.
func (v *WithinChannelByxfOpt) GenerateConstants(p *params.Params, _ dispatch.Plan) (*jit.Set, error) {
	set, err := v.constants(p)
	if err != nil {
		return nil, err
	}
	err = set.Add(
		jit.MakeConstant("NUM_ELEMENTS_DIV", NumElementsDiv(attributes(p))),
		jit.MakeConstant("GWS_BATCH", 2),
		jit.MakeConstant("GWS_FEATURE", 1),
		jit.MakeConstant("GWS_YX", 0),
	)
	if err != nil {
		return nil, err
	}
	config := fusedops.Config{IndexNames: []string{"b", "f + i", "y", "x"}, InputVar: "lrn_result", VecSize: 1}
	if err := mergeFusedOps(set, p, config); err != nil {
		return nil, err
	}
	return set, nil
}

// Priority implements selector.Variant.
func (v *WithinChannelByxfOpt) Priority(*params.Params) selector.Priority {
	return selector.ForcePriority(7)
}
