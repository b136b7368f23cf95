// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lrn

import (
	"github.com/gomlx/kernelselector/internal/xmath"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernels/common"
	"github.com/gomlx/kernelselector/pkg/selector"
)

// AcrossChannelMultipleFeatures normalizes across channels computing several output features per
// work-item, reusing the sum of squares of the shared part of their windows.
type AcrossChannelMultipleFeatures struct {
	base
}

var _ selector.Variant = (*AcrossChannelMultipleFeatures)(nil)

// NewAcrossChannelMultipleFeatures returns the "lrn_across_channel_multiple_features" variant.
func NewAcrossChannelMultipleFeatures() *AcrossChannelMultipleFeatures {
	v := &AcrossChannelMultipleFeatures{base{common.Base{VariantName: "lrn_across_channel_multiple_features"}}}
	v.Key.EnableInputTypes(inputTypes...).
		EnableOutputTypes(inputTypes...).
		EnableInputLayouts(layouts.LayoutBfyx, layouts.LayoutYxfb).
		EnableOutputLayouts(layouts.LayoutBfyx, layouts.LayoutYxfb).
		EnableModes(params.ModeLRNAcrossChannel, params.ModeLRNDividerFixed, params.ModeLRNDividerDynamic).
		EnableAllFlags().
		EnableFusedOps(allFusedOps...)
	return v
}

// OutputFeaturesPerWorkItem returns 4 if the number of features is a multiple of 4, 2 otherwise.
func OutputFeaturesPerWorkItem(features int) int {
	if features%4 == 0 {
		return 4
	}
	return 2
}

// Validate implements selector.Variant: the number of features must be even.
func (v *AcrossChannelMultipleFeatures) Validate(p *params.Params) error {
	if err := v.validate(p); err != nil {
		return err
	}
	if features := p.Output.Feature(); features%2 != 0 {
		return common.Rejectf(v.VariantName, "number of features (%d) must be even", features)
	}
	return nil
}

// DefaultDispatch implements selector.Variant: global = {X, Y, ceil(F/OFM_PER_SIMD)*B}.
func (v *AcrossChannelMultipleFeatures) DefaultDispatch(p *params.Params) (dispatch.Plan, error) {
	out := p.Output
	ofmPerSimd := OutputFeaturesPerWorkItem(out.Feature())
	global := [3]int{out.X(), out.Y(), xmath.CeilDiv(out.Feature(), ofmPerSimd) * out.Batch()}
	return dispatch.NewPlan(global, p.Device)
}

// GenerateConstants implements selector.Variant.
func (v *AcrossChannelMultipleFeatures) GenerateConstants(p *params.Params, _ dispatch.Plan) (*jit.Set, error) {
	set, err := v.constants(p)
	if err != nil {
		return nil, err
	}
	if err := set.AddValue("OFM_PER_SIMD", OutputFeaturesPerWorkItem(p.Output.Feature())); err != nil {
		return nil, err
	}
	config := fusedops.Config{IndexNames: []string{"batch_id", "feature_id + i", "y", "x"}, InputVar: "lrn_result", VecSize: 1}
	if err := mergeFusedOps(set, p, config); err != nil {
		return nil, err
	}
	return set, nil
}

// Priority implements selector.Variant: large spatial planes have enough work-items to make it the
// preferred kernel; for small ones it is only preferred to the reference kernels.
func (v *AcrossChannelMultipleFeatures) Priority(p *params.Params) selector.Priority {
	if p.Output.X()*p.Output.Y() >= 64 {
		return selector.ForcePriority(6)
	}
	return selector.ForcePriority(8)
}
