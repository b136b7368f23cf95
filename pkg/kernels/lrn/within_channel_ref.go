// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lrn

import (
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernels/common"
	"github.com/gomlx/kernelselector/pkg/selector"
)

// WithinChannelRef is the reference kernel for within-channel normalization of bfyx tensors.
// It doesn't support fused operations.
type WithinChannelRef struct {
	base
}

var _ selector.Variant = (*WithinChannelRef)(nil)

// NewWithinChannelRef returns the "lrn_within_channel_ref" variant.
func NewWithinChannelRef() *WithinChannelRef {
	v := &WithinChannelRef{base{common.Base{VariantName: "lrn_within_channel_ref"}}}
	v.Key.EnableInputTypes(inputTypes...).
		EnableOutputTypes(inputTypes...).
		EnableInputLayouts(layouts.LayoutBfyx).
		EnableOutputLayouts(layouts.LayoutBfyx).
		EnableModes(params.ModeLRNWithinChannel, params.ModeLRNDividerFixed, params.ModeLRNDividerDynamic).
		EnableAllFlags()
	return v
}

// Validate implements selector.Variant.
func (v *WithinChannelRef) Validate(p *params.Params) error {
	return v.validate(p)
}

// DefaultDispatch implements selector.Variant: global = {X, Y, F*B}.
func (v *WithinChannelRef) DefaultDispatch(p *params.Params) (dispatch.Plan, error) {
	out := p.Output
	return dispatch.NewPlan([3]int{out.X(), out.Y(), out.Feature() * out.Batch()}, p.Device)
}

// GenerateConstants implements selector.Variant.
func (v *WithinChannelRef) GenerateConstants(p *params.Params, _ dispatch.Plan) (*jit.Set, error) {
	return v.constants(p)
}

// Priority implements selector.Variant.
func (v *WithinChannelRef) Priority(*params.Params) selector.Priority {
	return selector.ForcePriority(9)
}
