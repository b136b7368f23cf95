// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package convolution

import (
	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernels/common"
	"github.com/gomlx/kernelselector/pkg/selector"
)

// Ref is the reference convolution kernel.
type Ref struct {
	base
}

var _ selector.Variant = (*Ref)(nil)

// NewRef returns the "convolution_gpu_ref" variant.
func NewRef() *Ref {
	v := &Ref{base{common.Base{VariantName: "convolution_gpu_ref"}}}
	types := []dtypes.DType{dtypes.Float16, dtypes.Float32, dtypes.BFloat16, dtypes.Int8, dtypes.Uint8}
	ls := []layouts.Layout{layouts.LayoutBfyx, layouts.LayoutYxfb, layouts.LayoutByxf}
	v.Key.EnableInputTypes(types...).
		EnableOutputTypes(types...).
		EnableInputLayouts(ls...).
		EnableOutputLayouts(ls...).
		EnableModes(params.ModeConvGrouped, params.ModeConvDilated, params.ModeConvBias).
		EnableAllFlags().
		EnableFusedOps(fusedops.KindActivation, fusedops.KindScale, fusedops.KindQuantize, fusedops.KindEltwise)
	return v
}

// Validate implements selector.Variant.
func (v *Ref) Validate(p *params.Params) error {
	return v.validate(p)
}

// DefaultDispatch implements selector.Variant: global = {X, Y, OFM*B}.
func (v *Ref) DefaultDispatch(p *params.Params) (dispatch.Plan, error) {
	out := p.Output
	return dispatch.NewPlan([3]int{out.X(), out.Y(), out.Feature() * out.Batch()}, p.Device)
}

// GenerateConstants implements selector.Variant.
func (v *Ref) GenerateConstants(p *params.Params, _ dispatch.Plan) (*jit.Set, error) {
	set, err := v.constants(p)
	if err != nil {
		return nil, err
	}
	config := fusedops.Config{IndexNames: []string{"b", "f", "y", "x"}, InputVar: "dotProd", VecSize: 1}
	if err := mergeFusedOps(set, p, config); err != nil {
		return nil, err
	}
	return set, nil
}

// Priority implements selector.Variant.
func (v *Ref) Priority(*params.Params) selector.Priority {
	return selector.PriorityFallback
}
