// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package convolution implements the kernel variants of 2D convolutions.
//
// Variants, in registration order:
//
//   - convolution_gpu_ref: generic reference, one work-item per output element.
//   - convolution_gpu_bfyx_1x1: point-wise convolutions in bfyx, using sub-groups of 16 output
//     features and blocks of 4 output positions per work-item.
package convolution

import (
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernels/common"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/pkg/errors"
)

// Variants returns new instances of all convolution variants, in registration order.
func Variants() []selector.Variant {
	return []selector.Variant{
		NewRef(),
		NewBfyx1x1(),
	}
}

// Register all convolution variants in r.
func Register(r *selector.Registry) {
	for _, v := range Variants() {
		r.Register(params.OpKindConvolution, v)
	}
}

type base struct {
	common.Base
}

func attributes(p *params.Params) params.Convolution {
	return p.Attributes.(params.Convolution)
}

func (b *base) validate(p *params.Params) error {
	if err := b.ValidateBase(p); err != nil {
		return err
	}
	if _, ok := p.Attributes.(params.Convolution); !ok {
		return common.Rejectf(b.VariantName, "attributes %T are not convolution attributes", p.Attributes)
	}
	return nil
}

// constants returns the common tensor constants plus the convolution window constants.
func (b *base) constants(p *params.Params) (*jit.Set, error) {
	set, err := common.Constants(p)
	if err != nil {
		return nil, err
	}
	attrs := attributes(p)
	err = set.Add(
		jit.MakeConstant("FILTER_SIZE_X", attrs.FilterX),
		jit.MakeConstant("FILTER_SIZE_Y", attrs.FilterY),
		jit.MakeConstant("STRIDE_SIZE_X", attrs.StrideX),
		jit.MakeConstant("STRIDE_SIZE_Y", attrs.StrideY),
		jit.MakeConstant("DILATION_SIZE_X", attrs.DilationX),
		jit.MakeConstant("DILATION_SIZE_Y", attrs.DilationY),
		jit.MakeConstant("PADDING_SIZE_X", attrs.PadX),
		jit.MakeConstant("PADDING_SIZE_Y", attrs.PadY),
		jit.MakeConstant("FILTER_IFM_NUM", p.Inputs[0].Feature()/attrs.Groups),
		jit.MakeConstant("FILTER_OFM_NUM", attrs.OutputFeatures/attrs.Groups),
		jit.MakeConstant("GROUPS", attrs.Groups),
		jit.MakeConstant("BIAS_TERM", attrs.HasBias),
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// mergeFusedOps composes the fused operations of p, computed in the accumulator type of the input, and
// merges them into set.
func mergeFusedOps(set *jit.Set, p *params.Params, config fusedops.Config) error {
	if len(p.FusedOps) == 0 {
		return nil
	}
	config.DType = p.Inputs[0].DType.AccumulatorType()
	fused, err := fusedops.Compose(config, p.FusedOps)
	if err != nil {
		if errors.Is(err, jit.ErrMergeConflict) {
			return err
		}
		return errors.WithMessage(err, "composing convolution fused ops")
	}
	return set.Merge(fused)
}
