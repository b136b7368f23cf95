// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package lrn implements the kernel variants of local response normalization (LRN).
//
// Variants, in registration order:
//
//   - lrn_ref: generic reference, any supported layout and mode. Fallback priority.
//   - lrn_within_channel_ref: reference for within-channel normalization in bfyx.
//   - lrn_within_channel_byxf_opt: optimized within-channel normalization for byxf, processing 8
//     features per work-item.
//   - lrn_across_channel_multiple_features: across-channel normalization computing 2 or 4 output
//     features per work-item.
package lrn

import (
	"math"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernels/common"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/pkg/errors"
)

// Variants returns new instances of all LRN variants, in registration order.
func Variants() []selector.Variant {
	return []selector.Variant{
		NewRef(),
		NewWithinChannelRef(),
		NewWithinChannelByxfOpt(),
		NewAcrossChannelMultipleFeatures(),
	}
}

// Register all LRN variants in r.
func Register(r *selector.Registry) {
	for _, v := range Variants() {
		r.Register(params.OpKindLRN, v)
	}
}

// allFusedOps lists the fused post-operation kinds LRN kernels can apply.
var allFusedOps = []fusedops.Kind{fusedops.KindActivation, fusedops.KindScale, fusedops.KindQuantize, fusedops.KindEltwise}

// base holds what is shared by all LRN variants.
type base struct {
	common.Base
}

// attributes returns the LRN attributes of p. p must have been validated.
func attributes(p *params.Params) params.LRN {
	return p.Attributes.(params.LRN)
}

// validate runs the base validation and checks p describes an LRN.
func (b *base) validate(p *params.Params) error {
	if err := b.ValidateBase(p); err != nil {
		return err
	}
	if _, ok := p.Attributes.(params.LRN); !ok {
		return common.Rejectf(b.VariantName, "attributes %T are not LRN attributes", p.Attributes)
	}
	return nil
}

// constants returns the common tensor constants plus the normalization constants shared by all LRN
// kernels.
func (b *base) constants(p *params.Params) (*jit.Set, error) {
	set, err := common.Constants(p)
	if err != nil {
		return nil, err
	}
	attrs := attributes(p)
	localSize := float64(attrs.LocalSize)
	alphaDivBySize := attrs.Alpha / localSize
	var alphaSign float64
	switch {
	case attrs.Alpha > 0:
		alphaSign = 1
	case attrs.Alpha < 0:
		alphaSign = -1
	}
	alphaValFactor := math.Sqrt(math.Abs(alphaDivBySize))
	if attrs.Divider == params.LRNDividerDynamic {
		alphaValFactor = math.Sqrt(math.Abs(attrs.Alpha))
	}
	constants := []jit.Constant{
		jit.MakeConstant("LOCAL_SIZE", attrs.LocalSize),
		jit.MakeConstant("PADDING", (attrs.LocalSize-1)/2),
		jit.MakeConstant("ALPHA", float32(attrs.Alpha)),
		jit.MakeConstant("BETA", float32(attrs.Beta)),
		jit.MakeConstant("K", float32(attrs.K)),
		jit.MakeConstant("ALPHA_DIV_BY_SIZE", float32(alphaDivBySize)),
		jit.MakeConstant("ALPHA_AFTER_FACTORED", float32(alphaSign)),
		jit.MakeConstant("ALPHA_VAL_FACTOR", float32(alphaValFactor)),
	}
	if attrs.Divider == params.LRNDividerDynamic {
		constants = append(constants, jit.MakeConstant("DYNAMIC_KERNEL_DIVIDER", 1))
	} else {
		constants = append(constants, jit.MakeConstant("FIX_KERNEL_DIVIDER", 1))
	}
	if attrs.NormMode == params.LRNWithinChannel {
		constants = append(constants, jit.MakeConstant("WITHIN_CHANNEL", 1))
	} else {
		constants = append(constants, jit.MakeConstant("ACROSS_CHANNEL", 1))
	}
	if err := set.Add(constants...); err != nil {
		return nil, err
	}
	return set, nil
}

// mergeFusedOps composes the fused post-operations of p with config, and merges them into set.
// The compute type of the configuration is the input data type.
func mergeFusedOps(set *jit.Set, p *params.Params, config fusedops.Config) error {
	if len(p.FusedOps) == 0 {
		return nil
	}
	config.DType = p.Inputs[0].DType
	fused, err := fusedops.Compose(config, p.FusedOps)
	if err != nil {
		if errors.Is(err, jit.ErrMergeConflict) {
			return err
		}
		return errors.WithMessage(err, "composing LRN fused ops")
	}
	return set.Merge(fused)
}

// inputTypes and outputTypes are the data types handled by most LRN kernels.
var (
	inputTypes  = []dtypes.DType{dtypes.Float16, dtypes.Float32}
	outputTypes = []dtypes.DType{dtypes.Float16, dtypes.Float32, dtypes.Int8, dtypes.Uint8}
)
