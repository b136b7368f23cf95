// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package common holds what is shared by all kernel families: the base structural validation of
// variants and the JIT constants describing the tensors of an operation.
package common

import (
	"fmt"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/pkg/errors"
)

// Base implements the Name and SupportedKey methods of selector.Variant, and the base validation.
// Variants embed it.
type Base struct {
	VariantName string
	Key         capability.Key
}

// Name implements selector.Variant.
func (b *Base) Name() string { return b.VariantName }

// SupportedKey implements selector.Variant.
func (b *Base) SupportedKey() capability.Key { return b.Key }

// ValidateBase checks that p is well-formed and that every data type, layout, mode, tensor feature and
// fused op kind it uses is declared by the variant's key. Variants call it before their own checks.
func (b *Base) ValidateBase(p *params.Params) error {
	if err := p.Validate(); err != nil {
		return errors.Wrapf(selector.ErrValidationFailed, "%s: %v", b.VariantName, err)
	}
	if missing := b.Key.Missing(capability.RequiredFor(p)); !missing.IsEmpty() {
		return errors.Wrapf(selector.ErrValidationFailed, "%s: unsupported %s", b.VariantName, missing)
	}
	return nil
}

// Rejectf returns an error wrapping selector.ErrValidationFailed, for variant-specific checks.
func Rejectf(variant, format string, args ...any) error {
	return errors.Wrapf(selector.ErrValidationFailed, "%s: %s", variant, fmt.Sprintf(format, args...))
}

// Constants returns the constants common to every kernel: the description of every input
// ("INPUT0_...", "INPUT1_...") and of the output ("OUTPUT_..."), the unit type (data type of the first
// input), its accumulator type and whether half precision is used.
func Constants(p *params.Params) (*jit.Set, error) {
	set := &jit.Set{}
	for ii, input := range p.Inputs {
		if err := set.Add(TensorConstants(fmt.Sprintf("INPUT%d", ii), input)...); err != nil {
			return nil, err
		}
	}
	if err := set.Add(TensorConstants("OUTPUT", p.Output)...); err != nil {
		return nil, err
	}
	unit := p.Inputs[0].DType
	err := set.Add(
		jit.MakeConstant("FP16_SUPPORTED", p.Device.SupportsFP16),
		jit.MakeConstant("FP16_UNIT_USED", unit == dtypes.Float16),
		jit.MakeConstant("UNIT_TYPE", unit),
		jit.MakeConstant("ACCUMULATOR_TYPE", unit.AccumulatorType()),
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}
