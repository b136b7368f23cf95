// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package capability defines the Key kernel variants use to declare what they can handle (data types,
// layouts, modes, tensor features and fused post-operations), and the derivation of the Key an operation
// instance requires.
//
// A variant can handle an operation if its declared Key supports the operation's required Key: every
// element required is declared.
package capability

import (
	"fmt"
	"strings"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
)

// Flag is a boolean capability about how tensors are described.
type Flag int

const (
	// FlagTensorOffset indicates tensors whose first element is not at the start of the buffer (padding before).
	FlagTensorOffset Flag = iota
	// FlagTensorPitches indicates padded tensors, whose pitches differ from the dense ones.
	FlagTensorPitches
	// FlagBatching indicates batch size > 1.
	FlagBatching
	// FlagDifferentTypes indicates output data type different from the input one.
	FlagDifferentTypes

	// FlagLast should always be kept the last.
	FlagLast
)

// String returns the name of the flag.
func (f Flag) String() string {
	switch f {
	case FlagTensorOffset:
		return "tensor_offset"
	case FlagTensorPitches:
		return "tensor_pitches"
	case FlagBatching:
		return "batching"
	case FlagDifferentTypes:
		return "different_types"
	default:
		return "unknown"
	}
}

// Key declares (for a kernel variant) or requires (for an operation instance) a set of capabilities.
//
// Key is comparable and has no reference to any operation instance.
type Key struct {
	InputTypes    Set[dtypes.DType]
	OutputTypes   Set[dtypes.DType]
	InputLayouts  Set[layouts.Layout]
	OutputLayouts Set[layouts.Layout]
	Modes         Set[params.Mode]
	Flags         Set[Flag]
	FusedOps      Set[fusedops.Kind]
}

// EnableInputTypes adds accepted input data types.
func (k *Key) EnableInputTypes(types ...dtypes.DType) *Key {
	k.InputTypes = k.InputTypes.With(types...)
	return k
}

// EnableOutputTypes adds accepted output data types.
func (k *Key) EnableOutputTypes(types ...dtypes.DType) *Key {
	k.OutputTypes = k.OutputTypes.With(types...)
	return k
}

// EnableInputLayouts adds accepted input layouts.
func (k *Key) EnableInputLayouts(ls ...layouts.Layout) *Key {
	k.InputLayouts = k.InputLayouts.With(ls...)
	return k
}

// EnableOutputLayouts adds accepted output layouts.
func (k *Key) EnableOutputLayouts(ls ...layouts.Layout) *Key {
	k.OutputLayouts = k.OutputLayouts.With(ls...)
	return k
}

// EnableModes adds accepted operation modes.
func (k *Key) EnableModes(modes ...params.Mode) *Key {
	k.Modes = k.Modes.With(modes...)
	return k
}

// EnableFlags adds supported tensor features.
func (k *Key) EnableFlags(flags ...Flag) *Key {
	k.Flags = k.Flags.With(flags...)
	return k
}

// EnableAllFlags enables tensor offsets, pitches, batching and different input/output types.
func (k *Key) EnableAllFlags() *Key {
	return k.EnableFlags(FlagTensorOffset, FlagTensorPitches, FlagBatching, FlagDifferentTypes)
}

// EnableFusedOps adds supported fused post-operation kinds.
func (k *Key) EnableFusedOps(kinds ...fusedops.Kind) *Key {
	k.FusedOps = k.FusedOps.With(kinds...)
	return k
}

// RequiredFor returns the Key an operation instance requires: the data types and layouts of its tensors,
// its mode flags, the tensor features it uses and the kinds of its fused post-operations.
func RequiredFor(p *params.Params) Key {
	var k Key
	for _, input := range p.Inputs {
		k.EnableInputTypes(input.DType)
		k.EnableInputLayouts(input.Layout)
		if input.DType != p.Output.DType {
			k.EnableFlags(FlagDifferentTypes)
		}
	}
	k.EnableOutputTypes(p.Output.DType)
	k.EnableOutputLayouts(p.Output.Layout)
	k.EnableModes(p.Modes()...)
	for _, t := range p.Tensors() {
		if t.HasOffset() {
			k.EnableFlags(FlagTensorOffset)
		}
		if t.IsPadded() {
			k.EnableFlags(FlagTensorPitches)
		}
	}
	if p.Output.Batch() > 1 {
		k.EnableFlags(FlagBatching)
	}
	k.EnableFusedOps(fusedops.Kinds(p.FusedOps)...)
	return k
}

// Supports returns whether k declares every capability in required.
func (k Key) Supports(required Key) bool {
	return k.Missing(required).IsEmpty()
}

// Missing returns the capabilities in required that k doesn't declare.
func (k Key) Missing(required Key) Key {
	return Key{
		InputTypes:    required.InputTypes.Difference(k.InputTypes),
		OutputTypes:   required.OutputTypes.Difference(k.OutputTypes),
		InputLayouts:  required.InputLayouts.Difference(k.InputLayouts),
		OutputLayouts: required.OutputLayouts.Difference(k.OutputLayouts),
		Modes:         required.Modes.Difference(k.Modes),
		Flags:         required.Flags.Difference(k.Flags),
		FusedOps:      required.FusedOps.Difference(k.FusedOps),
	}
}

// IsEmpty returns whether no capability is set.
func (k Key) IsEmpty() bool {
	return k == Key{}
}

// String lists the non-empty fields.
func (k Key) String() string {
	var parts []string
	add := func(name string, s interface {
		IsEmpty() bool
		String() string
	}) {
		if !s.IsEmpty() {
			parts = append(parts, fmt.Sprintf("%s=%s", name, s))
		}
	}
	add("in_types", k.InputTypes)
	add("out_types", k.OutputTypes)
	add("in_layouts", k.InputLayouts)
	add("out_layouts", k.OutputLayouts)
	add("modes", k.Modes)
	add("flags", k.Flags)
	add("fused_ops", k.FusedOps)
	return "Key{" + strings.Join(parts, " ") + "}"
}
