// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package selector

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
)

// Variant is one concrete kernel implementation competing with others for the same kind of operation.
//
// Variants are registered once in a Registry and are shared, read-only, by concurrent selections: all
// methods must be safe for concurrent use and must not modify the given params.
type Variant interface {
	// Name uniquely identifies the variant in a Registry, e.g. "lrn_within_channel_byxf_opt".
	Name() string

	// SupportedKey declares what the variant can handle. It must be pure: it can't depend on any
	// operation instance and always returns the same key.
	SupportedKey() capability.Key

	// Validate checks constraints beyond what the key can express (e.g. alignment of the number of
	// features). Implementations check first that the params match SupportedKey.
	Validate(p *params.Params) error

	// DefaultDispatch returns the dispatch geometry for p.
	DefaultDispatch(p *params.Params) (dispatch.Plan, error)

	// GenerateConstants returns the JIT constants that specialize the kernel template for p and plan.
	GenerateConstants(p *params.Params, plan dispatch.Plan) (*jit.Set, error)

	// Priority of the variant for p: higher is better.
	Priority(p *params.Params) Priority
}

// Priority ranks the variants that can handle an operation: the highest priority is selected.
type Priority float64

// PriorityFallback is the lowest priority, for generic reference implementations that should be used
// only if nothing else can handle the operation.
const PriorityFallback Priority = 0

// MaxForcedLevel is the number of forced priority levels.
const MaxForcedLevel = 9

// ForcePriority returns the priority of a forced level, from 1 (best) to MaxForcedLevel (worst of the
// forced ones, still above PriorityFallback).
//
// It panics for levels out of range.
func ForcePriority(level int) Priority {
	if level < 1 || level > MaxForcedLevel {
		exceptions.Panicf("ForcePriority(%d): level must be between 1 and %d", level, MaxForcedLevel)
	}
	return Priority(MaxForcedLevel + 1 - level)
}
