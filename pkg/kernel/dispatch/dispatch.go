// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dispatch computes the work partitioning (global and local extents) of a kernel invocation.
//
// Everything here is a pure function over plain data: the device is described by a device.Info value,
// there is no device context.
package dispatch

import (
	"fmt"

	"github.com/gomlx/kernelselector/internal/xmath"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/pkg/errors"
)

// NumDims is the number of dispatch dimensions.
const NumDims = 3

// ErrInvalidGeometry is returned when no legal local extent exists for a global extent on a device.
var ErrInvalidGeometry = errors.New("invalid dispatch geometry")

// Plan is the global and local (work-group) extents of one kernel invocation.
//
// For a valid plan, every Global[i] is divisible by Local[i], and all values are >= 1.
type Plan struct {
	Global, Local [NumDims]int
}

// String implements fmt.Stringer.
func (p Plan) String() string {
	return fmt.Sprintf("global=%v local=%v", p.Global, p.Local)
}

// LocalSize returns the number of work-items in one work-group.
func (p Plan) LocalSize() int {
	return p.Local[0] * p.Local[1] * p.Local[2]
}

// WorkItems returns the total number of work-items.
func (p Plan) WorkItems() int {
	return p.Global[0] * p.Global[1] * p.Global[2]
}

// WorkGroups returns the number of work-groups. The plan must be valid.
func (p Plan) WorkGroups() int {
	groups := 1
	for dim := range NumDims {
		groups *= p.Global[dim] / p.Local[dim]
	}
	return groups
}

// Validate checks that the plan is legal to dispatch on the device.
// Errors wrap ErrInvalidGeometry.
func (p Plan) Validate(info device.Info) error {
	for dim := range NumDims {
		if p.Global[dim] < 1 || p.Local[dim] < 1 {
			return errors.Wrapf(ErrInvalidGeometry, "%s: all extents must be >= 1", p)
		}
		if p.Global[dim]%p.Local[dim] != 0 {
			return errors.Wrapf(ErrInvalidGeometry, "%s: global[%d] not divisible by local[%d]", p, dim, dim)
		}
		if limit := info.LocalLimit(dim); p.Local[dim] > limit {
			return errors.Wrapf(ErrInvalidGeometry, "%s: local[%d] exceeds device %q limit %d", p, dim, info.Name, limit)
		}
	}
	if p.LocalSize() > info.MaxWorkGroupSize {
		return errors.Wrapf(ErrInvalidGeometry, "%s: work-group size %d exceeds device %q maximum %d",
			p, p.LocalSize(), info.Name, info.MaxWorkGroupSize)
	}
	return nil
}

// NewPlan returns a plan for the global extent with the local extent picked by OptimalLocalSizes.
func NewPlan(global [NumDims]int, info device.Info) (Plan, error) {
	local, err := OptimalLocalSizes(global, info)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Global: global, Local: local}, nil
}

// FixedLocal returns a plan with the given local extent. Kernels written for a fixed sub-group/tile size
// use it. It fails with ErrInvalidGeometry if the local extent doesn't divide the global one or doesn't
// fit the device.
func FixedLocal(global, local [NumDims]int, info device.Info) (Plan, error) {
	p := Plan{Global: global, Local: local}
	if err := p.Validate(info); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// OptimalLocalSizes picks the local (work-group) extent for global on the device.
//
// Dimensions are filled in order 0, 1, 2: each takes the largest divisor of Global[i] that fits in what
// is left of the device work-group budget (and the per-dimension limit), preferring divisors that are a
// power of two or a multiple of the device preferred vector width. If no divisor > 1 has that property,
// the largest divisor that fits is used.
//
// The result is deterministic, and always divides the global extent. An error (wrapping
// ErrInvalidGeometry) is returned only for non-positive global extents or an unusable device description.
func OptimalLocalSizes(global [NumDims]int, info device.Info) (local [NumDims]int, err error) {
	if err = info.Validate(); err != nil {
		err = errors.Wrapf(ErrInvalidGeometry, "%v", err)
		return
	}
	for _, g := range global {
		if g < 1 {
			err = errors.Wrapf(ErrInvalidGeometry, "global extent %v must be >= 1 in every dimension", global)
			return
		}
	}
	used := 1
	for dim := range NumDims {
		budget := min(info.MaxWorkGroupSize/used, info.LocalLimit(dim))
		local[dim] = pickDivisor(global[dim], budget, info.PreferredVectorWidth)
		used *= local[dim]
	}
	return
}

// pickDivisor returns the largest preferred divisor of value <= budget, or the largest divisor if none is preferred.
func pickDivisor(value, budget, vectorWidth int) int {
	divisors := xmath.Divisors(value, budget)
	if len(divisors) == 0 {
		return 1
	}
	for _, d := range divisors {
		if d > 1 && (xmath.IsPowerOfTwo(d) || d%vectorWidth == 0) {
			return d
		}
	}
	return divisors[0]
}
