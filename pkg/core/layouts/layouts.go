// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package layouts defines the memory layouts of tensors handed to device kernels.
//
// A layout is named after the order of its axes in memory, from the outermost (slowest varying)
// to the innermost (contiguous) one: "bfyx" stores whole images of each feature contiguously,
// while "byxf" interleaves the features of each pixel.
package layouts

import "github.com/pkg/errors"

// Layout is an enum of the supported memory layouts.
type Layout int

//go:generate go tool enumer -type=Layout -trimprefix=Layout -transform=lower -output=gen_layout_enumer.go layouts.go

const (
	LayoutInvalid Layout = iota
	LayoutBf
	LayoutFb
	LayoutBfyx
	LayoutYxfb
	LayoutByxf
	LayoutFyxb

	// LayoutLast should always be kept the last, it is used as a counter/marker for Layout.
	LayoutLast
)

// Axis is a logical axis of a tensor, independent of its memory layout.
type Axis int

const (
	AxisBatch Axis = iota
	AxisFeature
	AxisY
	AxisX
)

// NumAxes is the maximum number of logical axes of a tensor.
const NumAxes = 4

// String returns the one letter name of the axis, as used in layout names.
func (a Axis) String() string {
	switch a {
	case AxisBatch:
		return "b"
	case AxisFeature:
		return "f"
	case AxisY:
		return "y"
	case AxisX:
		return "x"
	default:
		return "?"
	}
}

var layoutOrders = [LayoutLast][]Axis{
	LayoutBf:   {AxisBatch, AxisFeature},
	LayoutFb:   {AxisFeature, AxisBatch},
	LayoutBfyx: {AxisBatch, AxisFeature, AxisY, AxisX},
	LayoutYxfb: {AxisY, AxisX, AxisFeature, AxisBatch},
	LayoutByxf: {AxisBatch, AxisY, AxisX, AxisFeature},
	LayoutFyxb: {AxisFeature, AxisY, AxisX, AxisBatch},
}

// IsValid returns whether l is a known layout other than LayoutInvalid.
func (l Layout) IsValid() bool {
	return l > LayoutInvalid && l < LayoutLast
}

// Order returns the axes in memory order, from outermost to innermost.
// It returns nil for invalid layouts. The returned slice must not be modified.
func (l Layout) Order() []Axis {
	if !l.IsValid() {
		return nil
	}
	return layoutOrders[l]
}

// Rank returns the number of logical axes stored by the layout: 2 for "bf"/"fb", 4 otherwise.
func (l Layout) Rank() int {
	return len(l.Order())
}

// IsSpatial returns whether the layout stores the spatial axes (y, x).
func (l Layout) IsSpatial() bool {
	return l.Rank() == NumAxes
}

// Innermost returns the contiguous axis of the layout.
func (l Layout) Innermost() Axis {
	order := l.Order()
	if len(order) == 0 {
		return AxisX
	}
	return order[len(order)-1]
}

// FromName parses a layout name (case-insensitive), e.g. "bfyx".
func FromName(name string) (Layout, error) {
	l, err := LayoutString(name)
	if err != nil || l == LayoutInvalid || l == LayoutLast {
		return LayoutInvalid, errors.Errorf("unknown layout %q, valid values are %v", name, LayoutStrings()[1:len(LayoutStrings())-1])
	}
	return l, nil
}
