// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors defines Desc, the description of a tensor as seen by a device kernel:
// element type, memory layout, logical dimensions and padding.
//
// Dimensions are always given in logical order (batch, feature, y, x), independently of the layout.
// The layout determines the pitches (strides, in elements) of each axis in memory, and padding
// determines the physical extent of each axis and the offset of the first logical element.
package tensors

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/pkg/errors"
)

// Desc describes a tensor handed to a kernel. It is a plain value: descriptors are
// compared and copied freely, but the slices should not be mutated after construction.
type Desc struct {
	DType  dtypes.DType
	Layout layouts.Layout

	// Dimensions in logical order: batch, feature and, for spatial layouts, y and x.
	Dimensions []int

	// PadBefore and PadAfter hold the padding of each logical axis (same order as Dimensions).
	// nil means no padding.
	PadBefore, PadAfter []int
}

// Make returns a Desc with the given dimensions and no padding.
// It panics if a dimension is <= 0: use it with static values.
func Make(dtype dtypes.DType, layout layouts.Layout, dimensions ...int) Desc {
	d := Desc{DType: dtype, Layout: layout, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("tensors.Make(%s): cannot create a tensor with an axis with dimension <= 0", d)
		}
	}
	return d
}

// WithPadding returns a copy of d with the given padding per logical axis.
func (d Desc) WithPadding(before, after []int) Desc {
	d2 := d.Clone()
	d2.PadBefore = slices.Clone(before)
	d2.PadAfter = slices.Clone(after)
	return d2
}

// Clone returns a deep copy of d.
func (d Desc) Clone() Desc {
	return Desc{
		DType:      d.DType,
		Layout:     d.Layout,
		Dimensions: slices.Clone(d.Dimensions),
		PadBefore:  slices.Clone(d.PadBefore),
		PadAfter:   slices.Clone(d.PadAfter),
	}
}

// Equal returns whether d and other describe the same tensor.
func (d Desc) Equal(other Desc) bool {
	return d.DType == other.DType && d.Layout == other.Layout &&
		slices.Equal(d.Dimensions, other.Dimensions) &&
		slices.Equal(d.padding(d.PadBefore), other.padding(other.PadBefore)) &&
		slices.Equal(d.padding(d.PadAfter), other.padding(other.PadAfter))
}

// Validate checks the invariants of a tensor descriptor: supported dtype, valid layout,
// one dimension per layout axis and every dimension >= 1.
func (d Desc) Validate() error {
	if !d.DType.IsSupported() {
		return errors.Errorf("tensor %s: unsupported dtype %s", d, d.DType)
	}
	if !d.Layout.IsValid() {
		return errors.Errorf("tensor %s: invalid layout %s", d, d.Layout)
	}
	if len(d.Dimensions) == 0 {
		return errors.Errorf("tensor %s: empty shape", d)
	}
	if len(d.Dimensions) != d.Layout.Rank() {
		return errors.Errorf("tensor %s: layout %s requires %d dimensions, got %d",
			d, d.Layout, d.Layout.Rank(), len(d.Dimensions))
	}
	for axis, dim := range d.Dimensions {
		if dim < 1 {
			return errors.Errorf("tensor %s: dimension of axis %s must be >= 1, got %d", d, layouts.Axis(axis), dim)
		}
	}
	for _, pad := range [][]int{d.PadBefore, d.PadAfter} {
		if pad == nil {
			continue
		}
		if len(pad) != len(d.Dimensions) {
			return errors.Errorf("tensor %s: padding must have %d values, got %d", d, len(d.Dimensions), len(pad))
		}
		for _, p := range pad {
			if p < 0 {
				return errors.Errorf("tensor %s: negative padding %v", d, pad)
			}
		}
	}
	return nil
}

// Rank returns the number of logical axes.
func (d Desc) Rank() int { return len(d.Dimensions) }

// Dim returns the logical dimension of the axis, or 1 if the tensor doesn't hold the axis.
func (d Desc) Dim(axis layouts.Axis) int {
	if int(axis) >= len(d.Dimensions) {
		return 1
	}
	return d.Dimensions[axis]
}

// Batch dimension.
func (d Desc) Batch() int { return d.Dim(layouts.AxisBatch) }

// Feature (channels) dimension.
func (d Desc) Feature() int { return d.Dim(layouts.AxisFeature) }

// Y (height) dimension, 1 for non-spatial tensors.
func (d Desc) Y() int { return d.Dim(layouts.AxisY) }

// X (width) dimension, 1 for non-spatial tensors.
func (d Desc) X() int { return d.Dim(layouts.AxisX) }

// LogicalSize returns the number of logical elements.
func (d Desc) LogicalSize() int {
	size := 1
	for _, dim := range d.Dimensions {
		size *= dim
	}
	return size
}

func (d Desc) padding(pad []int) []int {
	if pad == nil {
		return make([]int, len(d.Dimensions))
	}
	return pad
}

func (d Desc) padAt(pad []int, axis layouts.Axis) int {
	if int(axis) >= len(pad) {
		return 0
	}
	return pad[axis]
}

// PaddedDim returns the physical extent of the axis: its dimension plus padding before and after.
func (d Desc) PaddedDim(axis layouts.Axis) int {
	return d.Dim(axis) + d.padAt(d.PadBefore, axis) + d.padAt(d.PadAfter, axis)
}

// Pitch returns the distance in elements between two consecutive positions of the axis,
// which is the product of the padded extents of all axes inner to it in the layout.
// Axes not held by the layout have pitch equal to the whole physical size.
func (d Desc) Pitch(axis layouts.Axis) int {
	order := d.Layout.Order()
	idx := slices.Index(order, axis)
	if idx < 0 {
		return d.PhysicalSize()
	}
	pitch := 1
	for _, inner := range order[idx+1:] {
		pitch *= d.PaddedDim(inner)
	}
	return pitch
}

// PhysicalSize returns the number of elements stored in memory, including padding.
func (d Desc) PhysicalSize() int {
	size := 1
	for _, axis := range d.Layout.Order() {
		size *= d.PaddedDim(axis)
	}
	return size
}

// Offset returns the linear index of the first logical element, which is non-zero when
// some axis has padding before it.
func (d Desc) Offset() int {
	offset := 0
	for _, axis := range d.Layout.Order() {
		offset += d.padAt(d.PadBefore, axis) * d.Pitch(axis)
	}
	return offset
}

// IsPadded returns whether any axis has padding, in which case pitches differ from the dense ones.
func (d Desc) IsPadded() bool {
	for _, p := range d.PadBefore {
		if p != 0 {
			return true
		}
	}
	for _, p := range d.PadAfter {
		if p != 0 {
			return true
		}
	}
	return false
}

// HasOffset returns whether the first logical element is not at the start of the buffer.
func (d Desc) HasOffset() bool {
	return d.Offset() != 0
}

// String implements fmt.Stringer, e.g.: "(Float16)[1 16 8 8]@byxf".
func (d Desc) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(%s)%v@%s", d.DType, d.Dimensions, d.Layout)
	if d.IsPadded() {
		fmt.Fprintf(&sb, " pad=%v/%v", d.padding(d.PadBefore), d.padding(d.PadAfter))
	}
	return sb.String()
}
