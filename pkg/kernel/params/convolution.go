// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package params

import (
	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Convolution holds the attributes of a 2D convolution. Weights and bias are not described: they are
// laid out by the kernels themselves.
type Convolution struct {
	FilterY, FilterX     int
	StrideY, StrideX     int
	DilationY, DilationX int
	PadY, PadX           int
	Groups               int
	OutputFeatures       int
	HasBias              bool
}

var _ Attributes = Convolution{}

// Kind implements Attributes.
func (Convolution) Kind() OpKind { return OpKindConvolution }

// Modes implements Attributes.
func (attrs Convolution) Modes() []Mode {
	var modes []Mode
	if attrs.Groups > 1 {
		modes = append(modes, ModeConvGrouped)
	}
	if attrs.DilationY > 1 || attrs.DilationX > 1 {
		modes = append(modes, ModeConvDilated)
	}
	if attrs.HasBias {
		modes = append(modes, ModeConvBias)
	}
	return modes
}

// Is1x1 returns whether this is a point-wise convolution: 1x1 filter, no striding, no dilation, no padding.
func (attrs Convolution) Is1x1() bool {
	return attrs.FilterY == 1 && attrs.FilterX == 1 &&
		attrs.StrideY == 1 && attrs.StrideX == 1 &&
		attrs.DilationY == 1 && attrs.DilationX == 1 &&
		attrs.PadY == 0 && attrs.PadX == 0
}

// OutputSpatial returns the output spatial dimensions (y, x) for the given input spatial dimensions.
func (attrs Convolution) OutputSpatial(inY, inX int) (outY, outX int) {
	outY = (inY+2*attrs.PadY-attrs.DilationY*(attrs.FilterY-1)-1)/attrs.StrideY + 1
	outX = (inX+2*attrs.PadX-attrs.DilationX*(attrs.FilterX-1)-1)/attrs.StrideX + 1
	return
}

// Validate implements Attributes. It checks that the output shape matches the convolution of the single
// input.
func (attrs Convolution) Validate(inputs []tensors.Desc, output tensors.Desc) error {
	if attrs.FilterY < 1 || attrs.FilterX < 1 || attrs.StrideY < 1 || attrs.StrideX < 1 ||
		attrs.DilationY < 1 || attrs.DilationX < 1 || attrs.PadY < 0 || attrs.PadX < 0 {
		return errors.Errorf("invalid convolution window %+v", attrs)
	}
	if attrs.Groups < 1 || attrs.OutputFeatures < 1 || attrs.OutputFeatures%attrs.Groups != 0 {
		return errors.Errorf("convolution with %d output features can't be split in %d groups",
			attrs.OutputFeatures, attrs.Groups)
	}
	if len(inputs) != 1 {
		return errors.Errorf("convolution takes exactly one input (weights are not described), got %d", len(inputs))
	}
	in := inputs[0]
	if in.Feature()%attrs.Groups != 0 {
		return errors.Errorf("convolution input features (%d) must be divisible by the number of groups (%d)",
			in.Feature(), attrs.Groups)
	}
	outY, outX := attrs.OutputSpatial(in.Y(), in.X())
	if outY < 1 || outX < 1 {
		return errors.Errorf("convolution window %+v is larger than the padded input %s", attrs, in)
	}
	if output.Batch() != in.Batch() || output.Feature() != attrs.OutputFeatures || output.Y() != outY || output.X() != outX {
		return errors.Errorf("convolution output %s doesn't match expected [b=%d f=%d y=%d x=%d]",
			output, in.Batch(), attrs.OutputFeatures, outY, outX)
	}
	return nil
}
