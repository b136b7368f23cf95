// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package params

import (
	"math"
	"slices"

	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/pkg/errors"
)

// LRNNormMode selects over which window the local response normalization is computed.
type LRNNormMode int

const (
	LRNAcrossChannel LRNNormMode = iota
	LRNWithinChannel
)

// String returns the name of the normalization mode.
func (m LRNNormMode) String() string {
	if m == LRNWithinChannel {
		return "within_channel"
	}
	return "across_channel"
}

// LRNDivider selects how the sum of squares is scaled.
type LRNDivider int

const (
	LRNDividerFixed LRNDivider = iota
	LRNDividerDynamic
)

// String returns the name of the divider mode.
func (d LRNDivider) String() string {
	if d == LRNDividerDynamic {
		return "dynamic"
	}
	return "fixed"
}

// LRN holds the attributes of a local response normalization:
//
//	output = input / (K + Alpha/LocalSize * sum(input^2 over window))^Beta
type LRN struct {
	LocalSize int
	NormMode  LRNNormMode
	Divider   LRNDivider
	Alpha     float64
	Beta      float64
	K         float64
}

var _ Attributes = LRN{}

// Kind implements Attributes.
func (LRN) Kind() OpKind { return OpKindLRN }

// Modes implements Attributes.
func (attrs LRN) Modes() []Mode {
	modes := make([]Mode, 0, 2)
	if attrs.NormMode == LRNWithinChannel {
		modes = append(modes, ModeLRNWithinChannel)
	} else {
		modes = append(modes, ModeLRNAcrossChannel)
	}
	if attrs.Divider == LRNDividerDynamic {
		modes = append(modes, ModeLRNDividerDynamic)
	} else {
		modes = append(modes, ModeLRNDividerFixed)
	}
	return modes
}

// Validate implements Attributes. LRN takes one input and preserves its shape.
func (attrs LRN) Validate(inputs []tensors.Desc, output tensors.Desc) error {
	if attrs.LocalSize < 1 {
		return errors.Errorf("LRN LocalSize must be >= 1, got %d", attrs.LocalSize)
	}
	if attrs.NormMode != LRNAcrossChannel && attrs.NormMode != LRNWithinChannel {
		return errors.Errorf("invalid LRN normalization mode %d", attrs.NormMode)
	}
	if attrs.Divider != LRNDividerFixed && attrs.Divider != LRNDividerDynamic {
		return errors.Errorf("invalid LRN divider mode %d", attrs.Divider)
	}
	for _, v := range []float64{attrs.Alpha, attrs.Beta, attrs.K} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("LRN attributes must be finite: %+v", attrs)
		}
	}
	if len(inputs) != 1 {
		return errors.Errorf("LRN takes exactly one input, got %d", len(inputs))
	}
	if in := inputs[0]; !slices.Equal(in.Dimensions, output.Dimensions) {
		return errors.Errorf("LRN output %s must have the same dimensions as the input %s", output, in)
	}
	return nil
}
