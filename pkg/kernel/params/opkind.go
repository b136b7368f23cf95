// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package params

// OpKind is an enum of the operations kernels can be selected for.
type OpKind int

//go:generate go tool enumer -type=OpKind -trimprefix=OpKind -output=gen_opkind_enumer.go opkind.go

const (
	OpKindInvalid OpKind = iota
	OpKindLRN
	OpKindConvolution

	// OpKindLast should always be kept the last, it is used as a counter/marker for OpKind.
	OpKindLast
)

// Mode is an operation-specific mode flag, declared by kernel variants in their capability keys.
type Mode int

const (
	ModeInvalid Mode = iota

	// ModeLRNAcrossChannel normalizes over a window of neighbouring features.
	ModeLRNAcrossChannel
	// ModeLRNWithinChannel normalizes over a spatial window of the same feature.
	ModeLRNWithinChannel
	// ModeLRNDividerFixed uses alpha/LocalSize as the factor of the sum of squares.
	ModeLRNDividerFixed
	// ModeLRNDividerDynamic divides by the number of elements actually inside the window.
	ModeLRNDividerDynamic

	ModeConvGrouped
	ModeConvDilated
	ModeConvBias

	// ModeLast should always be kept the last.
	ModeLast
)

var modeNames = [...]string{
	ModeInvalid:           "invalid",
	ModeLRNAcrossChannel:  "lrn_across_channel",
	ModeLRNWithinChannel:  "lrn_within_channel",
	ModeLRNDividerFixed:   "lrn_divider_fixed",
	ModeLRNDividerDynamic: "lrn_divider_dynamic",
	ModeConvGrouped:       "conv_grouped",
	ModeConvDilated:       "conv_dilated",
	ModeConvBias:          "conv_bias",
	ModeLast:              "last",
}

// String returns the name of the mode.
func (m Mode) String() string {
	if m < 0 || m > ModeLast {
		return "unknown"
	}
	return modeNames[m]
}
