// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dtypes

// DType is an enum of the element data types a device kernel can be specialized for.
//
// The set is fixed: kernel variants declare which of these they accept, and tensors
// with any other value are rejected before selection.
type DType int32

//go:generate go tool enumer -type=DType -output=gen_dtype_enumer.go dtype_enum.go

const (
	// InvalidDType is the zero value, used to detect uninitialized tensor descriptors.
	InvalidDType DType = iota

	// Float16 is the IEEE-754 half-precision type ("half" in device code).
	Float16

	// Float32 is the IEEE-754 single-precision type ("float" in device code).
	Float32

	// BFloat16 is the truncated 16 bits float format, stored as "ushort" in device code.
	BFloat16

	// Int8 is a signed 8 bits integer ("char" in device code).
	Int8

	// Uint8 is an unsigned 8 bits integer ("uchar" in device code).
	Uint8

	// Int32 is a signed 32 bits integer.
	Int32

	// Int64 is a signed 64 bits integer ("long" in device code).
	Int64
)

// Aliases following the short names used by device compilers and by XLA.
const (
	F16  = Float16
	F32  = Float32
	BF16 = BFloat16
	S8   = Int8
	U8   = Uint8
	S32  = Int32
	S64  = Int64
)

// MapOfNames to their dtypes. It includes the aliases and is later initialized to
// include the lower-case version of the names.
var MapOfNames = map[string]DType{
	"InvalidDType": InvalidDType,
	"INVALID":      InvalidDType,
	"Float16":      Float16,
	"F16":          Float16,
	"FP16":         Float16,
	"half":         Float16,
	"Float32":      Float32,
	"F32":          Float32,
	"FP32":         Float32,
	"float":        Float32,
	"BFloat16":     BFloat16,
	"BF16":         BFloat16,
	"Int8":         Int8,
	"S8":           Int8,
	"INT8":         Int8,
	"Uint8":        Uint8,
	"U8":           Uint8,
	"UINT8":        Uint8,
	"Int32":        Int32,
	"S32":          Int32,
	"INT32":        Int32,
	"Int64":        Int64,
	"S64":          Int64,
	"INT64":        Int64,
}
