// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dtypes includes the DType enum for the element types device kernels can be specialized for.
//
// It is a reduced version of GoMLX's dtypes package: it keeps only the types an accelerator kernel
// template is written for, and adds what kernel specialization needs: the device-code type name used
// in JIT constants, the storage size and the numeric limits (rendered as VAL_MAX/VAL_MIN constants).
//
// Float16 support uses github.com/x448/float16.
package dtypes

import (
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

func init() {
	// Add a mapping to the lower-case version of dtypes.
	keys := slices.Collect(maps.Keys(MapOfNames))
	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if lowerKey == key {
			continue
		}
		if _, found := MapOfNames[lowerKey]; found {
			continue
		}
		MapOfNames[lowerKey] = MapOfNames[key]
	}
}

// FromName returns the DType for the given name or alias (case-insensitive).
func FromName(name string) (DType, error) {
	if dtype, found := MapOfNames[name]; found {
		return dtype, nil
	}
	if dtype, found := MapOfNames[strings.ToLower(name)]; found {
		return dtype, nil
	}
	return InvalidDType, errors.Errorf("unknown dtype %q, valid values are %v", name, DTypeStrings()[1:])
}

// IsSupported returns whether dtype is one of the enumerated (and valid) types.
func (dtype DType) IsSupported() bool {
	return dtype != InvalidDType && dtype.IsADType()
}

// Size returns the number of bytes used to store one element.
// It returns 0 for InvalidDType.
func (dtype DType) Size() int {
	switch dtype {
	case Int8, Uint8:
		return 1
	case Float16, BFloat16:
		return 2
	case Float32, Int32:
		return 4
	case Int64:
		return 8
	default:
		return 0
	}
}

// Bits returns the number of bits used to store one element.
func (dtype DType) Bits() int {
	return dtype.Size() * 8
}

// IsFloat returns whether dtype is a floating point type.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == Float32 || dtype == BFloat16
}

// IsInt returns whether dtype is an integer type (signed or unsigned).
func (dtype DType) IsInt() bool {
	return dtype == Int8 || dtype == Uint8 || dtype == Int32 || dtype == Int64
}

// IsUnsigned returns whether dtype is an unsigned integer.
func (dtype DType) IsUnsigned() bool {
	return dtype == Uint8
}

// IsQuantized returns whether dtype is one of the 8 bits types used for quantized outputs.
func (dtype DType) IsQuantized() bool {
	return dtype == Int8 || dtype == Uint8
}

// DeviceType returns the name of the type in device code (OpenCL C), used for *_TYPE JIT constants.
func (dtype DType) DeviceType() string {
	switch dtype {
	case Float16:
		return "half"
	case Float32:
		return "float"
	case BFloat16:
		return "ushort"
	case Int8:
		return "char"
	case Uint8:
		return "uchar"
	case Int32:
		return "int"
	case Int64:
		return "long"
	default:
		return "void"
	}
}

// AccumulatorType returns the dtype used to accumulate intermediate results of kernels whose
// data is of type dtype: quantized and bfloat16 data is accumulated in Float32, half stays half.
func (dtype DType) AccumulatorType() DType {
	switch dtype {
	case Float16:
		return Float16
	case Int32, Int64:
		return dtype
	default:
		return Float32
	}
}

var (
	// float16Highest is the largest finite half value (0x7bff = 65504).
	float16Highest = float64(float16.Frombits(0x7bff).Float32())

	// bfloat16Highest is the largest finite bfloat16 value (0x7f7f).
	bfloat16Highest = float64(math.Float32frombits(0x7f7f << 16))
)

// HighestValue returns the largest finite value representable by dtype.
func (dtype DType) HighestValue() float64 {
	switch dtype {
	case Float16:
		return float16Highest
	case BFloat16:
		return bfloat16Highest
	case Float32:
		return math.MaxFloat32
	case Int8:
		return math.MaxInt8
	case Uint8:
		return math.MaxUint8
	case Int32:
		return math.MaxInt32
	case Int64:
		return math.MaxInt64
	default:
		return 0
	}
}

// LowestValue returns the most negative finite value representable by dtype.
func (dtype DType) LowestValue() float64 {
	switch dtype {
	case Float16, BFloat16, Float32:
		return -dtype.HighestValue()
	case Int8:
		return math.MinInt8
	case Uint8:
		return 0
	case Int32:
		return math.MinInt32
	case Int64:
		return math.MinInt64
	default:
		return 0
	}
}

// IsRepresentable returns whether value is finite and within the range of dtype, after rounding to its
// precision. Used to validate constants that are bound into kernels working on dtype.
func (dtype DType) IsRepresentable(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	if dtype == Float16 {
		half := float16.Fromfloat32(float32(value))
		return !half.IsInf(0) && !half.IsNaN()
	}
	return value >= dtype.LowestValue() && value <= dtype.HighestValue()
}
