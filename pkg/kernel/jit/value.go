// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package jit

import (
	"math"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/x448/float16"
)

// Constant is one named literal bound into a kernel template.
//
// Value is already rendered as the literal that follows the name in the "NAME = literal" form
// handed to the kernel compiler.
type Constant struct {
	Name  string
	Value string
}

// String returns "NAME = literal".
func (c Constant) String() string {
	return c.Name + " = " + c.Value
}

// MakeConstant renders value as a kernel source literal and returns the corresponding Constant.
//
// Supported value types are Go integers, bool (rendered as 1 or 0), float32, float16.Float16
// (both rendered with an "f" suffix), float64, string (rendered verbatim) and dtypes.DType
// (rendered as the kernel type name).
//
// It panics for any other type: constants are built by kernel variants, and an unsupported type is a
// programming error.
func MakeConstant(name string, value any) Constant {
	if name == "" {
		exceptions.Panicf("jit.MakeConstant: empty constant name (value=%v)", value)
	}
	literal, ok := Literal(value)
	if !ok {
		exceptions.Panicf("jit.MakeConstant(%q): unsupported value type %T", name, value)
	}
	return Constant{Name: name, Value: literal}
}

// Literal renders value as a kernel source literal, see MakeConstant.
// It returns false if the type of value is not supported.
func Literal(value any) (string, bool) {
	switch v := value.(type) {
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return formatFloat(float64(v), 32), true
	case float16.Float16:
		return formatFloat(float64(v.Float32()), 32), true
	case float64:
		return formatFloat(v, 64), true
	case string:
		return v, true
	case dtypes.DType:
		return v.DeviceType(), true
	}
	return "", false
}

// formatFloat uses the shortest decimal representation that parses back to the exact same value,
// so no precision is lost in the generated source.
func formatFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "INFINITY"
	case math.IsInf(v, -1):
		return "-INFINITY"
	}
	s := strconv.FormatFloat(v, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if bitSize == 32 {
		s += "f"
	}
	return s
}
