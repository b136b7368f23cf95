// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package common

import (
	"math"
	"strings"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/x448/float16"
)

// TensorConstants returns the constants describing one tensor, all prefixed with prefix (e.g. "INPUT0"
// or "OUTPUT"): type, sizes, pitches, offset, length, layout and the limits of its data type.
func TensorConstants(prefix string, d tensors.Desc) []jit.Constant {
	name := func(suffix string) string { return prefix + "_" + suffix }
	maxValue, minValue := limits(d.DType)
	return []jit.Constant{
		jit.MakeConstant(name("TYPE"), d.DType),
		jit.MakeConstant(name("SIZE_X"), d.X()),
		jit.MakeConstant(name("SIZE_Y"), d.Y()),
		jit.MakeConstant(name("FEATURE_NUM"), d.Feature()),
		jit.MakeConstant(name("BATCH_NUM"), d.Batch()),
		jit.MakeConstant(name("X_PITCH"), d.Pitch(layouts.AxisX)),
		jit.MakeConstant(name("Y_PITCH"), d.Pitch(layouts.AxisY)),
		jit.MakeConstant(name("FEATURE_PITCH"), d.Pitch(layouts.AxisFeature)),
		jit.MakeConstant(name("BATCH_PITCH"), d.Pitch(layouts.AxisBatch)),
		jit.MakeConstant(name("OFFSET"), d.Offset()),
		jit.MakeConstant(name("LENGTH"), d.PhysicalSize()),
		jit.MakeConstant(name("LAYOUT_"+strings.ToUpper(d.Layout.String())), 1),
		jit.MakeConstant(name("VAL_MAX"), maxValue),
		jit.MakeConstant(name("VAL_MIN"), minValue),
	}
}

// limits returns the highest and lowest values of dtype, typed so their literals match the kernel type.
func limits(dtype dtypes.DType) (highest, lowest any) {
	switch dtype {
	case dtypes.Float16:
		h := float16.Fromfloat32(float32(dtype.HighestValue()))
		return h, float16.Fromfloat32(-h.Float32())
	case dtypes.Float32, dtypes.BFloat16:
		return float32(dtype.HighestValue()), float32(dtype.LowestValue())
	case dtypes.Int64:
		return int64(math.MaxInt64), int64(math.MinInt64)
	default:
		return int64(dtype.HighestValue()), int64(dtype.LowestValue())
	}
}
