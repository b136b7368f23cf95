// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package device

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Host returns an Info describing the host CPU as a compute device, as exposed by CPU OpenCL runtimes:
// one compute unit per logical CPU and the vector width of the widest SIMD extension available for float32.
func Host() Info {
	vectorWidth := 4
	switch {
	case cpu.X86.HasAVX512F:
		vectorWidth = 16
	case cpu.X86.HasAVX2:
		vectorWidth = 8
	case cpu.ARM64.HasASIMD:
		vectorWidth = 4
	}
	info := Info{
		Name:                 "host",
		MaxWorkGroupSize:     1024,
		MaxWorkItemSizes:     [3]int{1024, 1024, 1024},
		PreferredVectorWidth: vectorWidth,
		ComputeUnits:         max(runtime.NumCPU(), 1),
		SupportsFP16:         cpu.ARM64.HasFPHP || cpu.X86.HasAVX512F,
	}
	if vectorWidth >= 8 {
		info.SubgroupSizes = []int{vectorWidth}
	}
	return info
}
