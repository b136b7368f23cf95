// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package device describes the characteristics of the accelerator kernels are selected for.
//
// Info is plain data: there is no device context, no driver query. Callers either build an Info
// themselves, use one of the named presets, or let FromEnv pick the preset configured in the
// KERNELSELECT_DEVICE environment variable.
package device

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Info holds the device characteristics used by the work-group sizing heuristics and
// by the variants' validation.
type Info struct {
	// Name of the device or preset, informative only.
	Name string

	// MaxWorkGroupSize is the maximum number of work-items in one work-group.
	MaxWorkGroupSize int

	// MaxWorkItemSizes limits the local size on each of the 3 dispatch dimensions.
	// A zero value means no limit besides MaxWorkGroupSize.
	MaxWorkItemSizes [3]int

	// PreferredVectorWidth is the preferred number of lanes of the device SIMD units.
	PreferredVectorWidth int

	// SubgroupSizes lists the sub-group sizes supported by the device, empty if the device
	// doesn't support sub-groups.
	SubgroupSizes []int

	// ComputeUnits is the number of compute units (execution unit clusters).
	ComputeUnits int

	// SupportsFP16 indicates native half precision arithmetic.
	SupportsFP16 bool
}

// Validate checks that the values are usable for dispatch computations.
func (info Info) Validate() error {
	if info.MaxWorkGroupSize < 1 {
		return errors.Errorf("device %q: MaxWorkGroupSize must be >= 1, got %d", info.Name, info.MaxWorkGroupSize)
	}
	if info.PreferredVectorWidth < 1 {
		return errors.Errorf("device %q: PreferredVectorWidth must be >= 1, got %d", info.Name, info.PreferredVectorWidth)
	}
	if info.ComputeUnits < 1 {
		return errors.Errorf("device %q: ComputeUnits must be >= 1, got %d", info.Name, info.ComputeUnits)
	}
	for dim, limit := range info.MaxWorkItemSizes {
		if limit < 0 {
			return errors.Errorf("device %q: MaxWorkItemSizes[%d] must be >= 0, got %d", info.Name, dim, limit)
		}
	}
	for _, size := range info.SubgroupSizes {
		if size < 1 {
			return errors.Errorf("device %q: invalid sub-group size %d", info.Name, size)
		}
	}
	return nil
}

// SupportsSubgroupSize returns whether the device can run kernels compiled for the given sub-group size.
func (info Info) SupportsSubgroupSize(size int) bool {
	return slices.Contains(info.SubgroupSizes, size)
}

// LocalLimit returns the maximum local size for dispatch dimension dim, taking into account
// both MaxWorkItemSizes and MaxWorkGroupSize.
func (info Info) LocalLimit(dim int) int {
	limit := info.MaxWorkGroupSize
	if dim >= 0 && dim < len(info.MaxWorkItemSizes) && info.MaxWorkItemSizes[dim] > 0 {
		limit = min(limit, info.MaxWorkItemSizes[dim])
	}
	return limit
}

// Clone returns a deep copy of info.
func (info Info) Clone() Info {
	info.SubgroupSizes = slices.Clone(info.SubgroupSizes)
	return info
}

// String implements fmt.Stringer.
func (info Info) String() string {
	return fmt.Sprintf("%s{maxWG=%d, vec=%d, subgroups=%v, CUs=%d, fp16=%v}",
		info.Name, info.MaxWorkGroupSize, info.PreferredVectorWidth, info.SubgroupSizes,
		info.ComputeUnits, info.SupportsFP16)
}

// KERNELSELECT_DEVICE is the environment variable with the name of the device preset to use by default.
const KERNELSELECT_DEVICE = "KERNELSELECT_DEVICE"

// DefaultPreset is the preset used when KERNELSELECT_DEVICE is not set.
var DefaultPreset = "gen9"

var presets = map[string]func() Info{
	"gen9": func() Info {
		return Info{
			Name:                 "gen9",
			MaxWorkGroupSize:     256,
			MaxWorkItemSizes:     [3]int{256, 256, 256},
			PreferredVectorWidth: 8,
			SubgroupSizes:        []int{8, 16},
			ComputeUnits:         24,
			SupportsFP16:         true,
		}
	},
	"gen12lp": func() Info {
		return Info{
			Name:                 "gen12lp",
			MaxWorkGroupSize:     512,
			MaxWorkItemSizes:     [3]int{512, 512, 512},
			PreferredVectorWidth: 16,
			SubgroupSizes:        []int{8, 16, 32},
			ComputeUnits:         96,
			SupportsFP16:         true,
		}
	},
	"generic": func() Info {
		return Info{
			Name:                 "generic",
			MaxWorkGroupSize:     256,
			PreferredVectorWidth: 4,
			ComputeUnits:         8,
		}
	},
	"host": Host,
}

// Presets returns the names of the available presets, sorted.
func Presets() []string {
	return slices.Sorted(maps.Keys(presets))
}

// Preset returns the Info for the named preset (case-insensitive).
func Preset(name string) (Info, error) {
	fn, found := presets[strings.ToLower(name)]
	if !found {
		return Info{}, errors.Errorf("unknown device preset %q, valid values are %v", name, Presets())
	}
	return fn(), nil
}

// FromEnv returns the preset named by the environment variable KERNELSELECT_DEVICE, or
// DefaultPreset if it is not set.
func FromEnv() (Info, error) {
	name, found := os.LookupEnv(KERNELSELECT_DEVICE)
	if !found || name == "" {
		name = DefaultPreset
	}
	info, err := Preset(name)
	if err != nil {
		return Info{}, errors.WithMessagef(err, "while reading $%s", KERNELSELECT_DEVICE)
	}
	return info, nil
}
