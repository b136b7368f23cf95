// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"math/rand/v2"
	"runtime"
	"strings"
	"sync"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/kernelcache"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	sweepBatches  = []int{1, 2, 8}
	sweepFeatures = []int{1, 3, 8, 16, 24, 32, 64}
	sweepSpatial  = []int{1, 7, 14, 28, 56}
	sweepFilters  = []int{1, 3, 5}
)

// sweepConfigs returns n variations of base with random shapes, data types and layouts drawn from a
// small pool, so repeated configurations are expected. The same seed generates the same configurations.
func sweepConfigs(base opConfig, n int, seed uint64) []opConfig {
	rng := rand.New(rand.NewPCG(seed, seed))
	pick := func(values []int) int { return values[rng.IntN(len(values))] }
	configs := make([]opConfig, n)
	for ii := range configs {
		cfg := base
		cfg.padBefore, cfg.padAfter = nil, nil
		cfg.dims = []int{pick(sweepBatches), pick(sweepFeatures), pick(sweepSpatial), pick(sweepSpatial)}
		switch strings.ToLower(base.op) {
		case "lrn":
			cfg.dtype = []dtypes.DType{dtypes.Float16, dtypes.Float32}[rng.IntN(2)]
			cfg.outDType = cfg.dtype
			cfg.layout = []layouts.Layout{layouts.LayoutBfyx, layouts.LayoutByxf, layouts.LayoutYxfb}[rng.IntN(3)]
			cfg.outLayout = cfg.layout
			cfg.normMode = params.LRNNormMode(rng.IntN(2))
			cfg.divider = params.LRNDivider(rng.IntN(2))
		default:
			cfg.dtype = []dtypes.DType{dtypes.Float16, dtypes.Float32, dtypes.BFloat16}[rng.IntN(3)]
			cfg.outDType = cfg.dtype
			cfg.layout, cfg.outLayout = layouts.LayoutBfyx, layouts.LayoutBfyx
			filter := pick(sweepFilters)
			cfg.filter = [2]int{filter, filter}
			cfg.pad = [2]int{filter / 2, filter / 2}
			cfg.stride, cfg.dilation = [2]int{1, 1}, [2]int{1, 1}
			cfg.groups = 1
			cfg.outputFeatures = pick(sweepFeatures)
		}
		configs[ii] = cfg
	}
	return configs
}

// sweepResult aggregates the selections of a sweep.
type sweepResult struct {
	// Winners counts how many times each variant was selected.
	Winners map[string]int

	// Failures counts the configurations for which no variant could be selected.
	Failures int

	Total int
	Stats kernelcache.Stats
}

// runSweep selects a kernel for each configuration, in parallel, through a kernelcache.Cache.
// Configurations that are not valid params are an error; configurations without any kernel are counted
// as failures. Progress is reported to progressOut, if not nil.
func runSweep(configs []opConfig, info device.Info, sel kernelcache.Selector, parallelism int, progressOut io.Writer) (*sweepResult, error) {
	cache := kernelcache.New(sel)
	result := &sweepResult{Winners: make(map[string]int), Total: len(configs)}
	var mu sync.Mutex

	var bar *progressbar.ProgressBar
	if progressOut != nil {
		bar = progressbar.NewOptions(len(configs),
			progressbar.OptionSetDescription("Selecting"),
			progressbar.OptionSetWriter(progressOut),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(parallelism)
	for ii := range configs {
		cfg := &configs[ii]
		g.Go(func() error {
			p, err := cfg.build(info)
			if err != nil {
				return errors.WithMessagef(err, "sweep configuration #%d", ii)
			}
			desc, err := cache.Select(p)
			mu.Lock()
			if err != nil {
				klog.V(2).Infof("sweep: no kernel for %s: %v", p, err)
				result.Failures++
			} else {
				result.Winners[desc.VariantName]++
			}
			mu.Unlock()
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	result.Stats = cache.Stats()
	return result, nil
}
