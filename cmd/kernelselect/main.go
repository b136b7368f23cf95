// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// kernelselect selects the kernel variant for one operation and reports the descriptor: dispatch
// geometry, priority and, optionally, the JIT constants. It can also list the capabilities of all
// registered variants, or sweep random shapes and report which variants win.
//
// Example:
//
//	kernelselect -op=lrn -dims=1,16,28,28 -layout=byxf -norm_mode=within -fused=clamp:0:6 -constants
//	KERNELSELECT_DEVICE=gen12lp kernelselect -op=conv -dims=8,64,56,56 -filter=1 -dtype=f16 -all
//	kernelselect -op=conv -sweep=1000
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernels"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagOp        = flag.String("op", "lrn", "Operation to select a kernel for: lrn or conv.")
	flagDims      = flag.String("dims", "1,16,28,28", "Comma-separated input dimensions, in logical order b,f,y,x.")
	flagDType     = flag.String("dtype", "f32", "Input data type, e.g. f32, f16, bf16, s8, u8.")
	flagOutDType  = flag.String("out_dtype", "", "Output data type. Defaults to -dtype.")
	flagLayout    = flag.String("layout", "bfyx", "Input memory layout, e.g. bfyx, byxf, yxfb.")
	flagOutLayout = flag.String("out_layout", "", "Output memory layout. Defaults to -layout.")
	flagPadBefore = flag.String("pad_before", "", "Comma-separated input padding before each logical axis.")
	flagPadAfter  = flag.String("pad_after", "", "Comma-separated input padding after each logical axis.")
	flagFused     = flag.String("fused", "", "Comma-separated list of fused post-operations with colon separated arguments, "+
		"e.g. \"clamp:0:6,scale:2:0.5,elu:1,eltwise:sum:f16\". "+
		"Valid ops: relu, relu_slope, clamp, elu, tanh, logistic, linear, scale, quantize, eltwise.")

	flagLocalSize = flag.Int("local_size", 5, "LRN: size of the normalization window.")
	flagNormMode  = flag.String("norm_mode", "across_channel", "LRN: across_channel or within_channel.")
	flagDivider   = flag.String("divider", "fixed", "LRN: fixed or dynamic divider.")
	flagAlpha     = flag.Float64("alpha", 1e-4, "LRN: alpha.")
	flagBeta      = flag.Float64("beta", 0.75, "LRN: beta.")
	flagK         = flag.Float64("k", 1, "LRN: k.")

	flagFilter   = flag.String("filter", "3", "Convolution: filter size, \"y,x\" or a single value for both.")
	flagStride   = flag.String("stride", "1", "Convolution: stride, \"y,x\" or a single value for both.")
	flagDilation = flag.String("dilation", "1", "Convolution: dilation, \"y,x\" or a single value for both.")
	flagPad      = flag.String("pad", "0", "Convolution: padding, \"y,x\" or a single value for both.")
	flagGroups   = flag.Int("groups", 1, "Convolution: number of groups.")
	flagOFM      = flag.Int("ofm", 0, "Convolution: number of output features. Defaults to the input features.")
	flagBias     = flag.Bool("bias", false, "Convolution: whether a bias is added.")

	flagDevice = flag.String("device", "",
		fmt.Sprintf("Device preset, one of %v. Defaults to $%s, or %q if not set.",
			device.Presets(), device.KERNELSELECT_DEVICE, device.DefaultPreset))
	flagVariant   = flag.String("variant", "", "Force the selection of the named variant.")
	flagAll       = flag.Bool("all", false, "List all the variants that could be selected, best first.")
	flagMaxAlt    = flag.Int("max_alternatives", 0, "With -all, the maximum number of descriptors listed. 0 for all.")
	flagConstants = flag.Bool("constants", false, "Print the JIT constants of the selected kernel.")
	flagList      = flag.Bool("list", false, "List the capabilities of all registered variants and exit.")

	flagSweep       = flag.Int("sweep", 0, "If > 0, select kernels for this many random variations of -op and report the winners.")
	flagSeed        = flag.Uint64("seed", 42, "Random seed for -sweep.")
	flagParallelism = flag.Int("parallelism", 0, "Number of concurrent selections for -sweep. Defaults to the number of CPUs.")

	flagNoColor = flag.Bool("nocolor", false, "Disable colors in the output.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagNoColor {
		disableColors()
	}

	if *flagList {
		fmt.Println(titleStyle.Render("Registered variants"))
		fmt.Println(capabilitiesTable(kernels.Default()))
		return
	}

	info := loadDevice()
	cfg, err := configFromFlags()
	if err != nil {
		klog.Errorf("%+v", err)
		os.Exit(1)
	}

	var options []selector.Option
	if *flagVariant != "" {
		options = append(options, selector.WithForcedVariant(*flagVariant))
	}
	if *flagMaxAlt > 0 {
		options = append(options, selector.WithMaxAlternatives(*flagMaxAlt))
	}
	sel := kernels.NewSelector(options...)

	if *flagSweep > 0 {
		configs := sweepConfigs(cfg, *flagSweep, *flagSeed)
		result, err := runSweep(configs, info, sel, *flagParallelism, os.Stderr)
		if err != nil {
			klog.Errorf("Sweep failed: %+v", err)
			os.Exit(1)
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("Sweep of %s configurations of %s on %s",
			humanize.Comma(int64(result.Total)), cfg.op, info.Name)))
		fmt.Println(winnersTable(result.Winners, result.Failures, result.Total))
		fmt.Printf("Cache: %s distinct params, %s hits, %s misses, %s selections\n",
			humanize.Comma(int64(result.Stats.Entries)), humanize.Comma(result.Stats.Hits),
			humanize.Comma(result.Stats.Misses), humanize.Comma(result.Stats.Computations))
		return
	}

	p, err := cfg.build(info)
	if err != nil {
		klog.Errorf("Invalid operation: %+v", err)
		os.Exit(1)
	}
	fmt.Println(titleStyle.Render(paramsSummary(p)))

	var descs []*selector.Descriptor
	if *flagAll {
		descs, err = sel.SelectRanked(p)
	} else {
		var desc *selector.Descriptor
		desc, err = sel.Select(p)
		if desc != nil {
			descs = append(descs, desc)
		}
	}
	if err != nil {
		var selErr *selector.SelectionError
		if errors.As(err, &selErr) {
			fmt.Println(rejectionsTable(selErr))
		}
		klog.Errorf("Kernel selection failed: %v", err)
		os.Exit(1)
	}
	fmt.Println(descriptorsTable(descs))
	if *flagConstants {
		fmt.Println(titleStyle.Render(fmt.Sprintf("Constants of %s", descs[0].EntryPoint)))
		fmt.Println(constantsTable(descs[0]))
	}
}

// loadDevice returns the device selected by -device or by the environment. It panics if the preset is unknown.
func loadDevice() device.Info {
	if *flagDevice != "" {
		return must.M1(device.Preset(*flagDevice))
	}
	return must.M1(device.FromEnv())
}

// configFromFlags parses the operation flags.
func configFromFlags() (cfg opConfig, err error) {
	cfg.op = *flagOp
	if cfg.dims, err = parseInts(*flagDims, 0); err != nil {
		return
	}
	if cfg.dtype, err = dtypes.FromName(*flagDType); err != nil {
		return
	}
	cfg.outDType = cfg.dtype
	if *flagOutDType != "" {
		if cfg.outDType, err = dtypes.FromName(*flagOutDType); err != nil {
			return
		}
	}
	if cfg.layout, err = layouts.FromName(*flagLayout); err != nil {
		return
	}
	cfg.outLayout = cfg.layout
	if *flagOutLayout != "" {
		if cfg.outLayout, err = layouts.FromName(*flagOutLayout); err != nil {
			return
		}
	}
	if cfg.padBefore, err = parseInts(*flagPadBefore, 0); err != nil {
		return
	}
	if cfg.padAfter, err = parseInts(*flagPadAfter, 0); err != nil {
		return
	}
	if cfg.fused, err = parseFusedOps(*flagFused); err != nil {
		return
	}

	cfg.localSize, cfg.alpha, cfg.beta, cfg.k = *flagLocalSize, *flagAlpha, *flagBeta, *flagK
	if cfg.normMode, err = parseNormMode(*flagNormMode); err != nil {
		return
	}
	if cfg.divider, err = parseDivider(*flagDivider); err != nil {
		return
	}

	if cfg.filter, err = parsePair(*flagFilter); err != nil {
		return
	}
	if cfg.stride, err = parsePair(*flagStride); err != nil {
		return
	}
	if cfg.dilation, err = parsePair(*flagDilation); err != nil {
		return
	}
	if cfg.pad, err = parsePair(*flagPad); err != nil {
		return
	}
	cfg.groups, cfg.outputFeatures, cfg.bias = *flagGroups, *flagOFM, *flagBias
	return
}
