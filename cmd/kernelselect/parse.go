// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"strconv"
	"strings"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/pkg/errors"
)

// opConfig holds the description of the operation to select a kernel for, as given in the command line.
type opConfig struct {
	op                  string
	dims                []int
	dtype, outDType     dtypes.DType
	layout, outLayout   layouts.Layout
	fused               []fusedops.PostOp
	padBefore, padAfter []int

	// LRN.
	localSize   int
	normMode    params.LRNNormMode
	divider     params.LRNDivider
	alpha, beta float64
	k           float64

	// Convolution.
	filter, stride, dilation, pad [2]int
	groups, outputFeatures        int
	bias                          bool
}

// parseInts parses a comma-separated list of integers. If want > 0, exactly want values are expected.
func parseInts(s string, want int) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if want > 0 {
			return nil, errors.Errorf("expected %d comma-separated values, got none", want)
		}
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if want > 0 && len(parts) != want {
		return nil, errors.Errorf("expected %d comma-separated values, got %q", want, s)
	}
	values := make([]int, len(parts))
	for ii, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid integer in %q", s)
		}
		values[ii] = v
	}
	return values, nil
}

// parsePair parses "y,x", or a single value used for both.
func parsePair(s string) (pair [2]int, err error) {
	if !strings.Contains(s, ",") {
		var v []int
		v, err = parseInts(s, 1)
		if err != nil {
			return
		}
		return [2]int{v[0], v[0]}, nil
	}
	v, err := parseInts(s, 2)
	if err != nil {
		return
	}
	return [2]int{v[0], v[1]}, nil
}

func parseNormMode(s string) (params.LRNNormMode, error) {
	switch strings.ToLower(s) {
	case "across", "across_channel":
		return params.LRNAcrossChannel, nil
	case "within", "within_channel":
		return params.LRNWithinChannel, nil
	}
	return 0, errors.Errorf("unknown LRN normalization mode %q, valid values are across_channel, within_channel", s)
}

func parseDivider(s string) (params.LRNDivider, error) {
	switch strings.ToLower(s) {
	case "fixed":
		return params.LRNDividerFixed, nil
	case "dynamic":
		return params.LRNDividerDynamic, nil
	}
	return 0, errors.Errorf("unknown LRN divider %q, valid values are fixed, dynamic", s)
}

func parseEltwiseMode(s string) (fusedops.EltwiseMode, error) {
	for _, mode := range []fusedops.EltwiseMode{fusedops.EltwiseSum, fusedops.EltwiseProd, fusedops.EltwiseMax} {
		if strings.EqualFold(s, mode.String()) {
			return mode, nil
		}
	}
	return 0, errors.Errorf("unknown eltwise mode %q, valid values are sum, prod, max", s)
}

// fusedOpArity is the number of numeric arguments of each fused operation name.
var fusedOpArity = map[string]int{
	"relu":       0,
	"relu_slope": 1,
	"clamp":      2,
	"elu":        1,
	"tanh":       0,
	"logistic":   0,
	"linear":     2,
	"scale":      2,
	"quantize":   3,
}

// parseFusedOps parses a comma-separated list of post-operations, each one with its arguments separated by
// colons, e.g. "clamp:0:6,scale:2:0.5,elu:1". Eltwise takes a mode and the dtype of the operand instead of
// numbers: "eltwise:sum:f16".
func parseFusedOps(s string) ([]fusedops.PostOp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var ops []fusedops.PostOp
	for _, item := range strings.Split(s, ",") {
		parts := strings.Split(strings.TrimSpace(item), ":")
		name, args := strings.ToLower(parts[0]), parts[1:]
		if name == "eltwise" {
			if len(args) != 2 {
				return nil, errors.Errorf("fused op %q: eltwise takes a mode and an operand dtype, e.g. eltwise:sum:f16", item)
			}
			mode, err := parseEltwiseMode(args[0])
			if err != nil {
				return nil, errors.WithMessagef(err, "fused op %q", item)
			}
			dtype, err := dtypes.FromName(args[1])
			if err != nil {
				return nil, errors.WithMessagef(err, "fused op %q", item)
			}
			ops = append(ops, fusedops.Eltwise(mode, dtype))
			continue
		}
		arity, found := fusedOpArity[name]
		if !found {
			return nil, errors.Errorf("unknown fused op %q in %q", name, item)
		}
		if len(args) != arity {
			return nil, errors.Errorf("fused op %q takes %d arguments, got %d", name, arity, len(args))
		}
		values := make([]float64, arity)
		for ii, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "fused op %q", item)
			}
			values[ii] = v
		}
		var op fusedops.PostOp
		switch name {
		case "relu":
			op = fusedops.Relu()
		case "relu_slope":
			op = fusedops.ReluNegativeSlope(values[0])
		case "clamp":
			op = fusedops.Clamp(values[0], values[1])
		case "elu":
			op = fusedops.Elu(values[0])
		case "tanh":
			op = fusedops.Tanh()
		case "logistic":
			op = fusedops.Logistic()
		case "linear":
			op = fusedops.Linear(values[0], values[1])
		case "scale":
			op = fusedops.ScaleShift(values[0], values[1])
		case "quantize":
			op = fusedops.Quantize(values[0], values[1], values[2])
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// attributes returns the operation attributes and the output tensor for the configuration.
func (cfg *opConfig) attributes(input tensors.Desc) (params.Attributes, tensors.Desc, error) {
	switch strings.ToLower(cfg.op) {
	case "lrn":
		attrs := params.LRN{
			LocalSize: cfg.localSize,
			NormMode:  cfg.normMode,
			Divider:   cfg.divider,
			Alpha:     cfg.alpha,
			Beta:      cfg.beta,
			K:         cfg.k,
		}
		return attrs, tensors.Make(cfg.outDType, cfg.outLayout, input.Dimensions...), nil

	case "conv", "convolution":
		if input.Rank() != 4 {
			return nil, tensors.Desc{}, errors.Errorf("convolution needs 4 input dimensions (b,f,y,x), got %v", input.Dimensions)
		}
		attrs := params.Convolution{
			FilterY: cfg.filter[0], FilterX: cfg.filter[1],
			StrideY: cfg.stride[0], StrideX: cfg.stride[1],
			DilationY: cfg.dilation[0], DilationX: cfg.dilation[1],
			PadY: cfg.pad[0], PadX: cfg.pad[1],
			Groups:         cfg.groups,
			OutputFeatures: cfg.outputFeatures,
			HasBias:        cfg.bias,
		}
		if attrs.OutputFeatures <= 0 {
			attrs.OutputFeatures = input.Feature()
		}
		if attrs.StrideY < 1 || attrs.StrideX < 1 {
			return nil, tensors.Desc{}, errors.Errorf("invalid convolution stride %v", cfg.stride)
		}
		outY, outX := attrs.OutputSpatial(input.Y(), input.X())
		if outY < 1 || outX < 1 {
			return nil, tensors.Desc{}, errors.Errorf("convolution window %+v is larger than the padded input %s", attrs, input)
		}
		return attrs, tensors.Make(cfg.outDType, cfg.outLayout, input.Batch(), attrs.OutputFeatures, outY, outX), nil
	}
	return nil, tensors.Desc{}, errors.Errorf("unknown operation %q, valid values are lrn, conv", cfg.op)
}

// build returns the validated params for the configuration on the given device.
func (cfg *opConfig) build(info device.Info) (*params.Params, error) {
	for _, dim := range cfg.dims {
		if dim <= 0 {
			return nil, errors.Errorf("invalid dimensions %v", cfg.dims)
		}
	}
	input := tensors.Make(cfg.dtype, cfg.layout, cfg.dims...)
	if cfg.padBefore != nil || cfg.padAfter != nil {
		input = input.WithPadding(cfg.padBefore, cfg.padAfter)
	}
	attrs, output, err := cfg.attributes(input)
	if err != nil {
		return nil, err
	}
	p := params.New(attrs, info, output, input).WithFusedOps(cfg.fused...)
	if err = p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
