// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fusedops describes elementwise post-operations fused to the output of a kernel, and composes
// them into the JIT constants that thread the kernel result through each of them.
package fusedops

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Config describes, for one kernel, where the fused operations are applied.
type Config struct {
	// Suffix is appended to every generated constant name, so a kernel can hold several configurations
	// (e.g. one for the main loop and one for the leftovers).
	Suffix string

	// IndexNames are the expressions of the b, f, y, x indices visible at the point the post-ops are
	// applied, e.g. {"b", "f + i", "y", "x"}.
	IndexNames []string

	// InputVar is the name of the variable holding the result before the post-ops.
	InputVar string

	// DType is the type the post-ops compute in.
	DType dtypes.DType

	// VecSize is the vector width of InputVar, 1 for scalars.
	VecSize int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.InputVar == "" {
		return errors.New("fused ops configuration requires an input variable name")
	}
	if len(c.IndexNames) == 0 {
		return errors.Errorf("fused ops configuration for %q requires the index names", c.InputVar)
	}
	if !c.DType.IsSupported() {
		return errors.Errorf("fused ops configuration for %q has unsupported dtype %s", c.InputVar, c.DType)
	}
	if c.VecSize < 1 {
		return errors.Errorf("fused ops configuration for %q has invalid vector size %d", c.InputVar, c.VecSize)
	}
	return nil
}

// deviceType returns the (possibly vector) device type name of the configuration.
func (c Config) deviceType() string {
	if c.VecSize == 1 {
		return c.DType.DeviceType()
	}
	return c.DType.DeviceType() + strconv.Itoa(c.VecSize)
}

// OutputVar returns the name of the variable holding the result of the post-op at position idx.
func (c Config) OutputVar(idx int) string {
	return fmt.Sprintf("fused_op%d_out%s", idx, strings.ToLower(c.Suffix))
}

func (c Config) name(idx int, field string) string {
	return fmt.Sprintf("FUSED_OP%d_%s%s", idx, field, c.Suffix)
}

// Compose returns the constants that apply ops, in order, to the kernel result described by config.
//
// Each post-op i consumes the output variable of post-op i-1 (config.InputVar for the first one) and
// produces Config.OutputVar(i). For every post-op it defines FUSED_OP{i}_INPUT, FUSED_OP{i}_OUTPUT,
// FUSED_OP{i}_IDX, its parameters (FUSED_OP{i}_MIN, FUSED_OP{i}_SCALE, ...), FUSED_OP{i}_LOAD for
// eltwise operations and FUSED_OP{i}_ACTION with the statement computing the output. Finally, it defines
// FUSED_OPS (all actions in order), FUSED_OPS_RESULT, FUSED_OPS_DECLS (extra kernel arguments) and
// HAS_FUSED_OPS.
//
// An empty list of ops yields an empty set.
func Compose(config Config, ops []PostOp) (*jit.Set, error) {
	set := &jit.Set{}
	if len(ops) == 0 {
		return set, nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	indices := strings.Join(config.IndexNames, ", ")
	typeName := config.deviceType()
	var actions, decls []string
	inputVar := config.InputVar
	for idx, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "fused op #%d", idx)
		}
		outputVar := config.OutputVar(idx)
		constants := []jit.Constant{
			jit.MakeConstant(config.name(idx, "INPUT"), inputVar),
			jit.MakeConstant(config.name(idx, "OUTPUT"), outputVar),
			jit.MakeConstant(config.name(idx, "IDX"), indices),
		}
		for _, p := range op.params() {
			if config.DType.IsFloat() && !config.DType.IsRepresentable(p.value) {
				return nil, errors.Errorf("fused op #%d %s: parameter %s=%g not representable as %s",
					idx, op.Name(), p.name, p.value, config.DType)
			}
			constants = append(constants, jit.MakeConstant(config.name(idx, p.name), paramValue(config.DType, p.value)))
		}
		if op.Kind == KindEltwise {
			data := fmt.Sprintf("fused_op%d_data%s", idx, strings.ToLower(config.Suffix))
			decls = append(decls, fmt.Sprintf("const __global %s* %s", op.OperandDType.DeviceType(), data))
			constants = append(constants, jit.MakeConstant(config.name(idx, "LOAD"),
				fmt.Sprintf("(%s)(%s[OUTPUT_GET_INDEX(%s)])", typeName, data, indices)))
		}
		expr := op.expression(inputVar, func(field string) string { return config.name(idx, field) })
		action := config.name(idx, "ACTION")
		constants = append(constants, jit.MakeConstant(action, fmt.Sprintf("%s %s = %s;", typeName, outputVar, expr)))
		if err := set.Add(constants...); err != nil {
			return nil, err
		}
		actions = append(actions, action)
		inputVar = outputVar
	}
	err := set.Add(
		jit.MakeConstant("FUSED_OPS"+config.Suffix, strings.Join(actions, " ")),
		jit.MakeConstant("FUSED_OPS_RESULT"+config.Suffix, inputVar),
		jit.MakeConstant("FUSED_OPS_DECLS"+config.Suffix, strings.Join(decls, ", ")),
		jit.MakeConstant("HAS_FUSED_OPS"+config.Suffix, true),
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}

// paramValue converts a parameter to the Go type whose literal matches dtype.
func paramValue(dtype dtypes.DType, value float64) any {
	switch dtype {
	case dtypes.Float16:
		return float16.Fromfloat32(float32(value))
	case dtypes.Float32, dtypes.BFloat16:
		return float32(value)
	default:
		return value
	}
}

// expression returns the expression computing the post-op over input. constName returns the full name
// of the op's parameter constants.
func (op PostOp) expression(input string, constName func(field string) string) string {
	switch op.Kind {
	case KindActivation:
		switch op.Activation {
		case ActivationRelu:
			return fmt.Sprintf("max(%s, 0)", input)
		case ActivationReluNegativeSlope:
			return fmt.Sprintf("(%[1]s >= 0 ? %[1]s : %[1]s * %[2]s)", input, constName("ALPHA"))
		case ActivationClamp:
			return fmt.Sprintf("clamp(%s, %s, %s)", input, constName("MIN"), constName("MAX"))
		case ActivationElu:
			return fmt.Sprintf("(%[1]s >= 0 ? %[1]s : %[2]s * (exp(%[1]s) - 1))", input, constName("ALPHA"))
		case ActivationTanh:
			return fmt.Sprintf("tanh(%s)", input)
		case ActivationLogistic:
			return fmt.Sprintf("(1 / (1 + exp(-%s)))", input)
		case ActivationLinear:
			return fmt.Sprintf("(%s * %s + %s)", constName("ALPHA"), input, constName("BETA"))
		}
	case KindScale:
		return fmt.Sprintf("(%s * %s + %s)", input, constName("SCALE"), constName("SHIFT"))
	case KindQuantize:
		return fmt.Sprintf("round(clamp(%s, %s, %s) * %s)", input, constName("MIN"), constName("MAX"), constName("SCALE"))
	case KindEltwise:
		load := constName("LOAD")
		switch op.Eltwise {
		case EltwiseSum:
			return fmt.Sprintf("(%s + %s)", input, load)
		case EltwiseProd:
			return fmt.Sprintf("(%s * %s)", input, load)
		case EltwiseMax:
			return fmt.Sprintf("max(%s, %s)", input, load)
		}
	}
	return input
}

// Kinds returns the distinct kinds used by ops, in order of first appearance.
func Kinds(ops []PostOp) []Kind {
	var kinds []Kind
	seen := make(map[Kind]bool)
	for _, op := range ops {
		if !seen[op.Kind] {
			seen[op.Kind] = true
			kinds = append(kinds, op.Kind)
		}
	}
	return kinds
}
