// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fusedops

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/pkg/errors"
)

// Kind of fused post-operation.
type Kind int

const (
	KindInvalid Kind = iota
	KindActivation
	KindScale
	KindQuantize
	KindEltwise
	KindLast
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindActivation:
		return "activation"
	case KindScale:
		return "scale"
	case KindQuantize:
		return "quantize"
	case KindEltwise:
		return "eltwise"
	default:
		return "invalid"
	}
}

// ActivationType specifies the activation function of a KindActivation post-operation.
type ActivationType int

const (
	ActivationNone ActivationType = iota
	ActivationRelu
	ActivationReluNegativeSlope
	ActivationClamp
	ActivationElu
	ActivationTanh
	ActivationLogistic
	ActivationLinear
)

// String returns the name of the activation type.
func (a ActivationType) String() string {
	switch a {
	case ActivationNone:
		return "none"
	case ActivationRelu:
		return "relu"
	case ActivationReluNegativeSlope:
		return "relu_negative_slope"
	case ActivationClamp:
		return "clamp"
	case ActivationElu:
		return "elu"
	case ActivationTanh:
		return "tanh"
	case ActivationLogistic:
		return "logistic"
	case ActivationLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// EltwiseMode is the binary operation of a KindEltwise post-operation.
type EltwiseMode int

const (
	EltwiseSum EltwiseMode = iota
	EltwiseProd
	EltwiseMax
)

// String returns the name of the mode.
func (m EltwiseMode) String() string {
	switch m {
	case EltwiseSum:
		return "sum"
	case EltwiseProd:
		return "prod"
	case EltwiseMax:
		return "max"
	default:
		return "unknown"
	}
}

// PostOp describes one elementwise operation fused to the output of a kernel.
//
// Which fields are used depends on Kind, prefer the constructors (Relu, Clamp, ScaleShift, ...) to
// build them.
type PostOp struct {
	Kind Kind

	// Activation for KindActivation.
	Activation ActivationType

	// Alpha and Beta are activation parameters: negative slope (relu_negative_slope), alpha (elu),
	// or slope and intercept (linear).
	Alpha, Beta float64

	// Min and Max bound clamp activations and quantization.
	Min, Max float64

	// Scale and Shift for KindScale (x*Scale + Shift) and KindQuantize (Scale only).
	Scale, Shift float64

	// Eltwise mode and the data type of the extra operand tensor for KindEltwise.
	Eltwise      EltwiseMode
	OperandDType dtypes.DType
}

// Relu returns max(x, 0).
func Relu() PostOp { return PostOp{Kind: KindActivation, Activation: ActivationRelu} }

// ReluNegativeSlope returns x >= 0 ? x : x*slope.
func ReluNegativeSlope(slope float64) PostOp {
	return PostOp{Kind: KindActivation, Activation: ActivationReluNegativeSlope, Alpha: slope}
}

// Clamp returns clamp(x, lo, hi).
func Clamp(lo, hi float64) PostOp {
	return PostOp{Kind: KindActivation, Activation: ActivationClamp, Min: lo, Max: hi}
}

// Elu returns x >= 0 ? x : alpha*(exp(x)-1).
func Elu(alpha float64) PostOp {
	return PostOp{Kind: KindActivation, Activation: ActivationElu, Alpha: alpha}
}

// Tanh returns tanh(x).
func Tanh() PostOp { return PostOp{Kind: KindActivation, Activation: ActivationTanh} }

// Logistic returns 1/(1+exp(-x)).
func Logistic() PostOp { return PostOp{Kind: KindActivation, Activation: ActivationLogistic} }

// Linear returns a*x + b.
func Linear(a, b float64) PostOp {
	return PostOp{Kind: KindActivation, Activation: ActivationLinear, Alpha: a, Beta: b}
}

// ScaleShift returns x*scale + shift.
func ScaleShift(scale, shift float64) PostOp {
	return PostOp{Kind: KindScale, Scale: scale, Shift: shift}
}

// Quantize returns round(clamp(x, lo, hi) * scale).
func Quantize(lo, hi, scale float64) PostOp {
	return PostOp{Kind: KindQuantize, Min: lo, Max: hi, Scale: scale}
}

// Eltwise combines x with an extra tensor of the given dtype, read at the same position.
func Eltwise(mode EltwiseMode, operand dtypes.DType) PostOp {
	return PostOp{Kind: KindEltwise, Eltwise: mode, OperandDType: operand}
}

// Name is a short human-readable name: the activation name for activations, the kind otherwise.
func (op PostOp) Name() string {
	switch op.Kind {
	case KindActivation:
		return op.Activation.String()
	case KindEltwise:
		return "eltwise_" + op.Eltwise.String()
	default:
		return op.Kind.String()
	}
}

// String implements fmt.Stringer.
func (op PostOp) String() string {
	var parts []string
	for _, p := range op.params() {
		parts = append(parts, fmt.Sprintf("%s=%g", strings.ToLower(p.name), p.value))
	}
	if op.Kind == KindEltwise {
		parts = append(parts, "operand="+op.OperandDType.String())
	}
	if len(parts) == 0 {
		return op.Name()
	}
	return fmt.Sprintf("%s(%s)", op.Name(), strings.Join(parts, ", "))
}

type param struct {
	name  string
	value float64
}

// params returns the numeric parameters bound as constants, in order.
func (op PostOp) params() []param {
	switch op.Kind {
	case KindActivation:
		switch op.Activation {
		case ActivationReluNegativeSlope, ActivationElu:
			return []param{{"ALPHA", op.Alpha}}
		case ActivationClamp:
			return []param{{"MIN", op.Min}, {"MAX", op.Max}}
		case ActivationLinear:
			return []param{{"ALPHA", op.Alpha}, {"BETA", op.Beta}}
		}
	case KindScale:
		return []param{{"SCALE", op.Scale}, {"SHIFT", op.Shift}}
	case KindQuantize:
		return []param{{"MIN", op.Min}, {"MAX", op.Max}, {"SCALE", op.Scale}}
	}
	return nil
}

// Validate checks the post-operation is well-formed.
func (op PostOp) Validate() error {
	switch op.Kind {
	case KindActivation:
		if op.Activation <= ActivationNone || op.Activation > ActivationLinear {
			return errors.Errorf("fused op %s: invalid activation type %d", op.Kind, op.Activation)
		}
	case KindScale:
	case KindQuantize:
		if op.Scale == 0 {
			return errors.Errorf("fused op %s: scale must be non-zero", op.Name())
		}
	case KindEltwise:
		if op.Eltwise < EltwiseSum || op.Eltwise > EltwiseMax {
			return errors.Errorf("fused op %s: invalid eltwise mode %d", op.Kind, op.Eltwise)
		}
		if !op.OperandDType.IsSupported() {
			return errors.Errorf("fused op %s: unsupported operand dtype %s", op.Name(), op.OperandDType)
		}
	default:
		return errors.Errorf("invalid fused op kind %d", op.Kind)
	}
	for _, p := range op.params() {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return errors.Errorf("fused op %s: parameter %s must be finite, got %g", op.Name(), p.name, p.value)
		}
	}
	if op.Min > op.Max && (op.Kind == KindQuantize || op.Activation == ActivationClamp) {
		return errors.Errorf("fused op %s: min (%g) > max (%g)", op.Name(), op.Min, op.Max)
	}
	return nil
}
