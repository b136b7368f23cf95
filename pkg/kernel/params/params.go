// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package params defines the description of one operation instance that needs a kernel: the operation
// kind, its input and output tensors, its attributes, the attached fused post-operations and the device.
//
// Params are built by the caller (typically a graph compiler, one per layer) and are read-only for the
// kernel selection.
package params

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernel/fusedops"
	"github.com/pkg/errors"
)

// ErrInvalidParams is returned (wrapped) by Params.Validate.
var ErrInvalidParams = errors.New("invalid operation params")

// Attributes are the operation-specific knobs of an operation, e.g. LRN or Convolution.
type Attributes interface {
	// Kind of operation the attributes are for.
	Kind() OpKind

	// Modes returns the mode flags the operation instance requires from a kernel.
	Modes() []Mode

	// Validate checks the attributes and their consistency with the tensors.
	Validate(inputs []tensors.Desc, output tensors.Desc) error
}

// Params describes one operation instance.
type Params struct {
	Kind       OpKind
	Inputs     []tensors.Desc
	Output     tensors.Desc
	Attributes Attributes
	FusedOps   []fusedops.PostOp
	Device     device.Info
}

// New returns Params for the attributes' operation kind.
func New(attrs Attributes, dev device.Info, output tensors.Desc, inputs ...tensors.Desc) *Params {
	return &Params{
		Kind:       attrs.Kind(),
		Inputs:     inputs,
		Output:     output,
		Attributes: attrs,
		Device:     dev,
	}
}

// WithFusedOps appends post-operations to p and returns it.
func (p *Params) WithFusedOps(ops ...fusedops.PostOp) *Params {
	p.FusedOps = append(p.FusedOps, ops...)
	return p
}

// Validate checks the invariants of the params: valid kind with matching attributes, at least one input,
// valid tensors (non-empty shapes, dimensions >= 1, supported dtypes and layouts), valid fused ops and
// device. Errors wrap ErrInvalidParams.
func (p *Params) Validate() error {
	if p == nil {
		return errors.Wrap(ErrInvalidParams, "nil params")
	}
	if p.Kind <= OpKindInvalid || p.Kind >= OpKindLast {
		return errors.Wrapf(ErrInvalidParams, "invalid operation kind %s", p.Kind)
	}
	if p.Attributes == nil {
		return errors.Wrapf(ErrInvalidParams, "%s: missing attributes", p.Kind)
	}
	if p.Attributes.Kind() != p.Kind {
		return errors.Wrapf(ErrInvalidParams, "%s: given attributes for %s", p.Kind, p.Attributes.Kind())
	}
	if len(p.Inputs) == 0 {
		return errors.Wrapf(ErrInvalidParams, "%s: no inputs", p.Kind)
	}
	for ii, input := range p.Inputs {
		if err := input.Validate(); err != nil {
			return errors.Wrapf(ErrInvalidParams, "%s: input #%d: %v", p.Kind, ii, err)
		}
	}
	if err := p.Output.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidParams, "%s: output: %v", p.Kind, err)
	}
	if err := p.Attributes.Validate(p.Inputs, p.Output); err != nil {
		return errors.Wrapf(ErrInvalidParams, "%s: %v", p.Kind, err)
	}
	for ii, op := range p.FusedOps {
		if err := op.Validate(); err != nil {
			return errors.Wrapf(ErrInvalidParams, "%s: fused op #%d: %v", p.Kind, ii, err)
		}
	}
	if err := p.Device.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidParams, "%s: %v", p.Kind, err)
	}
	return nil
}

// Modes returns the mode flags required by the operation, or nil if there are no attributes.
func (p *Params) Modes() []Mode {
	if p.Attributes == nil {
		return nil
	}
	return p.Attributes.Modes()
}

// Tensors returns all inputs followed by the output.
func (p *Params) Tensors() []tensors.Desc {
	all := make([]tensors.Desc, 0, len(p.Inputs)+1)
	all = append(all, p.Inputs...)
	return append(all, p.Output)
}

// Clone returns a deep copy of p. Attributes are values and are shared.
func (p *Params) Clone() *Params {
	clone := &Params{
		Kind:       p.Kind,
		Output:     p.Output.Clone(),
		Attributes: p.Attributes,
		FusedOps:   slices.Clone(p.FusedOps),
		Device:     p.Device.Clone(),
	}
	clone.Inputs = make([]tensors.Desc, len(p.Inputs))
	for ii, input := range p.Inputs {
		clone.Inputs[ii] = input.Clone()
	}
	return clone
}

// String implements fmt.Stringer.
func (p *Params) String() string {
	var parts []string
	for _, input := range p.Inputs {
		parts = append(parts, input.String())
	}
	s := fmt.Sprintf("%s(%s) -> %s", p.Kind, strings.Join(parts, ", "), p.Output)
	if p.Attributes != nil {
		s += fmt.Sprintf(" %+v", p.Attributes)
	}
	if len(p.FusedOps) > 0 {
		s += fmt.Sprintf(" fused=%v", p.FusedOps)
	}
	return s
}
