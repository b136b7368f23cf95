// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package selector

import (
	"fmt"
	"strings"

	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/pkg/errors"
)

var (
	// ErrNoCapabilityMatch is returned when no variant can handle an operation: none matched the
	// operation's capability key, or all the ones that matched were rejected later.
	ErrNoCapabilityMatch = errors.New("no kernel variant can handle the operation")

	// ErrValidationFailed indicates a variant matched by capability but rejected the params.
	ErrValidationFailed = errors.New("kernel variant validation failed")

	// ErrConstantMergeConflict indicates two sources of JIT constants of a variant defined the same name
	// with different values. It is a defect of the variant, and it aborts the selection.
	ErrConstantMergeConflict = jit.ErrMergeConflict

	// ErrInvalidDispatchGeometry indicates no legal dispatch geometry was found for a variant.
	ErrInvalidDispatchGeometry = dispatch.ErrInvalidGeometry

	// ErrInvalidParams is returned for params that are not well-formed.
	ErrInvalidParams = params.ErrInvalidParams
)

// Stage of the selection where a variant was rejected.
type Stage int

const (
	StageMatching Stage = iota
	StageValidating
	StageDispatch
	StageConstants
)

// String returns the name of the stage.
func (s Stage) String() string {
	switch s {
	case StageMatching:
		return "matching"
	case StageValidating:
		return "validating"
	case StageDispatch:
		return "dispatch"
	case StageConstants:
		return "constants"
	default:
		return "unknown"
	}
}

// Rejection records why a variant was not selected.
type Rejection struct {
	Variant string
	Stage   Stage
	Err     error
}

// String implements fmt.Stringer.
func (r Rejection) String() string {
	return fmt.Sprintf("%s rejected at %s: %v", r.Variant, r.Stage, r.Err)
}

// SelectionError is returned when no variant could be selected. It unwraps to ErrNoCapabilityMatch and
// to the error of each rejection, so errors.Is(err, ErrValidationFailed) reports whether some variant
// was rejected by its validation.
type SelectionError struct {
	Kind       params.OpKind
	Params     string
	Rejections []Rejection
}

// Error implements error.
func (e *SelectionError) Error() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%s for %s", ErrNoCapabilityMatch, e.Params)
	if len(e.Rejections) == 0 {
		_, _ = fmt.Fprintf(&sb, ": no variants registered for %s", e.Kind)
		return sb.String()
	}
	for _, r := range e.Rejections {
		sb.WriteString("\n\t- ")
		sb.WriteString(r.String())
	}
	return sb.String()
}

// Unwrap returns ErrNoCapabilityMatch followed by the cause of each rejection.
func (e *SelectionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Rejections)+1)
	errs = append(errs, ErrNoCapabilityMatch)
	for _, r := range e.Rejections {
		errs = append(errs, r.Err)
	}
	return errs
}
