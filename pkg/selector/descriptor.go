// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package selector

import (
	"encoding/hex"
	"fmt"

	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/google/uuid"
)

// KernelIDConstant is the name of the JIT constant holding the entry point of the kernel.
const KernelIDConstant = "KERNEL_ID"

// Descriptor is the result of a selection: everything the kernel compiler needs to specialize and
// dispatch the selected variant. It is owned by the caller.
type Descriptor struct {
	Kind        params.OpKind
	VariantName string

	// EntryPoint is the kernel function name: the variant name plus a suffix derived from the params
	// fingerprint. It is also defined as the KERNEL_ID constant.
	EntryPoint string

	Dispatch  dispatch.Plan
	Constants *jit.Set

	// Priority used to rank the variant, also used by the compiler to break ties across descriptors.
	Priority Priority

	// Fingerprint of the params the descriptor was selected for.
	Fingerprint uuid.UUID
}

// EntryPointFor returns the entry point name of a variant for the params fingerprint.
func EntryPointFor(variantName string, fingerprint uuid.UUID) string {
	return variantName + "_" + hex.EncodeToString(fingerprint[:6])
}

// Clone returns a deep copy of d.
func (d *Descriptor) Clone() *Descriptor {
	clone := *d
	clone.Constants = d.Constants.Clone()
	return &clone
}

// Equal returns whether d and other are identical.
func (d *Descriptor) Equal(other *Descriptor) bool {
	return d.Kind == other.Kind && d.VariantName == other.VariantName && d.EntryPoint == other.EntryPoint &&
		d.Dispatch == other.Dispatch && d.Priority == other.Priority && d.Fingerprint == other.Fingerprint &&
		d.Constants.Equal(other.Constants)
}

// String implements fmt.Stringer. It doesn't include the constants.
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s/%s (priority %g): %s, %d constants",
		d.Kind, d.EntryPoint, float64(d.Priority), d.Dispatch, d.Constants.Len())
}
