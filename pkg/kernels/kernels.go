// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package kernels is the catalogue of all kernel variants: it builds the frozen selector.Registry with
// every family, in a fixed registration order.
//
// Example:
//
//	sel := kernels.NewSelector()
//	desc, err := sel.Select(p)
package kernels

import (
	"sync"

	"github.com/gomlx/kernelselector/pkg/kernels/convolution"
	"github.com/gomlx/kernelselector/pkg/kernels/lrn"
	"github.com/gomlx/kernelselector/pkg/selector"
)

// Register all kernel families in r: LRN first, then convolution.
func Register(r *selector.Registry) {
	lrn.Register(r)
	convolution.Register(r)
}

// NewRegistry returns a new frozen registry with all the kernel variants.
func NewRegistry() *selector.Registry {
	r := selector.NewRegistry()
	Register(r)
	r.Freeze()
	return r
}

// Default returns the registry shared by the process, built on first use.
var Default = sync.OnceValue(NewRegistry)

// NewSelector returns a selector over the Default registry.
func NewSelector(options ...selector.Option) *selector.Selector {
	return selector.New(Default(), options...)
}
