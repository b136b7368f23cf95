// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package selector

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
)

// Registry holds the kernel variants per kind of operation, in registration order.
//
// It is append-only while being populated, and frozen (read-only) afterward: after Freeze it can be
// shared by any number of concurrent Selector calls without synchronization.
type Registry struct {
	mu       sync.Mutex
	frozen   atomic.Bool
	variants map[params.OpKind][]Variant
	byName   map[string]Variant
	kinds    []params.OpKind
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		variants: make(map[params.OpKind][]Variant),
		byName:   make(map[string]Variant),
	}
}

// Register appends variant to the ones handling kind. Registration order breaks ties of priority:
// first registered wins.
//
// It panics if the registry is frozen, if variant is nil or if a variant with the same name was
// already registered: these are initialization errors.
func (r *Registry) Register(kind params.OpKind, variant Variant) {
	if variant == nil {
		exceptions.Panicf("Registry.Register(%s): nil variant", kind)
	}
	name := variant.Name()
	if kind <= params.OpKindInvalid || kind >= params.OpKindLast {
		exceptions.Panicf("Registry.Register(%s, %q): invalid operation kind", kind, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		exceptions.Panicf("Registry.Register(%s, %q): registry is frozen", kind, name)
	}
	if _, found := r.byName[name]; found {
		exceptions.Panicf("Registry.Register(%s, %q): variant name already registered", kind, name)
	}
	if _, found := r.variants[kind]; !found {
		r.kinds = append(r.kinds, kind)
	}
	r.variants[kind] = append(r.variants[kind], variant)
	r.byName[name] = variant
}

// Freeze makes the registry read-only. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// IsFrozen returns whether Freeze was called.
func (r *Registry) IsFrozen() bool {
	return r.frozen.Load()
}

// VariantsFor returns the variants registered for kind, in registration order.
// It returns an empty slice if there are none.
func (r *Registry) VariantsFor(kind params.OpKind) []Variant {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return slices.Clone(r.variants[kind])
}

// Lookup returns the variant registered with the given name.
func (r *Registry) Lookup(name string) (Variant, bool) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	v, found := r.byName[name]
	return v, found
}

// Kinds returns the kinds of operations with registered variants, in order of first registration.
func (r *Registry) Kinds() []params.OpKind {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return slices.Clone(r.kinds)
}

// Len returns the total number of registered variants.
func (r *Registry) Len() int {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return len(r.byName)
}
