// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package selector picks, among the kernel variants registered for an operation, the one to use for a
// given operation instance, and produces its dispatch geometry and JIT constants.
//
// Selection goes through the stages:
//
//  1. Matching: keep the variants whose capability.Key supports the key required by the params.
//  2. Validating: keep the ones whose Validate accepts the params.
//  3. Ranking: sort by Priority, descending, ties broken by registration order.
//  4. Emitting: compute the dispatch plan and constants of the best ranked variant. A variant whose
//     dispatch geometry is invalid is skipped in favour of the next one. A JIT constant merge
//     conflict aborts the selection.
//
// Selection is deterministic and has no side effects: a Selector can be used concurrently.
package selector

import (
	"cmp"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Selector selects kernel variants from a frozen Registry.
type Selector struct {
	registry        *Registry
	forcedVariant   string
	maxAlternatives int
}

// Option configures a Selector.
type Option func(s *Selector)

// WithForcedVariant restricts selection to the variant with the given name. The variant still has to
// match and validate the params, otherwise selection fails.
func WithForcedVariant(name string) Option {
	return func(s *Selector) {
		s.forcedVariant = name
	}
}

// WithMaxAlternatives limits the number of descriptors returned by SelectRanked. 0 (the default) means
// no limit.
func WithMaxAlternatives(n int) Option {
	return func(s *Selector) {
		s.maxAlternatives = max(n, 0)
	}
}

// New returns a Selector over registry. The registry is frozen, if it isn't yet.
func New(registry *Registry, options ...Option) *Selector {
	if registry == nil {
		exceptions.Panicf("selector.New: nil registry")
	}
	registry.Freeze()
	s := &Selector{registry: registry}
	for _, option := range options {
		option(s)
	}
	if s.forcedVariant != "" {
		if _, found := registry.Lookup(s.forcedVariant); !found {
			klog.Warningf("selector: forced variant %q is not registered, all selections will fail", s.forcedVariant)
		}
	}
	return s
}

// Registry returns the registry used by the selector.
func (s *Selector) Registry() *Registry {
	return s.registry
}

// Select returns the descriptor of the best variant for p.
//
// Errors:
//   - ErrInvalidParams if p is not well-formed.
//   - *SelectionError (that is ErrNoCapabilityMatch) if no variant can handle p.
//   - ErrConstantMergeConflict if the best ranked variant has conflicting constants.
func (s *Selector) Select(p *params.Params) (*Descriptor, error) {
	descs, err := s.selectN(p, 1)
	if err != nil {
		return nil, err
	}
	return descs[0], nil
}

// SelectRanked returns the descriptors of all the variants that can handle p, best first, limited by
// WithMaxAlternatives. Errors are the same as Select.
func (s *Selector) SelectRanked(p *params.Params) ([]*Descriptor, error) {
	return s.selectN(p, s.maxAlternatives)
}

type candidate struct {
	variant  Variant
	order    int
	priority Priority
}

// selectN emits up to limit descriptors, limit <= 0 meaning all.
func (s *Selector) selectN(p *params.Params, limit int) ([]*Descriptor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	selErr := &SelectionError{Kind: p.Kind, Params: p.String()}
	reject := func(v Variant, stage Stage, err error) {
		klog.V(2).Infof("selector: %s: %s rejected at %s: %v", p.Kind, v.Name(), stage, err)
		selErr.Rejections = append(selErr.Rejections, Rejection{Variant: v.Name(), Stage: stage, Err: err})
	}

	// Matching and validating.
	required := capability.RequiredFor(p)
	var candidates []candidate
	for order, v := range s.registry.VariantsFor(p.Kind) {
		if s.forcedVariant != "" && v.Name() != s.forcedVariant {
			continue
		}
		if missing := v.SupportedKey().Missing(required); !missing.IsEmpty() {
			reject(v, StageMatching, errors.Errorf("capability not supported: %s", missing))
			continue
		}
		if err := v.Validate(p); err != nil {
			if !errors.Is(err, ErrValidationFailed) {
				err = errors.Wrap(ErrValidationFailed, err.Error())
			}
			reject(v, StageValidating, err)
			continue
		}
		candidates = append(candidates, candidate{variant: v, order: order, priority: v.Priority(p)})
	}

	// Ranking.
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})

	// Emitting.
	var descs []*Descriptor
	fingerprint := params.Fingerprint(p)
	for _, c := range candidates {
		v := c.variant
		plan, err := v.DefaultDispatch(p)
		if err == nil {
			err = plan.Validate(p.Device)
		}
		if err != nil {
			reject(v, StageDispatch, err)
			continue
		}
		klog.V(3).Infof("selector: %s: %s dispatch %s", p.Kind, v.Name(), plan)

		constants, err := v.GenerateConstants(p, plan)
		entryPoint := EntryPointFor(v.Name(), fingerprint)
		if err == nil {
			if constants == nil {
				constants = &jit.Set{}
			}
			err = constants.AddValue(KernelIDConstant, entryPoint)
		}
		if err != nil {
			if errors.Is(err, ErrConstantMergeConflict) {
				return nil, errors.WithMessagef(err, "variant %q for %s", v.Name(), p)
			}
			reject(v, StageConstants, err)
			continue
		}
		descs = append(descs, &Descriptor{
			Kind:        p.Kind,
			VariantName: v.Name(),
			EntryPoint:  entryPoint,
			Dispatch:    plan,
			Constants:   constants,
			Priority:    c.priority,
			Fingerprint: fingerprint,
		})
		if limit > 0 && len(descs) >= limit {
			break
		}
	}
	if len(descs) == 0 {
		return nil, selErr
	}
	klog.V(1).Infof("selector: %s: selected %s (priority %g) out of %d candidates",
		p, descs[0].VariantName, float64(descs[0].Priority), len(candidates))
	return descs, nil
}
