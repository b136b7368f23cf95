// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package selector

import (
	"testing"

	"github.com/gomlx/kernelselector/pkg/core/dtypes"
	"github.com/gomlx/kernelselector/pkg/core/layouts"
	"github.com/gomlx/kernelselector/pkg/core/tensors"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernel/dispatch"
	"github.com/gomlx/kernelselector/pkg/kernel/jit"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeVariant is a configurable Variant.
type fakeVariant struct {
	name        string
	key         capability.Key
	validateErr error
	dispatchErr error
	priority    Priority
	constants   []jit.Constant
}

func (v *fakeVariant) Name() string                 { return v.name }
func (v *fakeVariant) SupportedKey() capability.Key { return v.key }
func (v *fakeVariant) Validate(*params.Params) error {
	return v.validateErr
}
func (v *fakeVariant) DefaultDispatch(p *params.Params) (dispatch.Plan, error) {
	if v.dispatchErr != nil {
		return dispatch.Plan{}, v.dispatchErr
	}
	return dispatch.NewPlan([3]int{p.Output.X() * p.Output.Y(), p.Output.Feature(), p.Output.Batch()}, p.Device)
}
func (v *fakeVariant) GenerateConstants(_ *params.Params, plan dispatch.Plan) (*jit.Set, error) {
	set, err := jit.NewSet(jit.MakeConstant("VARIANT", v.name), jit.MakeConstant("GWS0", plan.Global[0]))
	if err != nil {
		return nil, err
	}
	if err := set.Add(v.constants...); err != nil {
		return nil, err
	}
	return set, nil
}
func (v *fakeVariant) Priority(*params.Params) Priority { return v.priority }

func lrnKey() capability.Key {
	var k capability.Key
	k.EnableInputTypes(dtypes.Float32).
		EnableOutputTypes(dtypes.Float32).
		EnableInputLayouts(layouts.LayoutByxf).
		EnableOutputLayouts(layouts.LayoutByxf).
		EnableModes(params.ModeLRNWithinChannel, params.ModeLRNDividerFixed).
		EnableFlags(capability.FlagBatching)
	return k
}

func newFake(name string, priority Priority) *fakeVariant {
	return &fakeVariant{name: name, key: lrnKey(), priority: priority}
}

func lrnParams(t *testing.T) *params.Params {
	dev, err := device.Preset("gen9")
	require.NoError(t, err)
	desc := tensors.Make(dtypes.Float32, layouts.LayoutByxf, 2, 16, 7, 7)
	attrs := params.LRN{LocalSize: 5, NormMode: params.LRNWithinChannel, Alpha: 1e-4, Beta: 0.75, K: 1}
	return params.New(attrs, dev, desc, desc.Clone())
}

func newSelector(options []Option, variants ...Variant) *Selector {
	r := NewRegistry()
	for _, v := range variants {
		r.Register(params.OpKindLRN, v)
	}
	return New(r, options...)
}

func TestSelect_Ranking(t *testing.T) {
	p := lrnParams(t)
	s := newSelector(nil, newFake("low", ForcePriority(9)), newFake("high", ForcePriority(2)), newFake("fallback", PriorityFallback))
	desc, err := s.Select(p)
	require.NoError(t, err)
	assert.Equal(t, "high", desc.VariantName)
	assert.Equal(t, ForcePriority(2), desc.Priority)
	assert.Equal(t, params.OpKindLRN, desc.Kind)
	value, _ := desc.Constants.Get("VARIANT")
	assert.Equal(t, "high", value)
	kernelID, _ := desc.Constants.Get(KernelIDConstant)
	assert.Equal(t, desc.EntryPoint, kernelID)
	assert.Equal(t, KernelIDConstant, desc.Constants.Names()[desc.Constants.Len()-1], "KERNEL_ID is merged last")
	assert.Len(t, desc.EntryPoint, len("high_")+12)

	ranked, err := s.SelectRanked(p)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].VariantName)
	assert.Equal(t, "low", ranked[1].VariantName)
	assert.Equal(t, "fallback", ranked[2].VariantName)

	limited := newSelector([]Option{WithMaxAlternatives(2)}, newFake("low", ForcePriority(9)), newFake("high", ForcePriority(2)), newFake("fallback", PriorityFallback))
	ranked, err = limited.SelectRanked(p)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestSelect_TieBreak(t *testing.T) {
	p := lrnParams(t)
	s := newSelector(nil, newFake("first", ForcePriority(5)), newFake("second", ForcePriority(5)))
	desc, err := s.Select(p)
	require.NoError(t, err)
	assert.Equal(t, "first", desc.VariantName)

	s = newSelector(nil, newFake("second", ForcePriority(5)), newFake("first", ForcePriority(5)))
	desc, err = s.Select(p)
	require.NoError(t, err)
	assert.Equal(t, "second", desc.VariantName)
}

func TestSelect_Rejections(t *testing.T) {
	p := lrnParams(t)

	// Validation failure of the best falls back to the next.
	failing := newFake("optimized", ForcePriority(1))
	failing.validateErr = errors.Wrap(ErrValidationFailed, "features not aligned")
	s := newSelector(nil, failing, newFake("ref", PriorityFallback))
	desc, err := s.Select(p)
	require.NoError(t, err)
	assert.Equal(t, "ref", desc.VariantName)

	// Only candidate fails: NoCapabilityMatch, with the validation cause.
	s = newSelector(nil, failing)
	_, err = s.Select(p)
	require.ErrorIs(t, err, ErrNoCapabilityMatch)
	require.ErrorIs(t, err, ErrValidationFailed)
	var selErr *SelectionError
	require.True(t, errors.As(err, &selErr))
	require.Len(t, selErr.Rejections, 1)
	assert.Equal(t, StageValidating, selErr.Rejections[0].Stage)

	// Validation errors not wrapping ErrValidationFailed are still reported as such.
	plain := newFake("plain", ForcePriority(1))
	plain.validateErr = errors.New("nope")
	_, err = newSelector(nil, plain).Select(p)
	require.ErrorIs(t, err, ErrValidationFailed)

	// Capability mismatch.
	mismatched := newFake("bfyx_only", ForcePriority(1))
	mismatched.key.InputLayouts = capability.SetOf(layouts.LayoutBfyx)
	_, err = newSelector(nil, mismatched).Select(p)
	require.ErrorIs(t, err, ErrNoCapabilityMatch)
	require.NotErrorIs(t, err, ErrValidationFailed)
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, StageMatching, selErr.Rejections[0].Stage)
	assert.Contains(t, err.Error(), "bfyx_only")

	// Nothing registered for the kind.
	_, err = newSelector(nil).Select(p)
	require.ErrorIs(t, err, ErrNoCapabilityMatch)

	// Invalid params.
	bad := p.Clone()
	bad.Output.Dimensions = nil
	_, err = newSelector(nil, newFake("ref", PriorityFallback)).Select(bad)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestSelect_DispatchFailureContinues(t *testing.T) {
	p := lrnParams(t)
	broken := newFake("broken", ForcePriority(1))
	broken.dispatchErr = errors.Wrap(ErrInvalidDispatchGeometry, "local size too large")
	s := newSelector(nil, broken, newFake("ref", PriorityFallback))
	desc, err := s.Select(p)
	require.NoError(t, err)
	assert.Equal(t, "ref", desc.VariantName)

	_, err = newSelector(nil, broken).Select(p)
	require.ErrorIs(t, err, ErrNoCapabilityMatch)
	require.ErrorIs(t, err, ErrInvalidDispatchGeometry)
}

func TestSelect_MergeConflictAborts(t *testing.T) {
	p := lrnParams(t)
	conflicting := newFake("conflicting", ForcePriority(1))
	conflicting.constants = []jit.Constant{jit.MakeConstant("VARIANT", "other")}
	s := newSelector(nil, conflicting, newFake("ref", PriorityFallback))
	_, err := s.Select(p)
	require.ErrorIs(t, err, ErrConstantMergeConflict)
	require.NotErrorIs(t, err, ErrNoCapabilityMatch)

	// Declaring KERNEL_ID with a different value is also a conflict.
	kernelID := newFake("kernel_id", ForcePriority(1))
	kernelID.constants = []jit.Constant{jit.MakeConstant(KernelIDConstant, "my_kernel")}
	_, err = newSelector(nil, kernelID).Select(p)
	require.ErrorIs(t, err, ErrConstantMergeConflict)
}

func TestSelect_ForcedVariant(t *testing.T) {
	p := lrnParams(t)
	variants := []Variant{newFake("ref", PriorityFallback), newFake("opt", ForcePriority(1))}
	desc, err := newSelector([]Option{WithForcedVariant("ref")}, variants...).Select(p)
	require.NoError(t, err)
	assert.Equal(t, "ref", desc.VariantName)

	_, err = newSelector([]Option{WithForcedVariant("missing")}, variants...).Select(p)
	require.ErrorIs(t, err, ErrNoCapabilityMatch)
}

func TestSelect_DeterministicAndConcurrent(t *testing.T) {
	s := newSelector(nil, newFake("a", ForcePriority(3)), newFake("b", ForcePriority(3)), newFake("c", PriorityFallback))
	want, err := s.Select(lrnParams(t))
	require.NoError(t, err)

	var g errgroup.Group
	results := make([]*Descriptor, 64)
	for ii := range results {
		p := lrnParams(t)
		g.Go(func() error {
			desc, err := s.Select(p)
			results[ii] = desc
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, desc := range results {
		require.True(t, want.Equal(desc), "got %s, wanted %s", desc, want)
		require.Equal(t, want.Constants.Lines(), desc.Constants.Lines())
	}

	clone := want.Clone()
	require.NoError(t, clone.Constants.AddValue("EXTRA", 1))
	assert.False(t, want.Constants.Has("EXTRA"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a, b := newFake("a", 1), newFake("b", 2)
	r.Register(params.OpKindLRN, a)
	r.Register(params.OpKindConvolution, b)
	require.Panics(t, func() { r.Register(params.OpKindLRN, newFake("a", 3)) }, "duplicate name")
	require.Panics(t, func() { r.Register(params.OpKindLRN, nil) })
	require.Panics(t, func() { r.Register(params.OpKindInvalid, newFake("c", 1)) })

	assert.Equal(t, []Variant{a}, r.VariantsFor(params.OpKindLRN))
	assert.Empty(t, r.VariantsFor(params.OpKindLast))
	assert.Equal(t, []params.OpKind{params.OpKindLRN, params.OpKindConvolution}, r.Kinds())
	assert.Equal(t, 2, r.Len())
	v, found := r.Lookup("b")
	assert.True(t, found)
	assert.Equal(t, Variant(b), v)

	r.Freeze()
	assert.True(t, r.IsFrozen())
	require.Panics(t, func() { r.Register(params.OpKindLRN, newFake("d", 1)) })

	// Returned slices are copies.
	variants := r.VariantsFor(params.OpKindLRN)
	variants[0] = b
	assert.Equal(t, []Variant{a}, r.VariantsFor(params.OpKindLRN))
}

func TestForcePriority(t *testing.T) {
	assert.Greater(t, ForcePriority(1), ForcePriority(2))
	assert.Greater(t, ForcePriority(MaxForcedLevel), PriorityFallback)
	require.Panics(t, func() { ForcePriority(0) })
	require.Panics(t, func() { ForcePriority(10) })
}
