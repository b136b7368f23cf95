// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"testing"

	"github.com/gomlx/kernelselector/pkg/kernel/device"
	"github.com/gomlx/kernelselector/pkg/kernels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepConfigs(t *testing.T) {
	a := sweepConfigs(lrnConfig(), 50, 7)
	b := sweepConfigs(lrnConfig(), 50, 7)
	require.Len(t, a, 50)
	assert.Equal(t, a, b)

	c := sweepConfigs(lrnConfig(), 50, 8)
	assert.NotEqual(t, a, c)

	for _, cfg := range sweepConfigs(convConfig(), 20, 1) {
		assert.Equal(t, "conv", cfg.op)
		assert.Equal(t, cfg.filter[0]/2, cfg.pad[0])
		assert.Len(t, cfg.dims, 4)
	}
}

func TestRunSweep(t *testing.T) {
	info, err := device.Preset("gen9")
	require.NoError(t, err)
	sel := kernels.NewSelector()
	registry := kernels.Default()

	for _, base := range []opConfig{lrnConfig(), convConfig()} {
		const n = 200
		var progress bytes.Buffer
		result, err := runSweep(sweepConfigs(base, n, 42), info, sel, 4, &progress)
		require.NoError(t, err, base.op)
		assert.Equal(t, n, result.Total)

		selected := result.Failures
		for name, count := range result.Winners {
			_, found := registry.Lookup(name)
			assert.True(t, found, "unknown variant %q", name)
			selected += count
		}
		assert.Equal(t, n, selected)
		assert.Equal(t, int64(n), result.Stats.Hits+result.Stats.Misses)
		assert.LessOrEqual(t, result.Stats.Entries, n)

		table := winnersTable(result.Winners, result.Failures, result.Total)
		for name := range result.Winners {
			assert.Contains(t, table, name)
		}
	}

	// LRN has a reference kernel that accepts every configuration of the sweep.
	result, err := runSweep(sweepConfigs(lrnConfig(), 100, 3), info, sel, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Failures)
}
