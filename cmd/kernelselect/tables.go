// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/kernelselector/pkg/kernel/capability"
	"github.com/gomlx/kernelselector/pkg/kernel/params"
	"github.com/gomlx/kernelselector/pkg/selector"
	"github.com/muesli/termenv"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)

	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "10"}).
				Bold(true).
				PaddingLeft(1).PaddingRight(1)
)

// disableColors makes lipgloss render plain text, e.g. when the output is piped.
func disableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// newPlainTable returns a table with the default styles. If highlightFirst is set, the first row
// after the header is rendered with selectedRowStyle.
func newPlainTable(withHeader, highlightFirst bool, alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			switch {
			case row < 0 && withHeader:
				s = headerRowStyle
				return
			case row == 0 && highlightFirst:
				s = selectedRowStyle
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			s = s.Align(alignment)
			return
		})
}

// descriptorsTable lists the descriptors, best first.
func descriptorsTable(descs []*selector.Descriptor) string {
	table := newPlainTable(true, true,
		lipgloss.Right, lipgloss.Left, lipgloss.Right, lipgloss.Left, lipgloss.Right, lipgloss.Right)
	table.Headers("#", "Variant", "Priority", "Dispatch", "Work-Items", "Work-Groups")
	for ii, desc := range descs {
		table.Row(
			fmt.Sprintf("%d", ii),
			desc.VariantName,
			fmt.Sprintf("%g", float64(desc.Priority)),
			desc.Dispatch.String(),
			humanize.Comma(int64(desc.Dispatch.WorkItems())),
			humanize.Comma(int64(desc.Dispatch.WorkGroups())),
		)
	}
	return table.Render()
}

// constantsTable lists the JIT constants of a descriptor in their definition order.
func constantsTable(desc *selector.Descriptor) string {
	table := newPlainTable(true, false)
	table.Headers("Constant", "Value")
	for _, c := range desc.Constants.All() {
		table.Row(c.Name, c.Value)
	}
	return table.Render()
}

// rejectionsTable lists why each variant was discarded.
func rejectionsTable(selErr *selector.SelectionError) string {
	table := newPlainTable(true, false)
	table.Headers("Variant", "Stage", "Reason")
	for _, r := range selErr.Rejections {
		table.Row(r.Variant, r.Stage.String(), r.Err.Error())
	}
	return table.Render()
}

// capabilitiesTable lists every registered variant with its supported key, one row per key field.
func capabilitiesTable(registry *selector.Registry) string {
	table := newPlainTable(true, false)
	table.Headers("Op", "Variant", "Capability", "Values")
	for _, kind := range registry.Kinds() {
		for _, variant := range registry.VariantsFor(kind) {
			key := variant.SupportedKey()
			for ii, field := range keyFields(key) {
				opName, variantName := "", ""
				if ii == 0 {
					opName, variantName = kind.String(), variant.Name()
				}
				table.Row(opName, variantName, field[0], field[1])
			}
		}
	}
	return table.Render()
}

// keyFields returns the non-empty fields of the key as (name, values) pairs.
func keyFields(key capability.Key) [][2]string {
	all := [][2]string{
		{"in_types", key.InputTypes.String()},
		{"out_types", key.OutputTypes.String()},
		{"in_layouts", key.InputLayouts.String()},
		{"out_layouts", key.OutputLayouts.String()},
		{"modes", key.Modes.String()},
		{"flags", key.Flags.String()},
		{"fused_ops", key.FusedOps.String()},
	}
	return slices.DeleteFunc(all, func(field [2]string) bool { return field[1] == "{}" })
}

// winnersTable shows how many times each variant was selected in a sweep, most frequent first.
func winnersTable(winners map[string]int, failures, total int) string {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(winners))
	for name, count := range winners {
		entries = append(entries, entry{name, count})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return strings.Compare(a.name, b.name)
	})
	table := newPlainTable(true, false, lipgloss.Left, lipgloss.Right, lipgloss.Right)
	table.Headers("Variant", "Selected", "Share")
	addRow := func(name string, count int) {
		share := 0.0
		if total > 0 {
			share = 100 * float64(count) / float64(total)
		}
		table.Row(name, humanize.Comma(int64(count)), fmt.Sprintf("%.1f%%", share))
	}
	for _, e := range entries {
		addRow(e.name, e.count)
	}
	if failures > 0 {
		addRow("(no kernel)", failures)
	}
	return table.Render()
}

// paramsSummary is a one-line description of the params used as the report title.
func paramsSummary(p *params.Params) string {
	return fmt.Sprintf("%s on %s", p, p.Device.Name)
}
