// Package report aggregates validation diagnostics into bounded, display-ready
// groupings and an unbounded text export.
//
// Diagnostics arrive structured (row index, field, message), so grouping is a
// bucket pass, never message parsing. On-screen views cap samples per group;
// the text export enumerates everything.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/ingest"
)

// MaxSamplesPerGroup bounds how many samples a grouped view keeps per bucket.
// Counts are always exact; only the sample lists truncate.
const MaxSamplesPerGroup = 10

// ColumnGroup aggregates diagnostics that reference the same field.
type ColumnGroup struct {
	Field string `json:"field"`
	Count int    `json:"count"`
	// Samples holds up to MaxSamplesPerGroup entries as "row N: message".
	Samples []string `json:"samples"`
}

// RowGroup aggregates diagnostics for a single row index.
type RowGroup struct {
	RowIndex int `json:"rowIndex"`
	Count    int `json:"count"`
	// Items holds up to MaxSamplesPerGroup entries as "field: message".
	Items []string `json:"items"`
}

// Report is the grouped, read-only view over one run's diagnostics.
type Report struct {
	Total    int           `json:"total"`
	ByColumn []ColumnGroup `json:"byColumn"`
	ByRow    []RowGroup    `json:"byRow"`
}

// Build groups diagnostics by column and by row. Column groups are ordered by
// descending count (ties by field name); row groups ascend by row index.
// Samples are capped; the full detail is available through Text.
func Build(diags []ingest.Diagnostic) Report {
	return build(diags, MaxSamplesPerGroup)
}

func build(diags []ingest.Diagnostic, maxSamples int) Report {
	colCounts := map[string]int{}
	colSamples := map[string][]string{}
	rowCounts := map[int]int{}
	rowItems := map[int][]string{}

	for _, d := range diags {
		colCounts[d.Field]++
		if maxSamples <= 0 || len(colSamples[d.Field]) < maxSamples {
			colSamples[d.Field] = append(colSamples[d.Field], columnSample(d))
		}

		rowCounts[d.RowIndex]++
		if maxSamples <= 0 || len(rowItems[d.RowIndex]) < maxSamples {
			rowItems[d.RowIndex] = append(rowItems[d.RowIndex], d.Field+": "+d.Message)
		}
	}

	byColumn := make([]ColumnGroup, 0, len(colCounts))
	for field, count := range colCounts {
		byColumn = append(byColumn, ColumnGroup{
			Field:   field,
			Count:   count,
			Samples: colSamples[field],
		})
	}
	sort.Slice(byColumn, func(i, j int) bool {
		if byColumn[i].Count != byColumn[j].Count {
			return byColumn[i].Count > byColumn[j].Count
		}
		return byColumn[i].Field < byColumn[j].Field
	})

	byRow := make([]RowGroup, 0, len(rowCounts))
	for row, count := range rowCounts {
		byRow = append(byRow, RowGroup{
			RowIndex: row,
			Count:    count,
			Items:    rowItems[row],
		})
	}
	sort.Slice(byRow, func(i, j int) bool {
		return byRow[i].RowIndex < byRow[j].RowIndex
	})

	return Report{
		Total:    len(diags),
		ByColumn: byColumn,
		ByRow:    byRow,
	}
}

func columnSample(d ingest.Diagnostic) string {
	if d.RowIndex == 0 {
		return d.Message
	}
	return fmt.Sprintf("row %d: %s", d.RowIndex, d.Message)
}

// Text renders the complete, uncapped report for download: every group and
// every sample, by column then by row.
func Text(diags []ingest.Diagnostic) string {
	full := build(diags, 0)

	var b strings.Builder
	fmt.Fprintf(&b, "Validation report: %d issue(s)\n", full.Total)

	b.WriteString("\nBy column\n")
	if len(full.ByColumn) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, g := range full.ByColumn {
		fmt.Fprintf(&b, "  %s (%d)\n", g.Field, g.Count)
		for _, s := range g.Samples {
			fmt.Fprintf(&b, "    %s\n", s)
		}
	}

	b.WriteString("\nBy row\n")
	if len(full.ByRow) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, g := range full.ByRow {
		label := fmt.Sprintf("row %d", g.RowIndex)
		if g.RowIndex == 0 {
			label = "schema"
		}
		fmt.Fprintf(&b, "  %s (%d)\n", label, g.Count)
		for _, item := range g.Items {
			fmt.Fprintf(&b, "    %s\n", item)
		}
	}

	return b.String()
}
