// Package ingest turns raw balance-sheet CSV bytes into a typed, validated,
// schema-conformant result with row-addressable diagnostics.
package ingest

import (
	"time"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

// ValueKind discriminates the scalar stored in a Value.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueNumber
)

// Value is a typed cell after coercion. Absent values carry no payload.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

// StringValue returns a present string Value.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// NumberValue returns a present numeric Value.
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// Absent is the zero Value.
var Absent = Value{Kind: ValueAbsent}

// RawRow is one parsed data row, cell order matching the file's header order.
// Never mutated after parsing.
type RawRow []string

// ValidatedRow is a row remapped to canonical fields with every required
// field present and type-checked. Built all-or-nothing: a row either becomes
// a ValidatedRow or contributes diagnostics, never both.
type ValidatedRow map[schema.Field]Value

// SchemaField is the Diagnostic.Field value used for file-level issues that
// are not attributable to a single column.
const SchemaField = "schema"

// Diagnostic describes one validation problem, addressable by row and field.
// RowIndex 0 is reserved for schema-level issues; data rows are 1..N.
type Diagnostic struct {
	RowIndex int    `json:"rowIndex"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// Result is the immutable outcome of one pipeline run. A new file load
// produces a fresh Result that replaces the previous one atomically from the
// consumer's point of view; no field is mutated after Run returns.
type Result struct {
	RunID    string
	FileName string
	LoadedAt time.Time
	Duration time.Duration

	// RawText is the original decoded file text, handed unchanged to the
	// external stress-calculation service.
	RawText string

	Delimiter string
	Headers   []string
	HeaderMap map[string]schema.Field
	// MappedHeaders holds the original labels that mapped to a canonical
	// field, in column order.
	MappedHeaders []string
	// Missing lists required fields with no mapped column.
	Missing []schema.Field

	Rows        []RawRow
	Valid       []ValidatedRow
	Diagnostics []Diagnostic
}

// FieldFor returns the canonical field an original header label mapped to.
func (r *Result) FieldFor(label string) (schema.Field, bool) {
	f, ok := r.HeaderMap[label]
	return f, ok
}

// HasDiagnostics reports whether any schema- or row-level issue was found.
// Submission to the stress service is blocked while this is true.
func (r *Result) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}
