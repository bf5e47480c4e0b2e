package ingest

// validate.go applies the canonical schema to remapped rows.
//
// Validation happens at two levels:
//  1. Schema level: required fields with no mapped column produce a single
//     rowIndex-0 diagnostic listing everything missing. Row validation still
//     runs afterwards, because downstream tooling wants per-row detail even
//     when the file is structurally broken.
//  2. Row level: each cell is coerced to its field's scalar kind; a row is
//     accepted only when every required field parses. Rejected rows
//     contribute one diagnostic per failing field and are excluded from the
//     validated set.
//
// Validation never returns an error; problems are always data.

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

// RowValidator validates rows against a computed header mapping.
type RowValidator struct {
	mapping Mapping
}

// NewRowValidator creates a validator for one file's header mapping.
func NewRowValidator(mapping Mapping) *RowValidator {
	return &RowValidator{mapping: mapping}
}

// SchemaDiagnostics returns the rowIndex-0 diagnostic for structurally
// missing required columns, or nil when all required fields are mapped.
func (v *RowValidator) SchemaDiagnostics() []Diagnostic {
	missing := v.mapping.MissingRequired()
	if len(missing) == 0 {
		return nil
	}

	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}

	return []Diagnostic{{
		RowIndex: 0,
		Field:    SchemaField,
		Message:  "missing required columns: " + strings.Join(names, ", "),
	}}
}

// ValidateRow coerces and validates a single data row. rowIndex is 1-based.
// Exactly one of the return values is meaningful: a non-nil ValidatedRow with
// no diagnostics, or a nil row with at least one diagnostic.
func (v *RowValidator) ValidateRow(row RawRow, rowIndex int) (ValidatedRow, []Diagnostic) {
	candidate := make(ValidatedRow, len(schema.AllFields))
	var diags []Diagnostic

	for _, field := range schema.AllFields {
		col, mapped := v.mapping.Columns[field]

		var raw string
		hasCell := mapped && col < len(row)
		if hasCell {
			raw = strings.TrimSpace(row[col])
		}

		switch schema.KindOf(field) {
		case schema.KindString:
			// A string field is never "missing": absent coerces to "".
			val := raw
			if schema.IsRequired(field) && val == "" {
				msg := "required value is empty"
				if !mapped {
					msg = "column not mapped"
				}
				diags = append(diags, Diagnostic{RowIndex: rowIndex, Field: string(field), Message: msg})
				continue
			}
			candidate[field] = StringValue(normalizeStringField(field, val))

		case schema.KindNumber:
			val, parseErr := coerceNumber(raw, hasCell)
			if val.Kind == ValueAbsent {
				if schema.IsRequired(field) {
					msg := "required value is empty"
					if !mapped {
						msg = "column not mapped"
					} else if parseErr != "" {
						msg = parseErr
					}
					diags = append(diags, Diagnostic{RowIndex: rowIndex, Field: string(field), Message: msg})
					continue
				}
				if parseErr != "" {
					// Present optional values must still be finite numbers.
					diags = append(diags, Diagnostic{RowIndex: rowIndex, Field: string(field), Message: parseErr})
					continue
				}
				// Absent optional numerics default to zero, the way the
				// downstream stress model expects them.
				candidate[field] = NumberValue(0)
				continue
			}
			candidate[field] = val
		}
	}

	if len(diags) > 0 {
		return nil, diags
	}
	return candidate, nil
}

// coerceNumber maps a raw cell to a numeric Value. Absent or empty input is
// absent; unparseable input is absent with a message so the caller can tell
// "empty" apart from "garbage".
func coerceNumber(raw string, hasCell bool) (Value, string) {
	if !hasCell || raw == "" {
		return Absent, ""
	}

	n, err := strconv.ParseFloat(NormalizeNumber(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Absent, fmt.Sprintf("invalid number %q", raw)
	}
	return NumberValue(n), ""
}

// normalizeStringField applies the downstream casing conventions: instrument
// type, fixed/float flag and stability are compared lowercase, category
// uppercase.
func normalizeStringField(field schema.Field, val string) string {
	switch field {
	case schema.FieldType, schema.FieldFixedFloat, schema.FieldStability:
		return strings.ToLower(val)
	case schema.FieldCategory:
		return strings.ToUpper(val)
	default:
		return val
	}
}
