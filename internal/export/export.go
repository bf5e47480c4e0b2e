// Package export renders validated rows in the supported download formats
// (CSV, JSON, XLSX) and produces blank upload templates with the canonical
// header row.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/ingest"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

// Format identifies a supported export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format string from a request.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type served for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Rows writes validated rows to w in the given format, canonical column
// order, header first.
func Rows(w io.Writer, rows []ingest.ValidatedRow, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatXLSX:
		return writeXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// Template writes a blank upload template: the canonical header row only.
func Template(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		_, err := io.WriteString(w, strings.Join(headerCells(), ",")+"\n")
		return err
	case FormatXLSX:
		return writeTemplateXLSX(w)
	default:
		return fmt.Errorf("unsupported template format %q", format)
	}
}

func headerCells() []string {
	cells := make([]string, len(schema.AllFields))
	for i, f := range schema.AllFields {
		cells[i] = string(f)
	}
	return cells
}

func writeCSV(w io.Writer, rows []ingest.ValidatedRow) error {
	if _, err := io.WriteString(w, strings.Join(headerCells(), ",")+"\n"); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(schema.AllFields))
		for i, f := range schema.AllFields {
			cells[i] = quoteCSV(cellString(row[f]))
		}
		if _, err := io.WriteString(w, strings.Join(cells, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// quoteCSV quotes a value containing a comma, quote or newline, doubling
// embedded quotes. Anything else passes through bare.
func quoteCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeJSON(w io.Writer, rows []ingest.ValidatedRow) error {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		obj := make(map[string]any, len(schema.AllFields))
		for _, f := range schema.AllFields {
			obj[string(f)] = cellValue(row[f])
		}
		out[i] = obj
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// cellString renders a value for text formats. Numbers use the shortest
// round-trippable decimal form.
func cellString(v ingest.Value) string {
	switch v.Kind {
	case ingest.ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ingest.ValueString:
		return v.Str
	default:
		return ""
	}
}

// cellValue renders a value for JSON, preserving the scalar kind.
func cellValue(v ingest.Value) any {
	switch v.Kind {
	case ingest.ValueNumber:
		return v.Num
	case ingest.ValueString:
		return v.Str
	default:
		return nil
	}
}
