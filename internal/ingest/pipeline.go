package ingest

// pipeline.go wires the stages into a single call: raw text in, validated
// rows plus diagnostics plus canonical headers out.
//
// Data flows one way: text -> detected delimiter -> raw rows/headers ->
// header mapping -> normalized values -> validated rows + diagnostics. The
// returned Result is immutable; each file load produces a fresh one that the
// caller swaps in atomically.
//
// Row validation for large files (up to ~100k rows) runs across a bounded
// worker pool; the per-row contract is unchanged and assembly is
// deterministic in row order.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
)

// validationChunkSize is how many rows one worker validates per task.
const validationChunkSize = 2048

// ErrEmptyFile is returned when the input has no usable content.
var ErrEmptyFile = errors.New("empty file")

// Options controls one pipeline run.
type Options struct {
	// Delimiter short-circuits detection when non-empty.
	Delimiter string
	// NoHeader treats the first row as data and assumes canonical column
	// order. The default (false) expects a single header row.
	NoHeader bool
}

// Pipeline orchestrates delimiter detection, header mapping and row
// validation. Safe for concurrent use; all configuration is read-only.
type Pipeline struct {
	mapper  *HeaderMapper
	workers int
}

// NewPipeline creates a pipeline over the given synonym table. workers <= 0
// selects one worker per CPU.
func NewPipeline(synonyms map[schema.Field][]string, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		mapper:  NewHeaderMapper(synonyms),
		workers: workers,
	}
}

// Run executes the full ingestion pipeline over decoded file text.
//
// Structural CSV errors (unbalanced quoting and the like) are fatal for the
// load and returned as an error with the offending line. Everything else —
// missing columns, bad values — comes back as diagnostics inside the Result;
// Run never fails because of data content.
func (p *Pipeline) Run(fileName, text string, opts Options) (*Result, error) {
	start := time.Now()

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	delim := opts.Delimiter
	if delim == "" {
		delim = DetectDelimiter(text)
	}

	records, err := parseCSV(text, delim)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	var headers []string
	var data [][]string
	if opts.NoHeader {
		headers = canonicalHeaders()
		data = records
	} else {
		headers = records[0]
		data = records[1:]
	}

	mapping := p.mapper.Map(headers)
	validator := NewRowValidator(mapping)

	// Blank rows are dropped before validation so every retained row is
	// either accepted or diagnosed, never silently skipped.
	rows := make([]RawRow, 0, len(data))
	for _, rec := range data {
		if !isBlankRow(rec) {
			rows = append(rows, RawRow(rec))
		}
	}

	diagnostics := validator.SchemaDiagnostics()
	valid, rowDiags := p.validateAll(validator, rows)
	diagnostics = append(diagnostics, rowDiags...)

	missing := mapping.MissingRequired()

	return &Result{
		RunID:         uuid.New().String(),
		FileName:      fileName,
		LoadedAt:      start,
		Duration:      time.Since(start),
		RawText:       text,
		Delimiter:     delim,
		Headers:       headers,
		HeaderMap:     mapping.Labels,
		MappedHeaders: mapping.Mapped,
		Missing:       missing,
		Rows:          rows,
		Valid:         valid,
		Diagnostics:   diagnostics,
	}, nil
}

// validateAll fans row validation out over the worker pool and reassembles
// the outcomes in row order.
func (p *Pipeline) validateAll(validator *RowValidator, rows []RawRow) ([]ValidatedRow, []Diagnostic) {
	type outcome struct {
		row   ValidatedRow
		diags []Diagnostic
	}
	outcomes := make([]outcome, len(rows))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for lo := 0; lo < len(rows); lo += validationChunkSize {
		hi := lo + validationChunkSize
		if hi > len(rows) {
			hi = len(rows)
		}
		lo, hi := lo, hi
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				row, diags := validator.ValidateRow(rows[i], i+1)
				outcomes[i] = outcome{row: row, diags: diags}
			}
			return nil
		})
	}
	// Workers only write disjoint slots and never fail.
	_ = g.Wait()

	var valid []ValidatedRow
	var diags []Diagnostic
	for _, o := range outcomes {
		if o.row != nil {
			valid = append(valid, o.row)
		}
		diags = append(diags, o.diags...)
	}
	return valid, diags
}

// parseCSV parses the whole text with the given single-character delimiter.
// Quote errors are fatal and carry the offending line number.
func parseCSV(text, delim string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = []rune(delim)[0]
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("invalid csv: line %d: %v", pe.Line, pe.Err)
		}
		return nil, fmt.Errorf("invalid csv: %v", err)
	}
	return records, nil
}

// canonicalHeaders returns the canonical field names in column order, used
// when the caller declares the file has no header row.
func canonicalHeaders() []string {
	headers := make([]string, len(schema.AllFields))
	for i, f := range schema.AllFields {
		headers[i] = string(f)
	}
	return headers
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
