package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/export"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/ingest"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/logging"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/preview"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/report"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/stress"
)

// RunSummary is the JSON shape returned after an upload and from the run
// summary endpoint.
type RunSummary struct {
	RunID           string         `json:"runId"`
	FileName        string         `json:"fileName"`
	LoadedAt        time.Time      `json:"loadedAt"`
	DurationMS      int64          `json:"durationMs"`
	Delimiter       string         `json:"delimiter"`
	RowCount        int            `json:"rowCount"`
	ValidCount      int            `json:"validCount"`
	DiagnosticCount int            `json:"diagnosticCount"`
	Headers         []string       `json:"headers"`
	MappedHeaders   []string       `json:"mappedHeaders"`
	MissingRequired []schema.Field `json:"missingRequired"`
	Ready           bool           `json:"ready"`
}

func summarize(res *ingest.Result) RunSummary {
	return RunSummary{
		RunID:           res.RunID,
		FileName:        res.FileName,
		LoadedAt:        res.LoadedAt,
		DurationMS:      res.Duration.Milliseconds(),
		Delimiter:       res.Delimiter,
		RowCount:        len(res.Rows),
		ValidCount:      len(res.Valid),
		DiagnosticCount: len(res.Diagnostics),
		Headers:         res.Headers,
		MappedHeaders:   res.MappedHeaders,
		MissingRequired: res.Missing,
		Ready:           !res.HasDiagnostics(),
	}
}

// handleIngest accepts a multipart CSV upload, runs the pipeline and returns
// the run summary. Optional form fields: delimiter (one of , ; tab |) and
// has_header (default true).
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	var opts ingest.Options
	if v := r.FormValue("delimiter"); v != "" {
		delim, ok := ingest.NormalizeDelimiter(v)
		if !ok {
			s.respondError(w, r, fmt.Errorf("invalid delimiter %q", v), http.StatusBadRequest)
			return
		}
		opts.Delimiter = delim
	}
	if v := r.FormValue("has_header"); v != "" {
		hasHeader, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("invalid has_header value %q", v), http.StatusBadRequest)
			return
		}
		opts.NoHeader = !hasHeader
	}

	logger := logging.WithFields(r.Context(), "file", header.Filename)
	logger.Info("ingest started", "size", header.Size)

	run, err := s.service.Ingest(r.Context(), header.Filename, file, opts)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, ingest.ErrTooManyIngestions):
			status = http.StatusServiceUnavailable
		case errors.Is(err, ingest.ErrFileTooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		s.respondError(w, r, err, status)
		return
	}

	res := run.Result
	logger.Info("ingest finished",
		"run_id", res.RunID,
		"rows", len(res.Rows),
		"valid", len(res.Valid),
		"diagnostics", len(res.Diagnostics),
		"duration_ms", res.Duration.Milliseconds(),
	)

	respondJSON(w, http.StatusCreated, summarize(res))
}

// handleRunSummary returns the summary for one run.
func (s *Server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, summarize(run.Result))
}

// handlePreview returns one page of filtered preview rows, or a virtualized
// window when scroll_top/viewport_height/row_height are supplied.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	if q.Has("scroll_top") {
		vp := preview.Viewport{
			ScrollTop: intParam(q.Get("scroll_top"), 0),
			Height:    intParam(q.Get("viewport_height"), 600),
			RowHeight: intParam(q.Get("row_height"), 32),
			Overscan:  intParam(q.Get("overscan"), 5),
		}
		run.Index.SetQuery(q.Get("query"))
		window, rows := run.Index.WindowRows(vp)
		respondJSON(w, http.StatusOK, map[string]any{
			"headers": run.Index.Headers(),
			"window":  window,
			"rows":    rows,
			"total":   run.Index.FilteredCount(),
		})
		return
	}

	pageSize := intParam(q.Get("page_size"), s.cfg.Preview.PageSize)
	if pageSize > s.cfg.Preview.MaxPageSize {
		pageSize = s.cfg.Preview.MaxPageSize
	}
	page := run.Index.Query(q.Get("query"), intParam(q.Get("page"), 0), pageSize)

	respondJSON(w, http.StatusOK, map[string]any{
		"headers": run.Index.Headers(),
		"page":    page,
	})
}

// handleDiagnostics returns the grouped diagnostics report, or the full
// plain-text report with ?format=text.
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	diags := run.Result.Diagnostics

	if strings.EqualFold(r.URL.Query().Get("format"), "text") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="diagnostics.txt"`)
		io.WriteString(w, report.Text(diags))
		return
	}

	respondJSON(w, http.StatusOK, report.Build(diags))
}

// handleExport downloads the validated rows as csv, json or xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(formatOrDefault(r, "csv"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="validated.%s"`, format))
	if err := export.Rows(w, run.Result.Valid, format); err != nil {
		logging.FromContext(r.Context()).Error("export failed",
			"run_id", run.Result.RunID, "format", format, "error", err)
	}
}

// handleTemplate downloads a blank upload template (csv or xlsx).
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(formatOrDefault(r, "csv"))
	if err != nil || format == export.FormatJSON {
		s.respondError(w, r, errors.New("unsupported template format"), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="balance_sheet_template.%s"`, format))
	if err := export.Template(w, format); err != nil {
		logging.FromContext(r.Context()).Error("template failed", "format", format, "error", err)
	}
}

// handleStress forwards a run's raw CSV to the external stress service.
// Requests are refused with 422 while the run has outstanding diagnostics.
func (s *Server) handleStress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	params := stress.DefaultParams()
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			s.respondError(w, r, fmt.Errorf("invalid stress params: %w", err), http.StatusBadRequest)
			return
		}
	}
	if err := params.Validate(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	outcome, err := s.service.Stress(r.Context(), runID, params)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, ErrRunNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrDiagnosticsOutstanding):
			status = http.StatusUnprocessableEntity
		}
		s.respondError(w, r, err, status)
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// handleSchema returns the canonical schema with synonyms, for header
// mapping documentation and client-side tooling.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	type fieldInfo struct {
		Name     string   `json:"name"`
		Kind     string   `json:"kind"`
		Required bool     `json:"required"`
		Synonyms []string `json:"synonyms,omitempty"`
	}

	fields := make([]fieldInfo, 0, len(schema.AllFields))
	for _, f := range schema.AllFields {
		fields = append(fields, fieldInfo{
			Name:     string(f),
			Kind:     schema.KindOf(f).String(),
			Required: schema.IsRequired(f),
			Synonyms: schema.SynonymsFor(f),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

// handleRecentRuns lists persisted run summaries when history is enabled.
func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r.URL.Query().Get("limit"), 20)
	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"runs":    runs,
		"enabled": s.cfg.HistoryEnabled(),
	})
}

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// lookupRun resolves the runID URL parameter, answering 404 on a miss.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*Run, bool) {
	run, err := s.service.Run(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return nil, false
	}
	return run, true
}

func intParam(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func formatOrDefault(r *http.Request, fallback string) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return fallback
}
