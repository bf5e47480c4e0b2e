package web

// service.go holds the application state behind the HTTP handlers: the
// ingestion pipeline, the run registry and the boundary to the external
// stress-calculation service.
//
// Each upload produces one immutable run. The registry keeps completed runs
// by id and tracks the current (latest) run; replacing the current run is a
// single pointer swap, so readers never observe a half-loaded file.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/gmaiocc/bank-stress-test-simulator/internal/config"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/history"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/ingest"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/preview"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/schema"
	"github.com/gmaiocc/bank-stress-test-simulator/internal/stress"
)

// ErrRunNotFound is returned when a run id has no registered run.
var ErrRunNotFound = errors.New("run not found")

// ErrDiagnosticsOutstanding blocks stress submission while a run still has
// validation issues.
var ErrDiagnosticsOutstanding = errors.New("diagnostics outstanding")

// maxRetainedRuns bounds the registry; the oldest runs are evicted first.
const maxRetainedRuns = 16

// Run pairs an ingestion result with its preview index.
type Run struct {
	Result *ingest.Result
	Index  *preview.Index
}

// StressRunner is the boundary to the external stress-calculation service.
type StressRunner interface {
	Run(ctx context.Context, csvText string, params stress.Params) (*stress.Outcome, error)
}

// Service wires the ingestion pipeline to the HTTP layer.
type Service struct {
	cfg      *config.Config
	pipeline *ingest.Pipeline
	limiter  *ingest.Limiter
	stress   StressRunner
	history  *history.Store

	mu      sync.RWMutex
	runs    map[string]*Run
	order   []string // insertion order, for eviction
	current *Run
}

// NewService builds the application service. synonyms should already include
// any configured overlay; hist may be nil when run history is disabled.
func NewService(cfg *config.Config, synonyms map[schema.Field][]string, stressClient StressRunner, hist *history.Store) *Service {
	return &Service{
		cfg:      cfg,
		pipeline: ingest.NewPipeline(synonyms, cfg.Ingest.Workers),
		limiter:  ingest.NewLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime),
		stress:   stressClient,
		history:  hist,
		runs:     make(map[string]*Run),
	}
}

// Ingest decodes, parses and validates one uploaded file and registers the
// run as current. The file name must end in .csv; the size cap is enforced
// while reading.
func (s *Service) Ingest(ctx context.Context, fileName string, r io.Reader, opts ingest.Options) (*Run, error) {
	if fileName == "" {
		return nil, errors.New("no file provided")
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, fmt.Errorf("%q is not a .csv file", fileName)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	text, err := ingest.DecodeAll(r, s.cfg.Ingest.MaxFileSize)
	if err != nil {
		return nil, err
	}

	res, err := s.pipeline.Run(fileName, text, opts)
	if err != nil {
		return nil, err
	}

	run := &Run{Result: res, Index: preview.NewIndex(res)}
	s.register(run)
	s.recordRun(ctx, res)

	return run, nil
}

// register stores a completed run and makes it current in one swap.
func (s *Service) register(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := run.Result.RunID
	s.runs[id] = run
	s.order = append(s.order, id)
	s.current = run

	for len(s.order) > maxRetainedRuns {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
}

// recordRun writes the run summary to history when a store is configured.
// History failures are logged, never surfaced: persistence is best effort.
func (s *Service) recordRun(ctx context.Context, res *ingest.Result) {
	if s.history == nil {
		return
	}
	err := s.history.RecordRun(ctx, history.Run{
		RunID:           res.RunID,
		FileName:        res.FileName,
		RowCount:        len(res.Rows),
		ValidCount:      len(res.Valid),
		DiagnosticCount: len(res.Diagnostics),
		Duration:        res.Duration,
		LoadedAt:        res.LoadedAt,
	})
	if err != nil {
		slog.Error("record run history", "run_id", res.RunID, "error", err)
	}
}

// Run returns a registered run by id.
func (s *Service) Run(runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// Current returns the latest run, or nil before the first upload.
func (s *Service) Current() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Stress submits a run's original CSV text to the external service.
// Submission is refused while the run has any outstanding diagnostic.
func (s *Service) Stress(ctx context.Context, runID string, params stress.Params) (*stress.Outcome, error) {
	run, err := s.Run(runID)
	if err != nil {
		return nil, err
	}
	if run.Result.HasDiagnostics() {
		return nil, fmt.Errorf("%w: %d issue(s) on run %s",
			ErrDiagnosticsOutstanding, len(run.Result.Diagnostics), runID)
	}
	return s.stress.Run(ctx, run.Result.RawText, params)
}

// RecentRuns lists persisted run summaries, newest first. Returns an empty
// list when history is disabled.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]history.Run, error) {
	if s.history == nil {
		return []history.Run{}, nil
	}
	return s.history.RecentRuns(ctx, limit)
}
