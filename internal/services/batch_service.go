package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/osvaldoandrade/modelcheck/internal/discovery"
	"github.com/osvaldoandrade/modelcheck/internal/metrics"
	"github.com/osvaldoandrade/modelcheck/internal/pool"
	"github.com/osvaldoandrade/modelcheck/internal/progress"
	"github.com/osvaldoandrade/modelcheck/internal/tracing"
	"github.com/osvaldoandrade/modelcheck/pkg/domain"
	"github.com/osvaldoandrade/modelcheck/pkg/persistence"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type RunRequest struct {
	ModelDir  string
	OutputDir string
	Format    domain.Format
	// NumProc <= 0 means one worker per CPU.
	NumProc int
}

type BatchService interface {
	// Run checks every model in req.ModelDir and blocks until all of them are
	// done. The error is non-nil only when the run could not start; per-model
	// failures are reported in the returned Run counters.
	Run(ctx context.Context, req RunRequest) (*domain.Run, error)
	// Current returns a snapshot of the run in progress or the last finished one.
	Current() (domain.Run, bool)
}

// TaskProcessor handles one task and never fails; *worker.Worker implements it.
type TaskProcessor interface {
	Process(ctx context.Context, task domain.Task) domain.Result
}

// ProgressFunc builds the progress reporter for a run of total tasks.
type ProgressFunc func(total int) progress.Reporter

type batchService struct {
	processor TaskProcessor
	store     persistence.RunStorage
	progress  ProgressFunc
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current *domain.Run
}

func NewBatchService(processor TaskProcessor, store persistence.RunStorage, progressFn ProgressFunc, logger *slog.Logger, now func() time.Time) BatchService {
	if progressFn == nil {
		progressFn = func(int) progress.Reporter { return progress.Nop{} }
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &batchService{processor: processor, store: store, progress: progressFn, logger: logger, now: now}
}

func (s *batchService) Run(ctx context.Context, req RunRequest) (*domain.Run, error) {
	ctx, span := tracing.Tracer().Start(ctx, "modelcheck.run",
		trace.WithAttributes(
			attribute.String("modelcheck.model_dir", req.ModelDir),
			attribute.String("modelcheck.output_dir", req.OutputDir),
			attribute.String("modelcheck.format", string(req.Format)),
		),
	)
	defer span.End()

	tasks, err := discovery.Discover(req.ModelDir, req.OutputDir, req.Format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("discover models: %w", err)
	}

	numProc := pool.Size(req.NumProc)
	run := domain.Run{
		ID:        uuid.NewString(),
		ModelDir:  req.ModelDir,
		OutputDir: req.OutputDir,
		Format:    req.Format,
		NumProc:   numProc,
		Status:    domain.RunRunning,
		Total:     len(tasks),
		StartedAt: s.now(),
	}
	span.SetAttributes(
		attribute.String("modelcheck.run_id", run.ID),
		attribute.Int("modelcheck.tasks", run.Total),
		attribute.Int("modelcheck.num_proc", numProc),
	)

	// Ledger writes outlive an interrupt so the final state is still recorded.
	ledgerCtx := context.WithoutCancel(ctx)
	if err := s.store.SaveRun(ledgerCtx, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("save run: %w", err)
	}
	s.setCurrent(run)

	format := string(req.Format)
	metrics.RunsStartedTotal.WithLabelValues(format).Inc()
	metrics.TasksDiscoveredTotal.WithLabelValues(format).Add(float64(len(tasks)))
	s.logger.Info("run started", "run_id", run.ID, "models", len(tasks), "num_proc", numProc, "format", format)

	bar := s.progress(len(tasks))
	process := func(ctx context.Context, t domain.Task) (domain.Result, error) {
		return s.processor.Process(ctx, t), nil
	}
	pool.Run(ctx, numProc, tasks, process, func(out pool.Outcome[domain.Task, domain.Result]) {
		res := out.Value
		if out.Err != nil {
			at := s.now()
			s.logger.Error("task panicked", "file", out.Item.Input, "err", out.Err, "stack", string(out.Stack))
			res = domain.Errored(out.Item, out.Err, at, at)
		}
		res.RunID = run.ID

		run.Record(res)
		s.setCurrent(run)

		metrics.TasksCompletedTotal.WithLabelValues(format, string(res.Outcome)).Inc()
		if res.Outcome != domain.OutcomeSkipped {
			metrics.CheckDurationSeconds.WithLabelValues(format, string(res.Outcome)).Observe(res.Duration().Seconds())
		}
		if err := s.store.SaveResult(ledgerCtx, res); err != nil {
			s.logger.Warn("ledger save result failed", "run_id", run.ID, "file", res.Input, "err", err)
		}
		if err := s.store.SaveRun(ledgerCtx, run); err != nil {
			s.logger.Warn("ledger save run failed", "run_id", run.ID, "err", err)
		}
		bar.Add(1)
	})
	bar.Finish()

	run.FinishedAt = s.now()
	run.Status = domain.RunDone
	if err := ctx.Err(); err != nil {
		run.Status = domain.RunFailed
		run.Error = fmt.Sprintf("interrupted: %v", err)
		span.SetStatus(codes.Error, run.Error)
	}
	s.setCurrent(run)
	if err := s.store.SaveRun(ledgerCtx, run); err != nil {
		s.logger.Warn("ledger save run failed", "run_id", run.ID, "err", err)
	}

	span.SetAttributes(
		attribute.Int("modelcheck.skipped", run.Skipped),
		attribute.Int("modelcheck.passed", run.Passed),
		attribute.Int("modelcheck.check_failed", run.CheckFailed),
		attribute.Int("modelcheck.errored", run.Errored),
	)
	s.logger.Info("run finished",
		"run_id", run.ID,
		"status", run.Status,
		"total", run.Total,
		"skipped", run.Skipped,
		"passed", run.Passed,
		"check_failed", run.CheckFailed,
		"errored", run.Errored,
		"elapsed", run.FinishedAt.Sub(run.StartedAt).String(),
	)
	return &run, nil
}

func (s *batchService) Current() (domain.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Run{}, false
	}
	return *s.current, true
}

func (s *batchService) setCurrent(run domain.Run) {
	s.mu.Lock()
	s.current = &run
	s.mu.Unlock()
}
