// Package worker checks a single model file and reports how it went.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/osvaldoandrade/modelcheck/internal/checker"
	"github.com/osvaldoandrade/modelcheck/internal/loader"
	"github.com/osvaldoandrade/modelcheck/internal/metrics"
	"github.com/osvaldoandrade/modelcheck/internal/tracing"
	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Worker struct {
	loader  loader.Loader
	checker checker.Checker
	logger  *slog.Logger
	now     func() time.Time
}

func New(l loader.Loader, c checker.Checker, logger *slog.Logger, now func() time.Time) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Worker{loader: l, checker: c, logger: logger, now: now}
}

// Process runs the full lifecycle for one task. It never returns an error:
// anything that goes wrong ends up in an ERRORED result.
//
// When both artifacts already exist the task is skipped without loading the
// model. A single existing artifact does not count and the model is checked
// again, overwriting it.
func (w *Worker) Process(ctx context.Context, task domain.Task) domain.Result {
	ctx, span := tracing.Tracer().Start(ctx, "modelcheck.task",
		trace.WithAttributes(
			attribute.String("modelcheck.task_id", task.ID),
			attribute.String("modelcheck.input", task.Input),
			attribute.String("modelcheck.format", string(task.Format)),
		),
	)
	defer span.End()

	started := w.now()
	if Exists(task.Results()) && Exists(task.Report()) {
		w.logger.Warn("results already exist, skipping", "file", filepath.Base(task.Input))
		span.SetAttributes(attribute.String("modelcheck.outcome", string(domain.OutcomeSkipped)))
		return domain.Skipped(task, started)
	}

	code, err := w.check(ctx, task)
	if err != nil {
		w.logger.Error("model check errored", "file", filepath.Base(task.Input), "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res := domain.Errored(task, err, started, w.now())
		span.SetAttributes(attribute.String("modelcheck.outcome", string(res.Outcome)))
		return res
	}

	if code != 0 {
		w.logger.Warn("model had some failures", "file", filepath.Base(task.Input), "code", code)
	} else {
		w.logger.Debug("model passed", "file", filepath.Base(task.Input))
	}
	res := domain.Checked(task, code, started, w.now())
	span.SetAttributes(
		attribute.String("modelcheck.outcome", string(res.Outcome)),
		attribute.Int("modelcheck.code", code),
	)
	return res
}

func (w *Worker) check(ctx context.Context, task domain.Task) (int, error) {
	model, err := w.loader.Load(ctx, task.Input, task.Format)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", filepath.Base(task.Input), err)
	}
	if err := os.MkdirAll(filepath.Dir(task.OutputBase), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	metrics.ChecksInFlight.Inc()
	defer metrics.ChecksInFlight.Dec()

	code, err := w.checker.Check(ctx, model, task.Results(), task.Report())
	if err != nil {
		return 0, fmt.Errorf("check %s: %w", filepath.Base(task.Input), err)
	}
	return code, nil
}

// Exists reports whether path names an existing file. Errors other than
// not-exist count as present so a permission problem never triggers a
// silent overwrite.
func Exists(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	return !errors.Is(err, os.ErrNotExist)
}
