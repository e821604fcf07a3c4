package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/osvaldoandrade/modelcheck/internal/checker"
	"github.com/osvaldoandrade/modelcheck/internal/loader"
	"github.com/osvaldoandrade/modelcheck/internal/metrics"
	"github.com/osvaldoandrade/modelcheck/internal/middleware"
	"github.com/osvaldoandrade/modelcheck/internal/services"
	"github.com/osvaldoandrade/modelcheck/internal/tracing"
	"github.com/osvaldoandrade/modelcheck/internal/worker"
	"github.com/osvaldoandrade/modelcheck/pkg/config"
	"github.com/osvaldoandrade/modelcheck/pkg/persistence"
	_ "github.com/osvaldoandrade/modelcheck/pkg/persistence/memory" // Register in-process ledger
	_ "github.com/osvaldoandrade/modelcheck/pkg/persistence/redis"  // Register redis ledger

	"github.com/gin-gonic/gin"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Logger          *slog.Logger
	Ledger          persistence.PluginPersistence
	Batch           services.BatchService
	Runs            services.RunsService
	Checker         checker.Checker
	TracingShutdown func(context.Context) error

	progress services.ProgressFunc
	logOut   io.Writer

	server   *http.Server
	listener net.Listener
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithChecker replaces the external command checker
func WithChecker(c checker.Checker) ApplicationOption {
	return func(app *Application) error {
		app.Checker = c
		return nil
	}
}

// WithProgress sets how run progress is displayed
func WithProgress(fn services.ProgressFunc) ApplicationOption {
	return func(app *Application) error {
		app.progress = fn
		return nil
	}
}

// WithLogOutput sends structured logs to w instead of stderr
func WithLogOutput(w io.Writer) ApplicationOption {
	return func(app *Application) error {
		app.logOut = w
		return nil
	}
}

// WithLedger uses an already opened ledger instead of the configured one
func WithLedger(p persistence.PluginPersistence) ApplicationOption {
	return func(app *Application) error {
		app.Ledger = p
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	app := &Application{Config: cfg, logOut: os.Stderr}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	logger := newLogger(cfg, app.logOut)
	slog.SetDefault(logger)
	app.Logger = logger

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	app.TracingShutdown = shutdown

	if app.Ledger == nil {
		ledger, err := persistence.NewPersistence(ledgerProvider(cfg), persistence.PluginConfig{})
		if err != nil {
			return nil, fmt.Errorf("ledger: %w", err)
		}
		if err := ledger.Health(context.Background()); err != nil {
			_ = ledger.Close()
			return nil, fmt.Errorf("ledger %s unavailable: %w", cfg.Ledger, err)
		}
		app.Ledger = ledger
	}

	if app.Checker == nil {
		cc, err := checker.NewCommandChecker(cfg.Checker, logger)
		if err != nil {
			return nil, fmt.Errorf("checker: %w", err)
		}
		app.Checker = cc
	}

	w := worker.New(loader.NewFileLoader(), app.Checker, logger, time.Now)
	app.Batch = services.NewBatchService(w, app.Ledger.RunStorage(), app.progress, logger, time.Now)
	app.Runs = services.NewRunsService(app.Ledger.RunStorage())
	metrics.RegisterRunCollector(app.Batch.Current)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.TracingMiddleware(), middleware.LoggerMiddleware(logger))
	app.Engine = engine

	return app, nil
}

// StartStatusServer serves Engine on Config.StatusAddr in the background.
// It does nothing when no address is configured.
func (a *Application) StartStatusServer() error {
	addr := strings.TrimSpace(a.Config.StatusAddr)
	if addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("status server listen %s: %w", addr, err)
	}
	a.listener = ln
	a.server = &http.Server{
		Handler:           a.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("status server stopped", "err", err)
		}
	}()
	a.Logger.Info("status server listening", "addr", ln.Addr().String())
	return nil
}

// StatusAddr is the bound address of the status server, or "" when it is not running.
func (a *Application) StatusAddr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Close stops the status server, releases the ledger and flushes traces.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("status server: %w", err))
		}
	}
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ledger: %w", err))
		}
	}
	if a.TracingShutdown != nil {
		if err := a.TracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	level := new(slog.LevelVar)
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", "modelcheck")
}

func ledgerProvider(cfg *config.Config) persistence.ProviderConfig {
	pc := persistence.ProviderConfig{Type: cfg.Ledger}
	if cfg.Ledger == "redis" {
		raw, _ := json.Marshal(map[string]string{"addr": cfg.RedisAddr, "password": cfg.RedisPassword})
		pc.Config = raw
	}
	return pc
}
