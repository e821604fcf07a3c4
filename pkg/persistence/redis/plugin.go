package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/osvaldoandrade/modelcheck/internal/providers"
	"github.com/osvaldoandrade/modelcheck/internal/repository"
	"github.com/osvaldoandrade/modelcheck/pkg/domain"
	"github.com/osvaldoandrade/modelcheck/pkg/persistence"

	"github.com/go-redis/redis/v8"
)

// Config holds Redis-specific configuration
type Config struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
}

// Plugin implements PluginPersistence for Redis/KVRocks
type Plugin struct {
	client  *redis.Client
	runRepo repository.RunRepository
}

// NewPlugin creates a new Redis persistence plugin
func NewPlugin(config persistence.PluginConfig) (persistence.PluginPersistence, error) {
	var cfg Config
	if err := json.Unmarshal(config.Config, &cfg); err != nil {
		return nil, fmt.Errorf("redis plugin config: %w", err)
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis plugin config: addr required")
	}

	client := providers.NewRedisProvider(cfg.Addr, cfg.Password)
	return &Plugin{
		client:  client,
		runRepo: repository.NewRunRepository(client),
	}, nil
}

// RunStorage returns the run ledger implementation
func (p *Plugin) RunStorage() persistence.RunStorage {
	return &runStorageAdapter{repo: p.runRepo}
}

// Health checks if Redis is healthy
func (p *Plugin) Health(ctx context.Context) error {
	return providers.PingRedis(ctx, p.client)
}

// Close releases Redis connection
func (p *Plugin) Close() error {
	return p.client.Close()
}

func init() {
	persistence.RegisterProvider("redis", NewPlugin)
}

// runStorageAdapter adapts repository.RunRepository to persistence.RunStorage
type runStorageAdapter struct {
	repo repository.RunRepository
}

func (a *runStorageAdapter) SaveRun(ctx context.Context, run domain.Run) error {
	return a.repo.SaveRun(ctx, run)
}

func (a *runStorageAdapter) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	run, err := a.repo.GetRun(ctx, id)
	return run, mapErr(err)
}

func (a *runStorageAdapter) LatestRun(ctx context.Context) (*domain.Run, error) {
	run, err := a.repo.LatestRun(ctx)
	return run, mapErr(err)
}

func (a *runStorageAdapter) SaveResult(ctx context.Context, res domain.Result) error {
	return a.repo.SaveResult(ctx, res)
}

func (a *runStorageAdapter) ListResults(ctx context.Context, runID string) ([]domain.Result, error) {
	out, err := a.repo.ListResults(ctx, runID)
	return out, mapErr(err)
}

func mapErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return persistence.ErrNotFound
	}
	return err
}
