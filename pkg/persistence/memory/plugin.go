package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
	"github.com/osvaldoandrade/modelcheck/pkg/persistence"
)

// Plugin implements PluginPersistence for in-memory storage.
// Runs live only as long as the process.
type Plugin struct {
	mu      sync.RWMutex
	runs    map[string]domain.Run
	results map[string]map[string]domain.Result
	latest  string
}

// NewPlugin creates a new in-memory persistence plugin
func NewPlugin(config persistence.PluginConfig) (persistence.PluginPersistence, error) {
	return &Plugin{
		runs:    make(map[string]domain.Run),
		results: make(map[string]map[string]domain.Result),
	}, nil
}

// RunStorage returns the run ledger implementation
func (p *Plugin) RunStorage() persistence.RunStorage {
	return &runStorage{plugin: p}
}

// Health always returns nil for in-memory storage
func (p *Plugin) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for in-memory storage
func (p *Plugin) Close() error {
	return nil
}

func init() {
	persistence.RegisterProvider("memory", NewPlugin)
}

// runStorage implements persistence.RunStorage for in-memory storage
type runStorage struct {
	plugin *Plugin
}

func (s *runStorage) SaveRun(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id required")
	}
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()

	s.plugin.runs[run.ID] = run
	s.plugin.latest = run.ID
	return nil
}

func (s *runStorage) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	s.plugin.mu.RLock()
	defer s.plugin.mu.RUnlock()

	run, ok := s.plugin.runs[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return &run, nil
}

func (s *runStorage) LatestRun(ctx context.Context) (*domain.Run, error) {
	s.plugin.mu.RLock()
	id := s.plugin.latest
	s.plugin.mu.RUnlock()

	if id == "" {
		return nil, persistence.ErrNotFound
	}
	return s.GetRun(ctx, id)
}

func (s *runStorage) SaveResult(ctx context.Context, res domain.Result) error {
	if res.RunID == "" || res.TaskID == "" {
		return fmt.Errorf("result needs run id and task id")
	}
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()

	byTask, ok := s.plugin.results[res.RunID]
	if !ok {
		byTask = make(map[string]domain.Result)
		s.plugin.results[res.RunID] = byTask
	}
	byTask[res.TaskID] = res
	return nil
}

func (s *runStorage) ListResults(ctx context.Context, runID string) ([]domain.Result, error) {
	s.plugin.mu.RLock()
	defer s.plugin.mu.RUnlock()

	if _, ok := s.plugin.runs[runID]; !ok {
		return nil, persistence.ErrNotFound
	}
	byTask := s.plugin.results[runID]
	out := make([]domain.Result, 0, len(byTask))
	for _, res := range byTask {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Input < out[j].Input })
	return out, nil
}
