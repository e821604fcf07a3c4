package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"github.com/go-redis/redis/v8"
)

var ErrNotFound = errors.New("not-found")

// RunRepository keeps the ledger of batch runs and the per-task results that
// belong to each of them.
type RunRepository interface {
	SaveRun(ctx context.Context, run domain.Run) error
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	LatestRun(ctx context.Context) (*domain.Run, error)
	SaveResult(ctx context.Context, res domain.Result) error
	ListResults(ctx context.Context, runID string) ([]domain.Result, error)
}

type runRedisRepo struct {
	rdb *redis.Client
}

func NewRunRepository(rdb *redis.Client) RunRepository {
	return &runRedisRepo{rdb: rdb}
}

func (r *runRedisRepo) keyRunsHash() string  { return "modelcheck:runs" }
func (r *runRedisRepo) keyLatestRun() string { return "modelcheck:runs:latest" }
func (r *runRedisRepo) keyResults(runID string) string {
	return fmt.Sprintf("modelcheck:results:%s", runID)
}

func (r *runRedisRepo) SaveRun(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id required")
	}
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.keyRunsHash(), run.ID, string(b))
	pipe.Set(ctx, r.keyLatestRun(), run.ID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save run: %w", err)
	}
	return nil
}

func (r *runRedisRepo) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	js, err := r.rdb.HGet(ctx, r.keyRunsHash(), id).Result()
	if err == redis.Nil || (err == nil && js == "") {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET run: %w", err)
	}
	var run domain.Run
	if err := json.Unmarshal([]byte(js), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

func (r *runRedisRepo) LatestRun(ctx context.Context) (*domain.Run, error) {
	id, err := r.rdb.Get(ctx, r.keyLatestRun()).Result()
	if err == redis.Nil || (err == nil && id == "") {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET latest run: %w", err)
	}
	return r.GetRun(ctx, id)
}

func (r *runRedisRepo) SaveResult(ctx context.Context, res domain.Result) error {
	if res.RunID == "" || res.TaskID == "" {
		return fmt.Errorf("result needs run id and task id")
	}
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := r.rdb.HSet(ctx, r.keyResults(res.RunID), res.TaskID, string(b)).Err(); err != nil {
		return fmt.Errorf("redis HSET result: %w", err)
	}
	return nil
}

// ListResults returns the results recorded for a run ordered by input path.
// An unknown run yields ErrNotFound; a known run with no results yet yields
// an empty slice.
func (r *runRedisRepo) ListResults(ctx context.Context, runID string) ([]domain.Result, error) {
	exists, err := r.rdb.HExists(ctx, r.keyRunsHash(), runID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HEXISTS run: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	m, err := r.rdb.HGetAll(ctx, r.keyResults(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL results: %w", err)
	}
	out := make([]domain.Result, 0, len(m))
	for taskID, js := range m {
		var res domain.Result
		if err := json.Unmarshal([]byte(js), &res); err != nil {
			return nil, fmt.Errorf("unmarshal result %s: %w", taskID, err)
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Input < out[j].Input })
	return out, nil
}
