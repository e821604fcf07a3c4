package services

import (
	"context"
	"fmt"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
	"github.com/osvaldoandrade/modelcheck/pkg/persistence"
)

// RunsService reads runs back from the ledger.
type RunsService interface {
	Get(ctx context.Context, id string) (*domain.Run, error)
	Latest(ctx context.Context) (*domain.Run, error)
	Results(ctx context.Context, id string) (*domain.Run, []domain.Result, error)
}

type runsService struct {
	store persistence.RunStorage
}

func NewRunsService(store persistence.RunStorage) RunsService {
	return &runsService{store: store}
}

func (s *runsService) Get(ctx context.Context, id string) (*domain.Run, error) {
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

func (s *runsService) Latest(ctx context.Context) (*domain.Run, error) {
	run, err := s.store.LatestRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

func (s *runsService) Results(ctx context.Context, id string) (*domain.Run, []domain.Result, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.store.ListResults(ctx, run.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list results %s: %w", id, err)
	}
	return run, results, nil
}
