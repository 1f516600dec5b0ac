package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
)

const (
	defaultLogListLimit = 50
	maxLogListLimit     = 100
)

type AnalysisLogUseCase struct {
	repo interfaces.Repository
}

func NewAnalysisLogUseCase(repo interfaces.Repository) *AnalysisLogUseCase {
	return &AnalysisLogUseCase{repo: repo}
}

// List returns analysis log entries ordered by creation time descending.
// The limit is clamped to [1, 100] with a default of 50, and a negative
// offset is treated as 0. The returned total is the filtered set size
// before pagination.
func (uc *AnalysisLogUseCase) List(ctx context.Context, filter model.LogListFilter, limit, offset int) ([]*model.AnalysisLog, int, error) {
	if limit <= 0 {
		limit = defaultLogListLimit
	}
	if limit > maxLogListLimit {
		limit = maxLogListLimit
	}
	if offset < 0 {
		offset = 0
	}

	entries, total, err := uc.repo.AnalysisLog().List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list analysis logs")
	}
	return entries, total, nil
}

func (uc *AnalysisLogUseCase) Get(ctx context.Context, id int64) (*model.AnalysisLog, error) {
	entry, err := uc.repo.AnalysisLog().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrLogNotFound, "analysis log not found", goerr.V(LogIDKey, id))
	}
	return entry, nil
}

func (uc *AnalysisLogUseCase) Stats(ctx context.Context) (*model.LogStats, error) {
	stats, err := uc.repo.AnalysisLog().Stats(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate analysis log stats")
	}
	return stats, nil
}

// Cleanup deletes entries older than the given number of days and
// returns the number removed. Running it again with the same window
// removes nothing.
func (uc *AnalysisLogUseCase) Cleanup(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 1 {
		return 0, goerr.Wrap(ErrInvalidRetention, "invalid cleanup window", goerr.V("days", olderThanDays))
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	deleted, err := uc.repo.AnalysisLog().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to clean up analysis logs", goerr.V("cutoff", cutoff))
	}
	return deleted, nil
}

func (uc *AnalysisLogUseCase) Delete(ctx context.Context, id int64) error {
	if err := uc.repo.AnalysisLog().Delete(ctx, id); err != nil {
		return goerr.Wrap(ErrLogNotFound, "analysis log not found", goerr.V(LogIDKey, id))
	}
	return nil
}
