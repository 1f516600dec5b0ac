package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
)

type analysisLogRepository struct {
	mu      sync.RWMutex
	entries map[int64]*model.AnalysisLog
	lastID  int64
}

func newAnalysisLogRepository() *analysisLogRepository {
	return &analysisLogRepository{
		entries: make(map[int64]*model.AnalysisLog),
	}
}

func copyAnalysisLog(l *model.AnalysisLog) *model.AnalysisLog {
	copied := &model.AnalysisLog{
		ID:             l.ID,
		Status:         l.Status,
		IssueText:      l.IssueText,
		SummaryText:    l.SummaryText,
		ProcessingTime: l.ProcessingTime,
		ErrorMessage:   l.ErrorMessage,
		CreatedAt:      l.CreatedAt,
	}

	if l.PredictedBudget != nil {
		v := *l.PredictedBudget
		copied.PredictedBudget = &v
	}
	if l.AverageBudget != nil {
		v := *l.AverageBudget
		copied.AverageBudget = &v
	}
	if l.CaseCount != nil {
		v := *l.CaseCount
		copied.CaseCount = &v
	}

	return copied
}

func (r *analysisLogRepository) Create(ctx context.Context, log *model.AnalysisLog) (*model.AnalysisLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyAnalysisLog(log)
	r.lastID++
	created.ID = r.lastID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.entries[created.ID] = created
	return copyAnalysisLog(created), nil
}

func (r *analysisLogRepository) Get(ctx context.Context, id int64) (*model.AnalysisLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "analysis log not found", goerr.V("id", id))
	}

	return copyAnalysisLog(entry), nil
}

func matchFilter(l *model.AnalysisLog, filter model.LogListFilter) bool {
	if filter.Status != "" && l.Status != filter.Status {
		return false
	}
	if !filter.DateFrom.IsZero() && l.CreatedAt.Before(filter.DateFrom) {
		return false
	}
	if !filter.DateTo.IsZero() && l.CreatedAt.After(filter.DateTo) {
		return false
	}
	return true
}

func (r *analysisLogRepository) List(ctx context.Context, filter model.LogListFilter, limit, offset int) ([]*model.AnalysisLog, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.AnalysisLog, 0, len(r.entries))
	for _, l := range r.entries {
		if matchFilter(l, filter) {
			matched = append(matched, copyAnalysisLog(l))
		}
	}

	// Sort by CreatedAt descending; equal timestamps fall back to ID
	// descending so pagination stays stable
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	totalCount := len(matched)

	if offset >= totalCount {
		return []*model.AnalysisLog{}, totalCount, nil
	}

	end := offset + limit
	if end > totalCount {
		end = totalCount
	}

	return matched[offset:end], totalCount, nil
}

func (r *analysisLogRepository) Stats(ctx context.Context) (*model.LogStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.LogStats{
		StatusCounts: make(map[types.LogStatus]int),
	}

	var successTimes []float64
	for _, l := range r.entries {
		stats.TotalCount++
		stats.StatusCounts[l.Status]++

		if l.Status == types.LogStatusSuccess {
			successTimes = append(successTimes, l.ProcessingTime)
		}

		if stats.OldestAt.IsZero() || l.CreatedAt.Before(stats.OldestAt) {
			stats.OldestAt = l.CreatedAt
		}
		if l.CreatedAt.After(stats.NewestAt) {
			stats.NewestAt = l.CreatedAt
		}
	}

	if len(successTimes) > 0 {
		sort.Float64s(successTimes)

		var sum float64
		for _, v := range successTimes {
			sum += v
		}
		stats.AvgProcessingTime = sum / float64(len(successTimes))

		idx := int(math.Ceil(0.95*float64(len(successTimes)))) - 1
		if idx < 0 {
			idx = 0
		}
		stats.P95ProcessingTime = successTimes[idx]
	}

	return stats, nil
}

func (r *analysisLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, l := range r.entries {
		if l.CreatedAt.Before(cutoff) {
			delete(r.entries, id)
			deleted++
		}
	}

	return deleted, nil
}

func (r *analysisLogRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return goerr.Wrap(ErrNotFound, "analysis log not found", goerr.V("id", id))
	}

	delete(r.entries, id)
	return nil
}
