package interfaces

import (
	"context"
	"time"

	"github.com/seisaku-lab/yosan/pkg/domain/model"
)

// AnalysisLogRepository defines the interface for AnalysisLog data persistence
type AnalysisLogRepository interface {
	// Create appends a new analysis log entry and assigns a monotonic ID.
	// A provided non-zero CreatedAt is preserved; otherwise the current
	// time is used.
	Create(ctx context.Context, log *model.AnalysisLog) (*model.AnalysisLog, error)

	// Get retrieves a single entry by ID. Returns ErrNotFound for
	// unknown IDs.
	Get(ctx context.Context, id int64) (*model.AnalysisLog, error)

	// List retrieves entries matching the filter with pagination.
	// Returns items, totalCount (filtered set size before pagination),
	// and error. Items are ordered by CreatedAt descending.
	List(ctx context.Context, filter model.LogListFilter, limit, offset int) ([]*model.AnalysisLog, int, error)

	// Stats aggregates counts by status, processing time, and the date
	// range covered by the log.
	Stats(ctx context.Context) (*model.LogStats, error)

	// DeleteOlderThan removes entries created before the cutoff and
	// returns the number removed. Idempotent.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Delete removes a single entry by ID. Returns ErrNotFound for
	// unknown IDs.
	Delete(ctx context.Context, id int64) error
}
