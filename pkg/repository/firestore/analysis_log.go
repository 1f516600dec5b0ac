package firestore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// analysisLogDoc is the Firestore document representation of
// model.AnalysisLog. Nullable fields use pointers so that error
// entries keep their budget fields absent.
type analysisLogDoc struct {
	ID              int64     `firestore:"ID"`
	Status          string    `firestore:"Status"`
	IssueText       string    `firestore:"IssueText"`
	SummaryText     string    `firestore:"SummaryText"`
	PredictedBudget *float64  `firestore:"PredictedBudget"`
	AverageBudget   *float64  `firestore:"AverageBudget"`
	CaseCount       *int      `firestore:"CaseCount"`
	ProcessingTime  float64   `firestore:"ProcessingTime"`
	ErrorMessage    string    `firestore:"ErrorMessage"`
	CreatedAt       time.Time `firestore:"CreatedAt"`
}

func toAnalysisLogDoc(l *model.AnalysisLog) *analysisLogDoc {
	return &analysisLogDoc{
		ID:              l.ID,
		Status:          string(l.Status),
		IssueText:       l.IssueText,
		SummaryText:     l.SummaryText,
		PredictedBudget: l.PredictedBudget,
		AverageBudget:   l.AverageBudget,
		CaseCount:       l.CaseCount,
		ProcessingTime:  l.ProcessingTime,
		ErrorMessage:    l.ErrorMessage,
		CreatedAt:       l.CreatedAt,
	}
}

func fromAnalysisLogDoc(d *analysisLogDoc) *model.AnalysisLog {
	return &model.AnalysisLog{
		ID:              d.ID,
		Status:          types.LogStatus(d.Status),
		IssueText:       d.IssueText,
		SummaryText:     d.SummaryText,
		PredictedBudget: d.PredictedBudget,
		AverageBudget:   d.AverageBudget,
		CaseCount:       d.CaseCount,
		ProcessingTime:  d.ProcessingTime,
		ErrorMessage:    d.ErrorMessage,
		CreatedAt:       d.CreatedAt,
	}
}

type analysisLogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAnalysisLogRepository(client *firestore.Client) *analysisLogRepository {
	return &analysisLogRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *analysisLogRepository) logsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_analysis_logs"
	}
	return "analysis_logs"
}

func (r *analysisLogRepository) counterCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *analysisLogRepository) logCounterDoc() string {
	return "analysis_log_counter"
}

// getNextID assigns monotonic ids through a transactional counter
// document so concurrent appends never collide.
func (r *analysisLogRepository) getNextID(ctx context.Context) (int64, error) {
	counterRef := r.client.Collection(r.counterCollection()).Doc(r.logCounterDoc())

	var nextID int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	return nextID, nil
}

func (r *analysisLogRepository) Create(ctx context.Context, log *model.AnalysisLog) (*model.AnalysisLog, error) {
	nextID, err := r.getNextID(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get next ID")
	}

	created := *log
	created.ID = nextID
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	docID := fmt.Sprintf("%d", created.ID)
	if _, err := r.client.Collection(r.logsCollection()).Doc(docID).Set(ctx, toAnalysisLogDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create analysis log", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *analysisLogRepository) Get(ctx context.Context, id int64) (*model.AnalysisLog, error) {
	docID := fmt.Sprintf("%d", id)
	docSnap, err := r.client.Collection(r.logsCollection()).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "analysis log not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get analysis log", goerr.V("id", id))
	}

	var d analysisLogDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode analysis log", goerr.V("id", id))
	}

	return fromAnalysisLogDoc(&d), nil
}

func (r *analysisLogRepository) filteredQuery(filter model.LogListFilter) firestore.Query {
	query := r.client.Collection(r.logsCollection()).Query
	if filter.Status != "" {
		query = query.Where("Status", "==", string(filter.Status))
	}
	if !filter.DateFrom.IsZero() {
		query = query.Where("CreatedAt", ">=", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query = query.Where("CreatedAt", "<=", filter.DateTo)
	}
	return query
}

func (r *analysisLogRepository) List(ctx context.Context, filter model.LogListFilter, limit, offset int) ([]*model.AnalysisLog, int, error) {
	// Get total filtered count first
	allDocs, err := r.filteredQuery(filter).Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count analysis logs")
	}
	totalCount := len(allDocs)

	// Get paginated results ordered by CreatedAt descending
	query := r.filteredQuery(filter).
		OrderBy("CreatedAt", firestore.Desc).
		Offset(offset).
		Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	logs := make([]*model.AnalysisLog, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate analysis logs")
		}

		var d analysisLogDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, 0, goerr.Wrap(err, "failed to unmarshal analysis log")
		}

		logs = append(logs, fromAnalysisLogDoc(&d))
	}

	return logs, totalCount, nil
}

func (r *analysisLogRepository) Stats(ctx context.Context) (*model.LogStats, error) {
	iter := r.client.Collection(r.logsCollection()).Documents(ctx)
	defer iter.Stop()

	stats := &model.LogStats{
		StatusCounts: make(map[types.LogStatus]int),
	}

	var successTimes []float64
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate analysis logs")
		}

		var d analysisLogDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal analysis log")
		}

		stats.TotalCount++
		stats.StatusCounts[types.LogStatus(d.Status)]++

		if types.LogStatus(d.Status) == types.LogStatusSuccess {
			successTimes = append(successTimes, d.ProcessingTime)
		}

		if stats.OldestAt.IsZero() || d.CreatedAt.Before(stats.OldestAt) {
			stats.OldestAt = d.CreatedAt
		}
		if d.CreatedAt.After(stats.NewestAt) {
			stats.NewestAt = d.CreatedAt
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
	query := r.client.Collection(r.logsCollection()).
		Where("CreatedAt", "<", cutoff)

	iter := query.Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to iterate expired analysis logs")
		}

		if _, err := bw.Delete(doc.Ref); err != nil {
			return 0, goerr.Wrap(err, "failed to enqueue delete", goerr.V("doc_id", doc.Ref.ID))
		}
		deleted++
	}
	bw.End()

	return deleted, nil
}

func (r *analysisLogRepository) Delete(ctx context.Context, id int64) error {
	docID := fmt.Sprintf("%d", id)
	docRef := r.client.Collection(r.logsCollection()).Doc(docID)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "analysis log not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check analysis log existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete analysis log", goerr.V("id", id))
	}

	return nil
}
