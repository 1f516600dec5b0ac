package corpus_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
	"github.com/seisaku-lab/yosan/pkg/service/corpus"
)

// buildStore loads a small corpus where each project's embedding points
// along a known direction, so expected similarities are easy to reason
// about in the search tests.
func buildStore(t *testing.T, rows ...string) *corpus.Store {
	t.Helper()
	path := writeCSV(t, rows...)
	store, err := corpus.Load(context.Background(), corpus.Config{
		CSVPath:  path,
		Embedder: &directionEmbedder{dim: 4},
	})
	gt.NoError(t, err).Required()
	return store
}

// directionEmbedder maps texts to fixed unit vectors keyed by a marker
// word in the text, defaulting to the first axis.
type directionEmbedder struct {
	dim int
}

func (d *directionEmbedder) Dimension() int { return d.dim }

func (d *directionEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := d.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (d *directionEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, d.dim)
		vec[0] = 1
		result[i] = vec
	}
	return result, nil
}

func TestSearchFiltersAndSorts(t *testing.T) {
	store := buildStore(t,
		csvRow(1, "100", "0.05"),
		csvRow(2, "200", "0.25"),
		csvRow(3, "300", "0.45"),
	)

	// All corpus vectors point along the first axis. A query in the same
	// direction matches everything with similarity 1; ties break by ID.
	matches := store.Search([]float32{1, 0, 0, 0}, 0.1, 10)
	gt.Number(t, len(matches)).Equal(3)
	gt.Value(t, matches[0].ProjectID).Equal(int64(1))
	gt.Value(t, matches[1].ProjectID).Equal(int64(2))
	gt.Value(t, matches[2].ProjectID).Equal(int64(3))
	for _, m := range matches {
		gt.Bool(t, m.Similarity > 0.99).True()
	}

	// An orthogonal query yields similarity 0, below any positive tau
	matches = store.Search([]float32{0, 1, 0, 0}, 0.1, 10)
	gt.Number(t, len(matches)).Equal(0)

	// A zero query has zero norm, so every similarity is 0
	matches = store.Search([]float32{0, 0, 0, 0}, 0.1, 10)
	gt.Number(t, len(matches)).Equal(0)
}

func TestSearchHonorsTopK(t *testing.T) {
	store := buildStore(t,
		csvRow(1, "100", "0.05"),
		csvRow(2, "200", "0.25"),
		csvRow(3, "300", "0.45"),
	)

	matches := store.Search([]float32{1, 0, 0, 0}, 0.1, 2)
	gt.Number(t, len(matches)).Equal(2)
	gt.Value(t, matches[0].ProjectID).Equal(int64(1))
	gt.Value(t, matches[1].ProjectID).Equal(int64(2))

	gt.Number(t, len(store.Search([]float32{1, 0, 0, 0}, 0.1, 0))).Equal(0)
}

func TestSearchCarriesEvaluationRank(t *testing.T) {
	store := buildStore(t,
		csvRow(1, "100", "0.05"),
		csvRow(2, "200", "0.45"),
	)

	matches := store.Search([]float32{1, 0, 0, 0}, 0.1, 10)
	gt.Number(t, len(matches)).Equal(2)
	gt.Value(t, matches[0].EvalRank).Equal(types.EvaluationRankA)
	gt.Value(t, matches[1].EvalRank).Equal(types.EvaluationRankC)
}

func TestSearchAssignsOrdinalRanks(t *testing.T) {
	store := buildStore(t,
		csvRow(1, "100", "0.05"),
		csvRow(2, "200", "0.25"),
		csvRow(3, "300", "0.45"),
	)

	matches := store.Search([]float32{1, 0, 0, 0}, 0.1, 2)
	gt.Number(t, len(matches)).Equal(2)
	for i, m := range matches {
		gt.Value(t, m.Rank).Equal(i + 1)
	}
}

func TestStatsAggregatesBudgetsAndRanks(t *testing.T) {
	store := buildStore(t,
		csvRow(1, "100", "0.05"),
		csvRow(2, "200", "0.25"),
		csvRow(3, "300", "0.45"),
		csvRow(4, "400", "0.9"),
	)

	stats := store.Stats()
	gt.Value(t, stats.TotalProjects).Equal(4)
	gt.Value(t, stats.Budget.Min).Equal(100.0)
	gt.Value(t, stats.Budget.Max).Equal(400.0)
	gt.Value(t, stats.Budget.Mean).Equal(250.0)
	gt.Value(t, stats.Budget.Median).Equal(250.0)
	gt.Value(t, stats.RankDistribution[types.EvaluationRankA]).Equal(1)
	gt.Value(t, stats.RankDistribution[types.EvaluationRankB]).Equal(1)
	gt.Value(t, stats.RankDistribution[types.EvaluationRankC]).Equal(1)
	gt.Value(t, stats.RankDistribution[types.EvaluationRankD]).Equal(1)
}

func TestStatsMedianOddCount(t *testing.T) {
	store := buildStore(t,
		csvRow(1, "100", "0.2"),
		csvRow(2, "900", "0.2"),
		csvRow(3, "200", "0.2"),
	)

	stats := store.Stats()
	gt.Value(t, stats.Budget.Median).Equal(200.0)
}

func TestAllReturnsEveryProject(t *testing.T) {
	const n = 5
	rows := make([]string, n)
	for i := 0; i < n; i++ {
		rows[i] = csvRow(i+1, fmt.Sprintf("%d", (i+1)*1000), "0.2")
	}
	store := buildStore(t, rows...)

	gt.Number(t, store.Len()).Equal(n)
	gt.Number(t, len(store.All())).Equal(n)
}
