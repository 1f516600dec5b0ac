package usecase_test

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
	"github.com/seisaku-lab/yosan/pkg/repository/memory"
	"github.com/seisaku-lab/yosan/pkg/usecase"
)

// fakeStore returns preset similarities regardless of the query vector,
// so the blending logic can be tested against exact numbers.
type fakeStore struct {
	projects map[int64]*model.HistoricalProject
	sims     map[int64]float64
	dim      int
}

func newFakeStore(dim int) *fakeStore {
	return &fakeStore{
		projects: make(map[int64]*model.HistoricalProject),
		sims:     make(map[int64]float64),
		dim:      dim,
	}
}

func (s *fakeStore) add(id int64, budget, sim float64) {
	s.projects[id] = &model.HistoricalProject{
		ID:            id,
		Ministry:      "テスト省",
		Bureau:        "テスト局",
		Name:          "テスト事業",
		InitialBudget: budget,
		Rank:          types.EvaluationRankB,
		FiscalYear:    2024,
	}
	s.sims[id] = sim
}

func (s *fakeStore) All() []*model.HistoricalProject {
	result := make([]*model.HistoricalProject, 0, len(s.projects))
	for _, p := range s.projects {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *fakeStore) Get(id int64) (*model.HistoricalProject, bool) {
	p, ok := s.projects[id]
	return p, ok
}

func (s *fakeStore) Len() int       { return len(s.projects) }
func (s *fakeStore) Dimension() int { return s.dim }

func (s *fakeStore) Stats() *model.CorpusStats {
	return &model.CorpusStats{TotalProjects: len(s.projects)}
}

func (s *fakeStore) Search(query []float32, tau float64, topK int) []model.SimilarityMatch {
	var matches []model.SimilarityMatch
	for id, sim := range s.sims {
		if sim < tau {
			continue
		}
		matches = append(matches, model.SimilarityMatch{
			ProjectID:  id,
			Similarity: sim,
			EvalRank:   s.projects[id].Rank,
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ProjectID < matches[j].ProjectID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	for i := range matches {
		matches[i].Rank = i + 1
	}
	return matches
}

type fixedEmbedder struct {
	dim int
	err error
}

func (e *fixedEmbedder) Dimension() int { return e.dim }

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, e.dim)
	vec[0] = 1
	return vec, nil
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		vec, err := e.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func newPredictionUC(store *fakeStore, cfg usecase.PredictorConfig) *usecase.PredictionUseCase {
	return usecase.NewPredictionUseCase(memory.New(), store, &fixedEmbedder{dim: store.dim}, cfg)
}

func TestPredictBlendsWeightedAndAverageBudget(t *testing.T) {
	store := newFakeStore(4)
	store.add(1, 100, 0.9)
	store.add(2, 200, 0.5)
	store.add(3, 300, 0.05)

	uc := newPredictionUC(store, usecase.DefaultPredictorConfig())
	result, err := uc.Predict(context.Background(), "地域課題のテキスト", "事業概要のテキスト")
	gt.NoError(t, err).Required()

	// The 0.05 entry falls below the 0.1 threshold. Over {100, 200} with
	// similarities {0.9, 0.5}: average = 150, weighted = 190/1.4, and the
	// blend is 0.7*135.714... + 0.3*150 = 140.
	gt.Value(t, result.CaseCount).Equal(2)
	gt.Value(t, result.AverageBudget).Equal(150.0)
	gt.Bool(t, math.Abs(result.PredictedBudget-140.0) < 1e-9).True()

	gt.Number(t, len(result.SimilarCases)).Equal(2)
	gt.Value(t, result.SimilarCases[0].ID).Equal(int64(1))
	gt.Bool(t, math.Abs(result.SimilarCases[0].Weight-0.9/1.4) < 1e-9).True()
	gt.Bool(t, math.Abs(result.SimilarCases[1].Weight-0.5/1.4) < 1e-9).True()
	gt.Value(t, result.SimilarCases[0].Budget).Equal("100")
	gt.Value(t, result.SimilarCases[0].Eval).Equal("B")
	gt.Value(t, result.SimilarCases[0].Year).Equal(2024)
}

func TestPredictIsDeterministic(t *testing.T) {
	store := newFakeStore(4)
	store.add(1, 100, 0.9)
	store.add(2, 200, 0.5)

	uc := newPredictionUC(store, usecase.DefaultPredictorConfig())
	first, err := uc.Predict(context.Background(), "同じ入力", "同じ概要")
	gt.NoError(t, err).Required()
	second, err := uc.Predict(context.Background(), "同じ入力", "同じ概要")
	gt.NoError(t, err).Required()

	gt.Value(t, second).Equal(first)
}

func TestPredictTieBreaksBySmallerID(t *testing.T) {
	store := newFakeStore(4)
	store.add(7, 100, 0.5)
	store.add(3, 200, 0.5)
	store.add(5, 300, 0.5)

	uc := newPredictionUC(store, usecase.DefaultPredictorConfig())
	result, err := uc.Predict(context.Background(), "課題", "概要テキスト")
	gt.NoError(t, err).Required()

	gt.Value(t, result.SimilarCases[0].ID).Equal(int64(3))
	gt.Value(t, result.SimilarCases[1].ID).Equal(int64(5))
	gt.Value(t, result.SimilarCases[2].ID).Equal(int64(7))
}

func TestPredictWeightsSumToOne(t *testing.T) {
	store := newFakeStore(4)
	store.add(1, 100, 0.93)
	store.add(2, 250, 0.71)
	store.add(3, 300, 0.44)
	store.add(4, 910, 0.12)

	uc := newPredictionUC(store, usecase.DefaultPredictorConfig())
	result, err := uc.Predict(context.Background(), "課題", "概要テキスト")
	gt.NoError(t, err).Required()

	var sum float64
	for _, c := range result.SimilarCases {
		sum += c.Weight
	}
	gt.Bool(t, math.Abs(sum-1.0) < 1e-9).True()
}

func TestPredictZeroSimilaritySumWeightsUniformly(t *testing.T) {
	// A zero threshold admits matches whose similarity is exactly 0.
	// The weighted term must then fall back to the plain average
	// instead of dividing by a zero similarity sum.
	store := newFakeStore(4)
	store.add(1, 100, 0)
	store.add(2, 300, 0)

	cfg := usecase.DefaultPredictorConfig()
	cfg.Tau = 0

	uc := newPredictionUC(store, cfg)
	result, err := uc.Predict(context.Background(), "課題", "概要テキスト")
	gt.NoError(t, err).Required()
	gt.Number(t, result.CaseCount).Equal(2)

	gt.Bool(t, math.IsNaN(result.PredictedBudget)).False()
	gt.Bool(t, math.Abs(result.PredictedBudget-200.0) < 1e-9).True()
	gt.Bool(t, math.Abs(result.AverageBudget-200.0) < 1e-9).True()
	for _, c := range result.SimilarCases {
		gt.Bool(t, math.Abs(c.Weight-0.5) < 1e-9).True()
	}
}

func TestPredictThresholdAndTopKMonotonicity(t *testing.T) {
	store := newFakeStore(4)
	sims := []float64{0.95, 0.8, 0.6, 0.4, 0.2}
	for i, sim := range sims {
		store.add(int64(i+1), float64((i+1)*100), sim)
	}

	countWith := func(tau float64, topK int) int {
		cfg := usecase.DefaultPredictorConfig()
		cfg.Tau = tau
		cfg.TopK = topK
		result, err := newPredictionUC(store, cfg).Predict(context.Background(), "課題", "概要テキスト")
		gt.NoError(t, err).Required()
		return result.CaseCount
	}

	// Raising tau never increases the match count
	prev := countWith(0.0, 10)
	for _, tau := range []float64{0.1, 0.3, 0.5, 0.7, 0.99} {
		count := countWith(tau, 10)
		gt.Bool(t, count <= prev).True()
		prev = count
	}

	// Raising topK never decreases it, and it caps the count
	gt.Number(t, countWith(0.1, 2)).Equal(2)
	gt.Number(t, countWith(0.1, 3)).Equal(3)
	gt.Number(t, countWith(0.1, 100)).Equal(len(sims))
}

func TestPredictZeroMatchesIsNotError(t *testing.T) {
	store := newFakeStore(4)
	store.add(1, 100, 0.01)

	uc := newPredictionUC(store, usecase.DefaultPredictorConfig())
	result, err := uc.Predict(context.Background(), "課題", "概要テキスト")
	gt.NoError(t, err).Required()

	gt.Value(t, result.CaseCount).Equal(0)
	gt.Value(t, result.PredictedBudget).Equal(0.0)
	gt.Value(t, result.AverageBudget).Equal(0.0)
	gt.Number(t, len(result.SimilarCases)).Equal(0)
}

func TestPredictRejectsEmptyInput(t *testing.T) {
	store := newFakeStore(4)
	store.add(1, 100, 0.9)
	uc := newPredictionUC(store, usecase.DefaultPredictorConfig())

	_, err := uc.Predict(context.Background(), "", "")
	gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()

	_, err = uc.Predict(context.Background(), "   ", "\t\n")
	gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()

	// One non-empty field is enough
	_, err = uc.Predict(context.Background(), "課題のみ", "")
	gt.NoError(t, err)
}

func TestPredictEmptyCorpus(t *testing.T) {
	uc := newPredictionUC(newFakeStore(4), usecase.DefaultPredictorConfig())

	_, err := uc.Predict(context.Background(), "課題", "概要")
	gt.Bool(t, errors.Is(err, usecase.ErrEmptyCorpus)).True()
}

func TestPredictEmbeddingFailure(t *testing.T) {
	store := newFakeStore(4)
	store.add(1, 100, 0.9)
	embedder := &fixedEmbedder{dim: 4, err: errors.New("provider down")}
	uc := usecase.NewPredictionUseCase(memory.New(), store, embedder, usecase.DefaultPredictorConfig())

	_, err := uc.Predict(context.Background(), "課題", "概要")
	gt.Bool(t, errors.Is(err, usecase.ErrEmbeddingUnavailable)).True()
}

func TestAnalyzeAppendsSuccessLog(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(4)
	store.add(1, 100, 0.9)
	store.add(2, 200, 0.5)
	repo := memory.New()
	uc := usecase.NewPredictionUseCase(repo, store, &fixedEmbedder{dim: 4}, usecase.DefaultPredictorConfig())

	result, err := uc.Analyze(ctx, "地域課題", "事業概要のテキスト")
	gt.NoError(t, err).Required()

	entries, total, err := repo.AnalysisLog().List(ctx, model.LogListFilter{}, 10, 0)
	gt.NoError(t, err).Required()
	gt.Value(t, total).Equal(1)

	entry := entries[0]
	gt.Value(t, entry.Status).Equal(types.LogStatusSuccess)
	gt.Value(t, entry.IssueText).Equal("地域課題")
	gt.Value(t, entry.SummaryText).Equal("事業概要のテキスト")
	gt.Value(t, *entry.PredictedBudget).Equal(result.PredictedBudget)
	gt.Value(t, *entry.AverageBudget).Equal(result.AverageBudget)
	gt.Value(t, *entry.CaseCount).Equal(result.CaseCount)
	gt.Bool(t, entry.ProcessingTime >= 0).True()
	gt.Value(t, entry.ErrorMessage).Equal("")
}

func TestAnalyzeAppendsErrorLog(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(4)
	store.add(1, 100, 0.9)
	repo := memory.New()
	embedder := &fixedEmbedder{dim: 4, err: errors.New("provider down")}
	uc := usecase.NewPredictionUseCase(repo, store, embedder, usecase.DefaultPredictorConfig())

	_, err := uc.Analyze(ctx, "地域課題", "事業概要")
	gt.Bool(t, errors.Is(err, usecase.ErrEmbeddingUnavailable)).True()

	entries, total, err := repo.AnalysisLog().List(ctx, model.LogListFilter{}, 10, 0)
	gt.NoError(t, err).Required()
	gt.Value(t, total).Equal(1)

	entry := entries[0]
	gt.Value(t, entry.Status).Equal(types.LogStatusError)
	gt.Bool(t, entry.ErrorMessage != "").True()
	gt.Bool(t, entry.PredictedBudget == nil).True()
	gt.Bool(t, entry.AverageBudget == nil).True()
	gt.Bool(t, entry.CaseCount == nil).True()
}

func TestAnalyzeZeroMatchLogsZeroBudgets(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(4)
	store.add(1, 100, 0.01)
	repo := memory.New()
	uc := usecase.NewPredictionUseCase(repo, store, &fixedEmbedder{dim: 4}, usecase.DefaultPredictorConfig())

	_, err := uc.Analyze(ctx, "地域課題", "事業概要")
	gt.NoError(t, err).Required()

	entries, _, err := repo.AnalysisLog().List(ctx, model.LogListFilter{}, 10, 0)
	gt.NoError(t, err).Required()

	// A zero-match success records explicit zeros, not nulls
	entry := entries[0]
	gt.Value(t, entry.Status).Equal(types.LogStatusSuccess)
	gt.Value(t, *entry.PredictedBudget).Equal(0.0)
	gt.Value(t, *entry.CaseCount).Equal(0)
}

func TestPredictorConfigValidate(t *testing.T) {
	gt.NoError(t, usecase.DefaultPredictorConfig().Validate())

	bad := usecase.DefaultPredictorConfig()
	bad.Alpha = 0.5
	gt.Value(t, bad.Validate()).NotNil()

	bad = usecase.DefaultPredictorConfig()
	bad.TopK = 0
	gt.Value(t, bad.Validate()).NotNil()
}
