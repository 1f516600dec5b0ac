package usecase

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
	"github.com/seisaku-lab/yosan/pkg/utils/errutil"
)

// PredictorConfig holds the tunable parameters of the prediction
// algorithm. Alpha weights the similarity-weighted budget term and Beta
// the plain average; they are expected to sum to 1.
type PredictorConfig struct {
	TopK  int
	Tau   float64
	Alpha float64
	Beta  float64
}

func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		TopK:  10,
		Tau:   0.1,
		Alpha: 0.7,
		Beta:  0.3,
	}
}

func (c PredictorConfig) Validate() error {
	if c.TopK < 1 {
		return goerr.New("topK must be at least 1", goerr.V("topK", c.TopK))
	}
	if math.Abs(c.Alpha+c.Beta-1.0) > 1e-9 {
		return goerr.New("alpha and beta must sum to 1",
			goerr.V("alpha", c.Alpha),
			goerr.V("beta", c.Beta))
	}
	return nil
}

type PredictionUseCase struct {
	repo     interfaces.Repository
	store    interfaces.CorpusStore
	embedder interfaces.EmbeddingClient
	config   PredictorConfig
}

func NewPredictionUseCase(repo interfaces.Repository, store interfaces.CorpusStore, embedder interfaces.EmbeddingClient, cfg PredictorConfig) *PredictionUseCase {
	return &PredictionUseCase{
		repo:     repo,
		store:    store,
		embedder: embedder,
		config:   cfg,
	}
}

// Predict estimates a reference budget for the proposed project
// described by issueText and summaryText. It embeds the combined query,
// ranks the corpus by cosine similarity, and blends the
// similarity-weighted budget with the plain average of the matched set.
// Zero matches yield a zero-valued result, not an error.
func (uc *PredictionUseCase) Predict(ctx context.Context, issueText, summaryText string) (*model.PredictionResult, error) {
	issueText = strings.TrimSpace(issueText)
	summaryText = strings.TrimSpace(summaryText)
	if issueText == "" && summaryText == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "issue text and summary text are both empty")
	}

	if uc.store.Len() == 0 {
		return nil, goerr.Wrap(ErrEmptyCorpus, "no historical projects loaded")
	}

	query := strings.TrimSpace(issueText + " " + summaryText)
	queryVector, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(ErrEmbeddingUnavailable, "failed to embed query", goerr.V("cause", err.Error()))
	}

	matches := uc.store.Search(queryVector, uc.config.Tau, uc.config.TopK)
	if len(matches) == 0 {
		return &model.PredictionResult{SimilarCases: []model.SimilarCase{}}, nil
	}

	var simSum, budgetSum float64
	budgets := make([]float64, len(matches))
	for i, m := range matches {
		project, ok := uc.store.Get(m.ProjectID)
		if !ok {
			return nil, goerr.New("matched project missing from corpus", goerr.V(ProjectIDKey, m.ProjectID))
		}
		simSum += m.Similarity
		budgets[i] = project.InitialBudget
		budgetSum += project.InitialBudget
	}

	averageBudget := budgetSum / float64(len(matches))

	var weightedBudget float64
	cases := make([]model.SimilarCase, len(matches))
	for i := range matches {
		m := &matches[i]
		// With every similarity at zero there is no share to distribute,
		// so the matched set is weighted uniformly.
		if simSum > 0 {
			m.Weight = m.Similarity / simSum
		} else {
			m.Weight = 1.0 / float64(len(matches))
		}
		weightedBudget += m.Weight * budgets[i]

		project, _ := uc.store.Get(m.ProjectID)
		cases[i] = model.SimilarCase{
			ID:            project.ID,
			Name:          project.Name,
			Budget:        strconv.FormatInt(int64(project.InitialBudget), 10),
			Eval:          m.EvalRank.String(),
			EvalText:      m.EvalRank.String() + " rank: " + m.EvalRank.Description(),
			Details:       project.Outcomes(),
			Similarity:    m.Similarity,
			Weight:        m.Weight,
			Year:          project.FiscalYear,
			Ministry:      project.Ministry,
			Bureau:        project.Bureau,
			ScaleCategory: project.ScaleCategory,
		}
	}

	return &model.PredictionResult{
		PredictedBudget: uc.config.Alpha*weightedBudget + uc.config.Beta*averageBudget,
		AverageBudget:   averageBudget,
		CaseCount:       len(matches),
		SimilarCases:    cases,
	}, nil
}

// Analyze runs Predict and records the attempt in the analysis log.
// Exactly one log entry is appended per call, on both the success and
// failure paths. A failed append never masks the prediction outcome.
func (uc *PredictionUseCase) Analyze(ctx context.Context, issueText, summaryText string) (*model.PredictionResult, error) {
	startTime := time.Now()
	result, err := uc.Predict(ctx, issueText, summaryText)
	elapsed := time.Since(startTime).Seconds()

	entry := &model.AnalysisLog{
		IssueText:      strings.TrimSpace(issueText),
		SummaryText:    strings.TrimSpace(summaryText),
		ProcessingTime: elapsed,
	}
	if err != nil {
		entry.Status = types.LogStatusError
		entry.ErrorMessage = err.Error()
	} else {
		entry.Status = types.LogStatusSuccess
		entry.PredictedBudget = &result.PredictedBudget
		entry.AverageBudget = &result.AverageBudget
		entry.CaseCount = &result.CaseCount
	}

	if _, appendErr := uc.repo.AnalysisLog().Create(ctx, entry); appendErr != nil {
		errutil.Handle(ctx, appendErr, "failed to append analysis log")
	}

	return result, err
}
