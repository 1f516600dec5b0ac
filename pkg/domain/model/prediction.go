package model

import "github.com/seisaku-lab/yosan/pkg/domain/types"

// SimilarityMatch is one ranked neighbor from the corpus search.
// Rank is the 1-based position in the result ordering. Weight is the
// normalized similarity share over the selected set, filled in by the
// prediction step.
type SimilarityMatch struct {
	ProjectID  int64
	Similarity float64
	Weight     float64
	Rank       int
	EvalRank   types.EvaluationRank
}

// SimilarCase joins a SimilarityMatch with the display fields of its
// historical project for the client response.
type SimilarCase struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Budget        string  `json:"budget"`
	Eval          string  `json:"eval"`
	EvalText      string  `json:"evalText"`
	Details       string  `json:"details"`
	Similarity    float64 `json:"similarity"`
	Weight        float64 `json:"weight"`
	Year          int     `json:"year"`
	Ministry      string  `json:"ministry"`
	Bureau        string  `json:"bureau"`
	ScaleCategory string  `json:"scale_category"`
}

// PredictionResult is the outcome of one budget prediction. A zero
// CaseCount with zero budgets is a valid outcome, not an error.
type PredictionResult struct {
	PredictedBudget float64
	AverageBudget   float64
	CaseCount       int
	SimilarCases    []SimilarCase
}
