package model

import (
	"github.com/seisaku-lab/yosan/pkg/domain/types"
)

// HistoricalProject is one evaluated past project in the corpus.
// Records are immutable after the corpus build; the embedding vector
// always has the corpus dimension.
type HistoricalProject struct {
	ID               int64
	Ministry         string
	Bureau           string
	Name             string
	Overview         string
	Issues           string
	InitialBudget    float64
	Rank             types.EvaluationRank
	FiscalYear       int
	ScaleCategory    string
	RelativeErrorPct float64
	Embedding        []float32
}

// Outcomes returns a short narrative of the project's forecast accuracy,
// derived from the relative error the same way the rank is.
func (p *HistoricalProject) Outcomes() string {
	switch {
	case p.RelativeErrorPct == 0:
		return "Forecast accuracy could not be evaluated"
	case p.RelativeErrorPct < 0.1:
		return "Forecast was highly accurate; the plan was well designed"
	case p.RelativeErrorPct < 0.3:
		return "Forecast accuracy was good with some room for improvement"
	case p.RelativeErrorPct < 0.5:
		return "Forecast accuracy needs improvement; the plan should be reviewed"
	default:
		return "Forecast accuracy was poor; the plan requires major revision"
	}
}
