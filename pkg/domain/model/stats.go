package model

import (
	"time"

	"github.com/seisaku-lab/yosan/pkg/domain/types"
)

// LogStats is the aggregate view over the analysis log.
type LogStats struct {
	TotalCount        int
	StatusCounts      map[types.LogStatus]int
	AvgProcessingTime float64 // seconds, success entries only
	P95ProcessingTime float64 // seconds, success entries only
	OldestAt          time.Time
	NewestAt          time.Time
}

// BudgetStats summarizes the budget distribution of the corpus.
type BudgetStats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

// CorpusStats is the aggregate view over the historical corpus.
type CorpusStats struct {
	TotalProjects    int
	Budget           BudgetStats
	RankDistribution map[types.EvaluationRank]int
}
