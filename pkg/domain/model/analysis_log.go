package model

import (
	"time"

	"github.com/seisaku-lab/yosan/pkg/domain/types"
)

// AnalysisLog records one prediction attempt. Exactly one entry is
// appended per request, on both the success and the failure path.
// Entries are never mutated after creation; only retention cleanup or
// explicit deletion removes them.
//
// On success the budget fields carry the prediction outcome, including
// explicit zeros for a zero-match result. On error they stay nil and
// ErrorMessage is set.
type AnalysisLog struct {
	ID              int64
	Status          types.LogStatus
	IssueText       string
	SummaryText     string
	PredictedBudget *float64
	AverageBudget   *float64
	CaseCount       *int
	ProcessingTime  float64 // seconds
	ErrorMessage    string
	CreatedAt       time.Time
}

// LogListFilter restricts the entries returned by a log listing.
// Zero values mean "no restriction". Date bounds are inclusive.
type LogListFilter struct {
	Status   types.LogStatus
	DateFrom time.Time
	DateTo   time.Time
}
