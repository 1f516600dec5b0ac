package types

import (
	"fmt"
	"math"
)

// EvaluationRank represents the post-hoc evaluation rank of a historical project
type EvaluationRank string

const (
	EvaluationRankA EvaluationRank = "A"
	EvaluationRankB EvaluationRank = "B"
	EvaluationRankC EvaluationRank = "C"
	EvaluationRankD EvaluationRank = "D"
)

// AllEvaluationRanks returns all valid evaluation ranks
func AllEvaluationRanks() []EvaluationRank {
	return []EvaluationRank{
		EvaluationRankA,
		EvaluationRankB,
		EvaluationRankC,
		EvaluationRankD,
	}
}

// IsValid checks if the evaluation rank is valid
func (r EvaluationRank) IsValid() bool {
	switch r {
	case EvaluationRankA,
		EvaluationRankB,
		EvaluationRankC,
		EvaluationRankD:
		return true
	default:
		return false
	}
}

// String returns the string representation of the evaluation rank
func (r EvaluationRank) String() string {
	return string(r)
}

// Description returns the display text shown alongside the rank in
// prediction results
func (r EvaluationRank) Description() string {
	switch r {
	case EvaluationRankA:
		return "High evaluation: goals achieved, effective"
	case EvaluationRankB:
		return "Good: goals mostly achieved, some room for improvement"
	case EvaluationRankC:
		return "Needs improvement: some goals unmet"
	case EvaluationRankD:
		return "Low evaluation: goals unmet, major revision required"
	default:
		return "No evaluation available"
	}
}

// ParseEvaluationRank parses a string into an EvaluationRank
func ParseEvaluationRank(s string) (EvaluationRank, error) {
	rank := EvaluationRank(s)
	if !rank.IsValid() {
		return "", fmt.Errorf("invalid evaluation rank: %s", s)
	}
	return rank, nil
}

// RankFromRelativeError derives an evaluation rank from a historical
// forecast error ratio. A zero error means the evaluation signal is
// missing, which maps to the neutral rank B.
func RankFromRelativeError(errorRate float64) EvaluationRank {
	switch {
	case errorRate == 0 || math.IsNaN(errorRate):
		return EvaluationRankB
	case errorRate < 0.1:
		return EvaluationRankA
	case errorRate < 0.3:
		return EvaluationRankB
	case errorRate < 0.5:
		return EvaluationRankC
	default:
		return EvaluationRankD
	}
}
