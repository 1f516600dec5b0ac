package memory

import (
	"github.com/seisaku-lab/yosan/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	analysisLog *analysisLogRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		analysisLog: newAnalysisLogRepository(),
	}
}

func (m *Memory) AnalysisLog() interfaces.AnalysisLogRepository {
	return m.analysisLog
}

func (m *Memory) Close() error {
	return nil
}
