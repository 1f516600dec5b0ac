package interfaces

import "github.com/seisaku-lab/yosan/pkg/domain/model"

// CorpusStore is the read-only view of the historical project corpus.
// Implementations are immutable after load, so methods are safe for
// concurrent use without locking.
type CorpusStore interface {
	All() []*model.HistoricalProject
	Get(id int64) (*model.HistoricalProject, bool)
	Len() int
	Dimension() int
	Stats() *model.CorpusStats
	Search(query []float32, tau float64, topK int) []model.SimilarityMatch
}
