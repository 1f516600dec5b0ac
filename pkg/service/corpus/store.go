package corpus

import (
	"math"
	"sort"

	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
)

// Store holds the historical project corpus with precomputed embeddings.
// It is built once at startup and never modified afterwards, so reads
// need no locking.
type Store struct {
	projects  []*model.HistoricalProject
	byID      map[int64]int
	dimension int
}

func newStore(projects []*model.HistoricalProject, dimension int) *Store {
	byID := make(map[int64]int, len(projects))
	for i, p := range projects {
		byID[p.ID] = i
	}
	return &Store{
		projects:  projects,
		byID:      byID,
		dimension: dimension,
	}
}

// All returns every project in the corpus
func (s *Store) All() []*model.HistoricalProject {
	return s.projects
}

// Get returns the project with the given ID
func (s *Store) Get(id int64) (*model.HistoricalProject, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.projects[idx], true
}

// Len returns the number of projects in the corpus
func (s *Store) Len() int {
	return len(s.projects)
}

// Dimension returns the embedding vector dimension
func (s *Store) Dimension() int {
	return s.dimension
}

// Search returns the projects whose embedding has cosine similarity of at
// least tau with the query, sorted by similarity descending. Ties are
// broken by smaller project ID so results are deterministic. At most topK
// matches are returned.
func (s *Store) Search(query []float32, tau float64, topK int) []model.SimilarityMatch {
	if topK <= 0 {
		return nil
	}

	matches := make([]model.SimilarityMatch, 0, len(s.projects))
	for _, p := range s.projects {
		sim := cosineSimilarity(query, p.Embedding)
		if sim < tau {
			continue
		}
		matches = append(matches, model.SimilarityMatch{
			ProjectID:  p.ID,
			Similarity: sim,
			EvalRank:   p.Rank,
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

// Stats aggregates corpus-wide budget and rank statistics
func (s *Store) Stats() *model.CorpusStats {
	stats := &model.CorpusStats{
		TotalProjects:    len(s.projects),
		RankDistribution: make(map[types.EvaluationRank]int),
	}
	if len(s.projects) == 0 {
		return stats
	}

	budgets := make([]float64, 0, len(s.projects))
	var sum float64
	for _, p := range s.projects {
		budgets = append(budgets, p.InitialBudget)
		sum += p.InitialBudget
		stats.RankDistribution[p.Rank]++
	}
	sort.Float64s(budgets)

	stats.Budget.Min = budgets[0]
	stats.Budget.Max = budgets[len(budgets)-1]
	stats.Budget.Mean = sum / float64(len(budgets))
	if n := len(budgets); n%2 == 1 {
		stats.Budget.Median = budgets[n/2]
	} else {
		stats.Budget.Median = (budgets[n/2-1] + budgets[n/2]) / 2
	}
	return stats
}

// cosineSimilarity returns the cosine similarity of two vectors. Vectors
// of different lengths or zero norm yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
