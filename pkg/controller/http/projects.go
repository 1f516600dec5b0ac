package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
)

type projectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	Budget      int64  `json:"budget"`
	Rating      string `json:"rating"`
	Description string `json:"description"`
	Outcomes    string `json:"outcomes"`
}

type projectDetailResponse struct {
	projectResponse
	IssueText   string `json:"issue_text"`
	SummaryText string `json:"summary_text"`
}

func toProjectResponse(p *model.HistoricalProject) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Year:        p.FiscalYear,
		Budget:      int64(p.InitialBudget),
		Rating:      p.Rank.String(),
		Description: p.Overview,
		Outcomes:    p.Outcomes(),
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects := s.uc.Corpus.ListProjects(r.Context())

	items := make([]projectResponse, len(projects))
	for i, p := range projects {
		items[i] = toProjectResponse(p)
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"projects":    items,
		"total_count": len(items),
	})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "不正なプロジェクトIDです", "プロジェクトIDは整数で指定してください")
		return
	}

	project, err := s.uc.Corpus.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "プロジェクトが見つかりません",
			"ID "+strconv.FormatInt(id, 10)+" のプロジェクトは存在しません")
		return
	}

	writeJSON(w, r, http.StatusOK, projectDetailResponse{
		projectResponse: toProjectResponse(project),
		IssueText:       project.Issues,
		SummaryText:     project.Overview,
	})
}

func (s *Server) handleCorpusStats(w http.ResponseWriter, r *http.Request) {
	stats := s.uc.Corpus.Stats(r.Context())

	ratingDistribution := make(map[string]int, len(stats.RankDistribution))
	for _, rank := range types.AllEvaluationRanks() {
		if count, ok := stats.RankDistribution[rank]; ok {
			ratingDistribution[rank.String()] = count
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"total_projects": stats.TotalProjects,
		"budget_stats": map[string]int64{
			"min":    int64(stats.Budget.Min),
			"max":    int64(stats.Budget.Max),
			"mean":   int64(stats.Budget.Mean),
			"median": int64(stats.Budget.Median),
		},
		"rating_distribution": ratingDistribution,
	})
}
