package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/domain/types"
	"github.com/seisaku-lab/yosan/pkg/usecase"
	"github.com/seisaku-lab/yosan/pkg/utils/errutil"
)

const defaultCleanupDays = 90

type logResponse struct {
	ID              int64    `json:"id"`
	Status          string   `json:"status"`
	IssueText       string   `json:"issue_text"`
	SummaryText     string   `json:"summary_text"`
	PredictedBudget *float64 `json:"predicted_budget"`
	AverageBudget   *float64 `json:"average_budget"`
	CaseCount       *int     `json:"case_count"`
	ProcessingTime  float64  `json:"processing_time"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	AnalysisDate    string   `json:"analysis_date"`
}

func toLogResponse(entry *model.AnalysisLog) logResponse {
	return logResponse{
		ID:              entry.ID,
		Status:          entry.Status.String(),
		IssueText:       entry.IssueText,
		SummaryText:     entry.SummaryText,
		PredictedBudget: entry.PredictedBudget,
		AverageBudget:   entry.AverageBudget,
		CaseCount:       entry.CaseCount,
		ProcessingTime:  entry.ProcessingTime,
		ErrorMessage:    entry.ErrorMessage,
		AnalysisDate:    entry.CreatedAt.Format(time.RFC3339),
	}
}

// parseLogListQuery maps query parameters to a filter. Dates use the
// YYYY-MM-DD form; date_to covers the whole named day.
func parseLogListQuery(r *http.Request) (model.LogListFilter, int, int, error) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.LogListFilter{}, 0, 0, errors.New("limit must be an integer")
		}
		limit = n
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.LogListFilter{}, 0, 0, errors.New("offset must be an integer")
		}
		offset = n
	}

	var filter model.LogListFilter
	if v := q.Get("status"); v != "" {
		status, err := types.ParseLogStatus(v)
		if err != nil {
			return model.LogListFilter{}, 0, 0, errors.New("status must be success or error")
		}
		filter.Status = status
	}

	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return model.LogListFilter{}, 0, 0, errors.New("date_from must be in YYYY-MM-DD format")
		}
		filter.DateFrom = t
	}

	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return model.LogListFilter{}, 0, 0, errors.New("date_to must be in YYYY-MM-DD format")
		}
		filter.DateTo = t.Add(24*time.Hour - time.Nanosecond)
	}

	return filter, limit, offset, nil
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	filter, limit, offset, err := parseLogListQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "クエリパラメータが不正です", err.Error())
		return
	}

	entries, total, err := s.uc.AnalysisLog.List(r.Context(), filter, limit, offset)
	if err != nil {
		errutil.Handle(r.Context(), err, "failed to list analysis logs")
		writeError(w, r, http.StatusInternalServerError, "内部サーバーエラー", "ログ一覧取得中にエラーが発生しました")
		return
	}

	logs := make([]logResponse, len(entries))
	for i, entry := range entries {
		logs[i] = toLogResponse(entry)
	}

	if limit <= 0 {
		limit = len(logs)
	}
	if offset < 0 {
		offset = 0
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"logs":        logs,
		"total_count": total,
		"limit":       limit,
		"offset":      offset,
	})
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "logID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "不正なログIDです", "ログIDは整数で指定してください")
		return
	}

	entry, err := s.uc.AnalysisLog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "ログが見つかりません",
			"ID "+strconv.FormatInt(id, 10)+" のログは存在しません")
		return
	}

	writeJSON(w, r, http.StatusOK, toLogResponse(entry))
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "logID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "不正なログIDです", "ログIDは整数で指定してください")
		return
	}

	if err := s.uc.AnalysisLog.Delete(r.Context(), id); err != nil {
		writeError(w, r, http.StatusNotFound, "ログが見つかりません",
			"ID "+strconv.FormatInt(id, 10)+" のログは存在しません")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{
		"message": "ログを削除しました",
	})
}

func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.uc.AnalysisLog.Stats(r.Context())
	if err != nil {
		errutil.Handle(r.Context(), err, "failed to aggregate log stats")
		writeError(w, r, http.StatusInternalServerError, "内部サーバーエラー", "ログ統計情報取得中にエラーが発生しました")
		return
	}

	statusCounts := make(map[string]int, len(stats.StatusCounts))
	for status, count := range stats.StatusCounts {
		statusCounts[status.String()] = count
	}

	body := map[string]any{
		"total_count":         stats.TotalCount,
		"status_counts":       statusCounts,
		"avg_processing_time": stats.AvgProcessingTime,
		"p95_processing_time": stats.P95ProcessingTime,
	}
	if !stats.OldestAt.IsZero() {
		body["oldest_date"] = stats.OldestAt.Format(time.RFC3339)
		body["newest_date"] = stats.NewestAt.Format(time.RFC3339)
	}

	writeJSON(w, r, http.StatusOK, body)
}

func (s *Server) handleCleanupLogs(w http.ResponseWriter, r *http.Request) {
	days := defaultCleanupDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "クエリパラメータが不正です", "days は整数で指定してください")
			return
		}
		days = n
	}

	deleted, err := s.uc.AnalysisLog.Cleanup(r.Context(), days)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRetention) {
			writeError(w, r, http.StatusBadRequest, "クエリパラメータが不正です", "days は1以上で指定してください")
			return
		}
		errutil.Handle(r.Context(), err, "failed to clean up analysis logs")
		writeError(w, r, http.StatusInternalServerError, "内部サーバーエラー", "ログ削除中にエラーが発生しました")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"deleted_count": deleted,
		"message":       strconv.Itoa(deleted) + "件のログを削除しました",
	})
}
