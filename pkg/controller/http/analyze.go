package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/seisaku-lab/yosan/pkg/domain/model"
	"github.com/seisaku-lab/yosan/pkg/usecase"
	"github.com/seisaku-lab/yosan/pkg/utils/errutil"
)

type analyzeRequest struct {
	IssueText   string `json:"issue_text"`
	SummaryText string `json:"summary_text"`
}

type analyzeResponse struct {
	PredictedBudget float64             `json:"predicted_budget"`
	AverageBudget   float64             `json:"average_budget"`
	CaseCount       int                 `json:"case_count"`
	SimilarCases    []model.SimilarCase `json:"similar_cases"`
	Message         string              `json:"message"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "リクエストデータが不正です", "JSONデータが必要です")
		return
	}

	issueText := strings.TrimSpace(req.IssueText)
	summaryText := strings.TrimSpace(req.SummaryText)
	if issueText == "" || summaryText == "" {
		writeError(w, r, http.StatusBadRequest, "必須フィールドが不足しています", "issue_text と summary_text は必須です")
		return
	}

	result, err := s.uc.Prediction.Analyze(r.Context(), issueText, summaryText)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "必須フィールドが不足しています", "issue_text と summary_text は必須です")
			return
		}
		errutil.Handle(r.Context(), err, "analysis failed")
		writeError(w, r, http.StatusInternalServerError, "内部サーバーエラー", "分析処理中にエラーが発生しました: "+err.Error())
		return
	}

	message := "分析が完了しました"
	if result.CaseCount == 0 {
		message = "類似の事業が見つかりませんでした"
	}

	writeJSON(w, r, http.StatusOK, analyzeResponse{
		PredictedBudget: result.PredictedBudget,
		AverageBudget:   result.AverageBudget,
		CaseCount:       result.CaseCount,
		SimilarCases:    result.SimilarCases,
		Message:         message,
	})
}
