package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

// PATCH /api/submissions/{id}/grade
func ManualGradeHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GradedAnswers []submission.GradeUpdate `json:"gradedAnswers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.GradedAnswers) == 0 {
			http.Error(w, "gradedAnswers required", http.StatusBadRequest)
			return
		}
		sub, err := svc.ManualGrade(r.Context(), chi.URLParam(r, "id"), req.GradedAnswers)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "grading updated", "submission": sub})
	}
}
