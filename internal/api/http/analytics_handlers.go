package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

// GET /api/analytics/{examID}
func AnalyticsHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Analytics(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
