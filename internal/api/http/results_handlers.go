package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/notify"
	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

// POST /api/exams/{examID}/send-results-bulk
//
// Queues one result email per submission; the outbox worker does the
// sending, so the response returns as soon as everything is queued.
func BulkSendResultsHandler(exams exam.Store, svc *submission.Service, queue *notify.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		ex, err := exams.GetExam(r.Context(), examID)
		if err != nil {
			writeErr(w, err)
			return
		}
		questions, err := exams.ListQuestions(r.Context(), examID)
		if err != nil {
			writeErr(w, err)
			return
		}
		subs, err := svc.ListByExam(r.Context(), examID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if len(subs) == 0 {
			http.Error(w, "no submissions found for this exam", http.StatusBadRequest)
			return
		}
		queued := 0
		for _, sub := range subs {
			if sub.Status == submission.StatusInProgress || sub.CandidateEmail == "" {
				continue
			}
			if err := queue.EnqueueResult(r.Context(), sub, ex, questions); err != nil {
				writeErr(w, err)
				return
			}
			queued++
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "bulk email queued",
			"summary": map[string]int{"total": len(subs), "queued": queued},
		})
	}
}
