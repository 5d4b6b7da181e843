package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

// POST /api/submissions/start
func StartSubmissionHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID         string `json:"examId"`
			CandidateEmail string `json:"candidateEmail"`
			CandidateName  string `json:"candidateName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ExamID == "" || req.CandidateEmail == "" {
			http.Error(w, "examId and candidateEmail required", http.StatusBadRequest)
			return
		}
		id, err := svc.Start(r.Context(), req.ExamID, req.CandidateEmail, req.CandidateName, requestMeta(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"submissionId": id})
	}
}

// PATCH /api/submissions/{id}/log-violation
func LogViolationHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v submission.Violation
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		count, away, err := svc.LogViolation(r.Context(), chi.URLParam(r, "id"), v)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": count, "totalAwayTime": away})
	}
}

// PATCH /api/submissions/{id}/autosave
func AutosaveHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers []submission.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := svc.Autosave(r.Context(), chi.URLParam(r, "id"), req.Answers); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// POST /api/submissions — finalize an attempt, fresh or from a draft.
func SubmitHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID         string              `json:"examId"`
			CandidateEmail string              `json:"candidateEmail"`
			CandidateName  string              `json:"candidateName"`
			Answers        []submission.Answer `json:"answers"`
			SubmissionID   string              `json:"submissionId,omitempty"`

			// Client proctoring summary, flattened as the client sends it.
			TabSwitchCount *int                   `json:"tabSwitchCount,omitempty"`
			IsFlagged      bool                   `json:"isFlagged"`
			EndedByPolicy  bool                   `json:"endedByPolicy"`
			ViolationLogs  []submission.Violation `json:"violationLogs,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ExamID == "" {
			http.Error(w, "examId required", http.StatusBadRequest)
			return
		}
		out, err := svc.Submit(r.Context(), submission.SubmitInput{
			ExamID:         req.ExamID,
			CandidateEmail: req.CandidateEmail,
			CandidateName:  req.CandidateName,
			Answers:        req.Answers,
			SubmissionID:   req.SubmissionID,
			Proctoring: &submission.ProctoringSummary{
				TabSwitchCount: req.TabSwitchCount,
				IsFlagged:      req.IsFlagged,
				EndedByPolicy:  req.EndedByPolicy,
				ViolationLogs:  req.ViolationLogs,
			},
		}, requestMeta(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message":      "assessment submitted",
			"submissionId": out.SubmissionID,
			"score":        out.Score,
			"totalMarks":   out.TotalMarks,
		})
	}
}

// GET /api/submissions/check-attempts?examId=...&email=...
func CheckAttemptsHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := strings.TrimSpace(r.URL.Query().Get("examId"))
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if examID == "" || email == "" {
			http.Error(w, "examId and email required", http.StatusBadRequest)
			return
		}
		status, err := svc.CheckAttempts(r.Context(), examID, email)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// GET /api/submissions/exam/{examID}
func ListSubmissionsHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListByExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DELETE /api/submissions/{id}
func DeleteSubmissionHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "submission deleted"})
	}
}
