package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain sentinels onto the HTTP taxonomy: missing parent
// entities are 404, malformed input 400, attempt limits 403, the rest 500.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrNotFound), errors.Is(err, submission.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, submission.ErrAttemptLimit):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, submission.ErrInvalidID),
		errors.Is(err, submission.ErrMarksExceedMax),
		errors.Is(err, submission.ErrWindowClosed),
		errors.Is(err, submission.ErrFinalized),
		errors.Is(err, exam.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// requestMeta captures the ambient request context the lifecycle records.
// chi's RealIP middleware has already rewritten RemoteAddr when a proxy
// header is present.
func requestMeta(r *http.Request) submission.RequestMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return submission.RequestMeta{IP: ip, UserAgent: r.Header.Get("User-Agent")}
}
