package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/rbac"
)

var validate = validator.New()

type questionPayload struct {
	ID              string   `json:"id,omitempty"`
	Text            string   `json:"text" validate:"required"`
	Type            string   `json:"type" validate:"required,oneof=MCQ SHORT_ANSWER"`
	Options         []string `json:"options,omitempty"`
	CorrectAnswer   string   `json:"correctAnswer,omitempty"`
	Marks           float64  `json:"marks" validate:"gt=0"`
	NegativeMarking float64  `json:"negativeMarking" validate:"gte=0"`
	Required        bool     `json:"required"`
}

type examPayload struct {
	Title        string            `json:"title" validate:"required"`
	Description  string            `json:"description"`
	CoverImage   string            `json:"coverImage"`
	StartTime    time.Time         `json:"startTime" validate:"required"`
	EndTime      time.Time         `json:"endTime" validate:"required"`
	Duration     int               `json:"duration" validate:"gt=0"`
	PassingMarks float64           `json:"passingMarks"`
	Status       string            `json:"status,omitempty"`
	Settings     *exam.Settings    `json:"settings,omitempty"`
	Questions    []questionPayload `json:"questions" validate:"dive"`
}

func (p examPayload) toModel(id, owner string) (exam.Exam, []exam.Question, error) {
	if err := validate.Struct(p); err != nil {
		return exam.Exam{}, nil, err
	}
	if !p.EndTime.After(p.StartTime) {
		return exam.Exam{}, nil, exam.ErrInvalid
	}
	settings := exam.DefaultSettings()
	if p.Settings != nil {
		settings = *p.Settings
	}
	status := p.Status
	if status == "" {
		status = exam.StatusDraft
	}
	e := exam.Exam{
		ID:           id,
		OwnerID:      owner,
		Title:        p.Title,
		Description:  p.Description,
		CoverImage:   p.CoverImage,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		Duration:     p.Duration,
		PassingMarks: p.PassingMarks,
		Status:       status,
		Settings:     settings,
	}
	qs := make([]exam.Question, len(p.Questions))
	for i, q := range p.Questions {
		qs[i] = exam.Question{
			ID:              q.ID,
			ExamID:          id,
			Text:            q.Text,
			Type:            q.Type,
			Options:         q.Options,
			CorrectAnswer:   q.CorrectAnswer,
			Marks:           q.Marks,
			NegativeMarking: q.NegativeMarking,
			Required:        q.Required,
			Position:        i,
		}
	}
	return e, qs, nil
}

func CreateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p examPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e, qs, err := p.toModel(uuid.NewString(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutExam(r.Context(), e, qs); err != nil {
			writeErr(w, err)
			return
		}
		stored, err := store.ListQuestions(r.Context(), e.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"exam": e, "questions": stored})
	}
}

// GetExamHandler serves the candidate view: exam plus questions with
// correct answers stripped.
func GetExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		qs, err := store.ListQuestions(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		for i := range qs {
			qs[i].CorrectAnswer = ""
		}
		writeJSON(w, http.StatusOK, map[string]any{"exam": e, "questions": qs})
	}
}

func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := exam.ListOpts{
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		// HR users see only their own exams; admin sees all.
		if rbac.RoleFromContext(r.Context()) != "admin" {
			opts.OwnerID = rbac.SubjectFromContext(r.Context())
		}
		list, err := store.ListExams(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func UpdateExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		existing, err := store.GetExam(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		var p examPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e, qs, err := p.toModel(id, existing.OwnerID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.UpdateExam(r.Context(), e, qs); err != nil {
			writeErr(w, err)
			return
		}
		stored, err := store.ListQuestions(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exam": e, "questions": stored})
	}
}

func DeleteExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteExam(r.Context(), chi.URLParam(r, "examID")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "exam and associated questions deleted"})
	}
}

func PatchSettingsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		// Merge: decode the patch over the current settings.
		var req struct {
			Settings json.RawMessage `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Settings) == 0 {
			http.Error(w, "settings required", http.StatusBadRequest)
			return
		}
		merged := e.Settings
		if err := json.Unmarshal(req.Settings, &merged); err != nil {
			http.Error(w, "bad settings: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PatchSettings(r.Context(), id, merged); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "settings updated", "settings": merged})
	}
}
