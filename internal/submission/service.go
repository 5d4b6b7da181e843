// Package submission owns the assessment submission lifecycle: draft
// creation, autosave, proctoring-violation logging, finalization with
// scoring, and manual re-grading.
package submission

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/scoring"
)

// Notifier receives the computed result after a submission persists.
// Implementations must not block; delivery failures stay on their side.
type Notifier interface {
	EnqueueResult(ctx context.Context, sub Submission, ex exam.Exam, questions []exam.Question) error
}

type Service struct {
	exams    exam.Store
	store    Store
	notifier Notifier // optional
	now      func() time.Time
}

func NewService(exams exam.Store, store Store, notifier Notifier) *Service {
	return &Service{exams: exams, store: store, notifier: notifier, now: time.Now}
}

// Start opens a draft in IN_PROGRESS. The attempt limit is deliberately not
// checked here: a candidate may abandon and restart drafts freely, the gate
// lives at finalization.
func (s *Service) Start(ctx context.Context, examID, email, name string, meta RequestMeta) (string, error) {
	if _, err := s.exams.GetExam(ctx, examID); err != nil {
		return "", err
	}
	sub := Submission{
		ID:             uuid.NewString(),
		ExamID:         examID,
		CandidateEmail: strings.ToLower(email),
		CandidateName:  name,
		Answers:        []Answer{},
		Status:         StatusInProgress,
		Metadata: Metadata{
			IPAddress: meta.IP,
			UserAgent: meta.UserAgent,
		},
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

// LogViolation appends one proctoring event. The counter increments for
// every event, RETURNED ones included; the client reads it as a raw event
// count, not a tab-switch tally.
func (s *Service) LogViolation(ctx context.Context, id string, v Violation) (count int, awayTime float64, err error) {
	if strings.TrimSpace(id) == "" {
		return 0, 0, ErrInvalidID
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = s.now()
	}
	return s.store.AppendViolation(ctx, id, v)
}

// Autosave wholesale-replaces the draft's answers. Last write wins.
func (s *Service) Autosave(ctx context.Context, id string, answers []Answer) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status != StatusInProgress {
		return ErrFinalized
	}
	return s.store.ReplaceAnswers(ctx, id, answers)
}

type AttemptStatus struct {
	Attempts    int  `json:"attempts"`
	MaxAttempts int  `json:"maxAttempts"`
	Allowed     bool `json:"allowed"`
}

// CheckAttempts is the advisory candidate-side gate. The authoritative
// check happens inside Submit.
func (s *Service) CheckAttempts(ctx context.Context, examID, email string) (AttemptStatus, error) {
	ex, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return AttemptStatus{}, err
	}
	attempts, err := s.store.CountCompleted(ctx, examID, email)
	if err != nil {
		return AttemptStatus{}, err
	}
	max := ex.Settings.MaxAttempts
	if max <= 0 {
		max = 1
	}
	return AttemptStatus{Attempts: attempts, MaxAttempts: max, Allowed: attempts < max}, nil
}

type SubmitInput struct {
	ExamID         string
	CandidateEmail string
	CandidateName  string
	Answers        []Answer
	Proctoring     *ProctoringSummary
	SubmissionID   string // set when finalizing a draft
}

type SubmitOutput struct {
	SubmissionID string  `json:"submissionId"`
	Score        float64 `json:"score"`
	TotalMarks   float64 `json:"totalMarks"`
}

// Submit finalizes an attempt: validates the exam and its time window,
// enforces the attempt limit for fresh submissions, scores the answers,
// persists, and hands the result to the notifier when the exam asks for
// automated emails. Nothing is written until validation passes.
func (s *Service) Submit(ctx context.Context, in SubmitInput, meta RequestMeta) (SubmitOutput, error) {
	ex, err := s.exams.GetExam(ctx, in.ExamID)
	if err != nil {
		return SubmitOutput{}, err
	}
	now := s.now()
	if !ex.EndTime.IsZero() && now.After(ex.EndTime) {
		return SubmitOutput{}, ErrWindowClosed
	}

	// Fresh submissions are gated on completed attempts. A draft id means
	// the one attempt in flight is already represented by that row. The
	// count-then-write window is accepted; see DESIGN.md.
	if in.SubmissionID == "" && ex.Settings.MaxAttempts > 0 {
		attempts, err := s.store.CountCompleted(ctx, in.ExamID, in.CandidateEmail)
		if err != nil {
			return SubmitOutput{}, err
		}
		if attempts >= ex.Settings.MaxAttempts {
			return SubmitOutput{}, ErrAttemptLimit
		}
	}

	questions, err := s.exams.ListQuestions(ctx, in.ExamID)
	if err != nil {
		return SubmitOutput{}, err
	}
	res := scoring.Score(questions, toScoringAnswers(in.Answers), ex.Settings.NegativeMarkingEnabled)
	graded := fromScoring(res.Graded)
	status := StatusGraded
	if res.AnyPending {
		status = StatusPending
	}

	var sub Submission
	if in.SubmissionID != "" {
		if _, err := uuid.Parse(in.SubmissionID); err != nil {
			return SubmitOutput{}, ErrInvalidID
		}
		sub, err = s.store.Get(ctx, in.SubmissionID)
		if err != nil {
			return SubmitOutput{}, err
		}
		sub.Answers = graded
		sub.TotalScore = res.TotalScore
		sub.MaxPossibleMarks = res.MaxPossibleMarks
		sub.Status = status
		sub.SubmittedAt = &now
		sub.Metadata.SubmittedAt = &now
		if p := in.Proctoring; p != nil {
			sub.Metadata.IsFlagged = p.IsFlagged
			sub.Metadata.EndedByPolicy = p.EndedByPolicy
			if p.TabSwitchCount != nil {
				sub.Metadata.TabSwitchCount = *p.TabSwitchCount
			}
			// The client summary replaces the server-accumulated log when
			// it carries entries; otherwise the accumulated log stands.
			if len(p.ViolationLogs) > 0 {
				sub.Metadata.ViolationLogs = p.ViolationLogs
			}
		}
		if err := s.store.Update(ctx, sub); err != nil {
			return SubmitOutput{}, err
		}
	} else {
		sub = Submission{
			ID:               uuid.NewString(),
			ExamID:           in.ExamID,
			CandidateEmail:   strings.ToLower(in.CandidateEmail),
			CandidateName:    in.CandidateName,
			Answers:          graded,
			TotalScore:       res.TotalScore,
			MaxPossibleMarks: res.MaxPossibleMarks,
			Status:           status,
			SubmittedAt:      &now,
			Metadata: Metadata{
				IPAddress:   meta.IP,
				UserAgent:   meta.UserAgent,
				SubmittedAt: &now,
			},
			CreatedAt: now,
		}
		if p := in.Proctoring; p != nil {
			sub.Metadata.IsFlagged = p.IsFlagged
			sub.Metadata.EndedByPolicy = p.EndedByPolicy
			if p.TabSwitchCount != nil {
				sub.Metadata.TabSwitchCount = *p.TabSwitchCount
			}
			sub.Metadata.ViolationLogs = p.ViolationLogs
		}
		if err := s.store.Create(ctx, sub); err != nil {
			return SubmitOutput{}, err
		}
	}

	// Fire-and-forget: the submission is committed, notification failures
	// are logged and never surfaced to the candidate.
	if ex.Settings.AutomatedEmail && s.notifier != nil {
		if err := s.notifier.EnqueueResult(ctx, sub, ex, questions); err != nil {
			log.Printf("enqueue result email for %s: %v", sub.ID, err)
		}
	}

	return SubmitOutput{
		SubmissionID: sub.ID,
		Score:        sub.TotalScore,
		TotalMarks:   sub.MaxPossibleMarks,
	}, nil
}

type GradeUpdate struct {
	QuestionID    string  `json:"questionId"`
	Index         *int    `json:"index,omitempty"` // legacy fallback when no id matches
	MarksObtained float64 `json:"marksObtained"`
}

// ManualGrade applies HR marks to pending answers. Every update is checked
// against its question's ceiling before anything mutates, so a single bad
// entry rejects the whole call. MaxPossibleMarks is recomputed from the
// exam's current questions here, unlike Submit which snapshots it.
func (s *Service) ManualGrade(ctx context.Context, id string, updates []GradeUpdate) (Submission, error) {
	if strings.TrimSpace(id) == "" {
		return Submission{}, ErrInvalidID
	}
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	questions, err := s.exams.ListQuestions(ctx, sub.ExamID)
	if err != nil {
		return Submission{}, err
	}
	byID := make(map[string]exam.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	// Validate all ceilings first.
	for _, u := range updates {
		q, ok := byID[u.QuestionID]
		if !ok {
			continue
		}
		if u.MarksObtained > q.Marks {
			return Submission{}, ErrMarksExceedMax
		}
	}

	for _, u := range updates {
		// Updates against a question the exam no longer has are dropped:
		// without a question there is no ceiling to grade against.
		if _, ok := byID[u.QuestionID]; !ok {
			continue
		}
		idx := -1
		for i, a := range sub.Answers {
			if a.QuestionID == u.QuestionID {
				idx = i
				break
			}
		}
		if idx == -1 && u.Index != nil && *u.Index >= 0 && *u.Index < len(sub.Answers) {
			idx = *u.Index
		}
		if idx == -1 {
			continue
		}
		sub.Answers[idx].MarksObtained = u.MarksObtained
		sub.Answers[idx].IsGraded = true
	}

	total := 0.0
	allGraded := true
	for _, a := range sub.Answers {
		total += a.MarksObtained
		if !a.IsGraded {
			allGraded = false
		}
	}
	if total < 0 {
		total = 0
	}
	sub.TotalScore = total

	max := 0.0
	for _, q := range questions {
		max += q.Marks
	}
	sub.MaxPossibleMarks = max

	if allGraded && len(sub.Answers) > 0 {
		sub.Status = StatusGraded
	}

	if err := s.store.Update(ctx, sub); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (s *Service) ListByExam(ctx context.Context, examID string) ([]Submission, error) {
	return s.store.ListByExam(ctx, examID)
}

func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.store.Delete(ctx, id)
}

func toScoringAnswers(answers []Answer) []scoring.Answer {
	out := make([]scoring.Answer, len(answers))
	for i, a := range answers {
		out[i] = scoring.Answer{QuestionID: a.QuestionID, Text: a.Answer}
	}
	return out
}

func fromScoring(graded []scoring.Graded) []Answer {
	out := make([]Answer, len(graded))
	for i, g := range graded {
		out[i] = Answer{
			QuestionID:    g.QuestionID,
			Answer:        g.Text,
			MarksObtained: g.MarksObtained,
			IsGraded:      g.IsGraded,
		}
	}
	return out
}
