// Package notify delivers result emails. Submissions hand a computed
// Result to the outbox; a background worker owns delivery and retries,
// fully decoupled from the request path.
package notify

import (
	"context"
	"log"

	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

// Line is one row of the per-question breakdown in the result email.
type Line struct {
	Number        int     `json:"number"`
	Text          string  `json:"text"`
	MarksObtained float64 `json:"marksObtained"`
	Marks         float64 `json:"marks"`
	Graded        bool    `json:"graded"`
}

// Result carries everything the mail template needs, precomputed so the
// worker never reads exam or submission state again.
type Result struct {
	To         string  `json:"to"`
	Name       string  `json:"name"`
	ExamTitle  string  `json:"examTitle"`
	Score      float64 `json:"score"`
	TotalMarks float64 `json:"totalMarks"`
	Breakdown  []Line  `json:"breakdown,omitempty"`
}

type Mailer interface {
	SendResult(ctx context.Context, r Result) error
}

// LogMailer is the delivery of last resort when SMTP is unconfigured.
type LogMailer struct{}

func (LogMailer) SendResult(_ context.Context, r Result) error {
	log.Printf("result email (smtp unconfigured): to=%s exam=%q score=%v/%v", r.To, r.ExamTitle, r.Score, r.TotalMarks)
	return nil
}

// BuildResult joins a submission's answers with the exam's questions into
// the flat payload the template renders.
func BuildResult(sub submission.Submission, ex exam.Exam, questions []exam.Question) Result {
	byID := make(map[string]submission.Answer, len(sub.Answers))
	for _, a := range sub.Answers {
		byID[a.QuestionID] = a
	}
	r := Result{
		To:         sub.CandidateEmail,
		Name:       sub.CandidateName,
		ExamTitle:  ex.Title,
		Score:      sub.TotalScore,
		TotalMarks: sub.MaxPossibleMarks,
	}
	for i, q := range questions {
		a := byID[q.ID]
		r.Breakdown = append(r.Breakdown, Line{
			Number:        i + 1,
			Text:          q.Text,
			MarksObtained: a.MarksObtained,
			Marks:         q.Marks,
			Graded:        a.IsGraded,
		})
	}
	return r
}
