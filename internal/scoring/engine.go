// Package scoring turns a candidate's raw answers into marks. It is a pure
// function over (questions, answers, policy): no storage, no clock, no I/O.
package scoring

import "github.com/mahmudshamim/ExamFlow/internal/exam"

// Answer is the minimal view of a candidate answer the engine needs.
type Answer struct {
	QuestionID string
	Text       string
}

// Graded is one scored answer. Matched is false when the answer referenced
// a question the exam no longer has; such answers pass through untouched.
type Graded struct {
	QuestionID    string
	Text          string
	MarksObtained float64
	IsGraded      bool
	Matched       bool
}

type Result struct {
	Graded           []Graded
	TotalScore       float64 // clamped to >= 0
	RawScore         float64 // pre-clamp sum, kept for analytics
	MaxPossibleMarks float64
	AnyPending       bool
}

// Score grades answers against their questions.
//
// An MCQ with a configured correct answer is auto-gradable: full marks on an
// exact string match, the question's penalty under negative marking for a
// non-blank wrong answer, zero otherwise. Everything else (short answers,
// and MCQs left without a correct answer to support discussion questions)
// stays ungraded at zero until a human grades it.
func Score(questions []exam.Question, answers []Answer, negativeMarking bool) Result {
	byID := make(map[string]exam.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	res := Result{Graded: make([]Graded, 0, len(answers))}
	// The denominator covers every question on the exam, answered or not.
	for _, q := range questions {
		res.MaxPossibleMarks += q.Marks
	}
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			res.Graded = append(res.Graded, Graded{QuestionID: a.QuestionID, Text: a.Text})
			continue
		}
		g := Graded{QuestionID: a.QuestionID, Text: a.Text, Matched: true}

		if q.AutoGradable() {
			g.IsGraded = true
			switch {
			case a.Text == q.CorrectAnswer:
				g.MarksObtained = q.Marks
			case negativeMarking && a.Text != "":
				g.MarksObtained = -q.NegativeMarking
			}
		} else {
			res.AnyPending = true
		}

		res.RawScore += g.MarksObtained
		res.Graded = append(res.Graded, g)
	}

	// Negative marking may not drive the aggregate below zero. Individual
	// answers keep their negative marks; only the total is clamped.
	res.TotalScore = res.RawScore
	if res.TotalScore < 0 {
		res.TotalScore = 0
	}
	return res
}
