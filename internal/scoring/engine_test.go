package scoring

import (
	"testing"

	"github.com/mahmudshamim/ExamFlow/internal/exam"
)

func mcq(id string, marks, penalty float64, correct string) exam.Question {
	return exam.Question{ID: id, Type: exam.TypeMCQ, Marks: marks, NegativeMarking: penalty, CorrectAnswer: correct, Options: []string{"A", "B", "C", "D"}}
}

func short(id string, marks float64) exam.Question {
	return exam.Question{ID: id, Type: exam.TypeShortAnswer, Marks: marks}
}

func TestScoreMCQ(t *testing.T) {
	qs := []exam.Question{mcq("q1", 5, 2, "B")}

	cases := []struct {
		name     string
		answer   string
		negative bool
		want     float64
		graded   bool
	}{
		{"correct", "B", true, 5, true},
		{"wrong with penalty", "A", true, -2, true},
		{"wrong without penalty", "A", false, 0, true},
		{"blank never penalized", "", true, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(qs, []Answer{{QuestionID: "q1", Text: tc.answer}}, tc.negative)
			g := res.Graded[0]
			if g.MarksObtained != tc.want {
				t.Fatalf("marks = %v, want %v", g.MarksObtained, tc.want)
			}
			if g.IsGraded != tc.graded {
				t.Fatalf("isGraded = %v, want %v", g.IsGraded, tc.graded)
			}
			if res.MaxPossibleMarks != 5 {
				t.Fatalf("max = %v, want 5", res.MaxPossibleMarks)
			}
		})
	}
}

func TestScoreShortAnswerAlwaysPending(t *testing.T) {
	res := Score([]exam.Question{short("q1", 5)}, []Answer{{QuestionID: "q1", Text: "an essay"}}, true)
	g := res.Graded[0]
	if g.IsGraded || g.MarksObtained != 0 {
		t.Fatalf("short answer graded=%v marks=%v, want ungraded zero", g.IsGraded, g.MarksObtained)
	}
	if !res.AnyPending {
		t.Fatal("expected AnyPending")
	}
}

func TestScoreMCQWithoutKeyNeedsManual(t *testing.T) {
	// A discussion MCQ: typed MCQ but no configured correct answer.
	res := Score([]exam.Question{mcq("q1", 4, 0, "")}, []Answer{{QuestionID: "q1", Text: "C"}}, false)
	if res.Graded[0].IsGraded {
		t.Fatal("MCQ without a correct answer must require manual grading")
	}
	if !res.AnyPending {
		t.Fatal("expected AnyPending")
	}
}

func TestScoreClampsTotalNotPerAnswer(t *testing.T) {
	qs := []exam.Question{
		mcq("q1", 2, 5, "A"),
		mcq("q2", 2, 1, "A"),
	}
	answers := []Answer{
		{QuestionID: "q1", Text: "B"},
		{QuestionID: "q2", Text: "A"},
	}
	res := Score(qs, answers, true)
	if res.Graded[0].MarksObtained != -5 {
		t.Fatalf("per-answer penalty = %v, want -5", res.Graded[0].MarksObtained)
	}
	if res.RawScore != -3 {
		t.Fatalf("raw = %v, want -3", res.RawScore)
	}
	if res.TotalScore != 0 {
		t.Fatalf("total = %v, want clamp to 0", res.TotalScore)
	}
}

func TestScoreMaxCoversUnansweredQuestions(t *testing.T) {
	// Skipping a question must not shrink the denominator.
	qs := []exam.Question{
		mcq("q1", 5, 0, "A"),
		short("q2", 5),
	}
	res := Score(qs, []Answer{{QuestionID: "q1", Text: "A"}}, false)
	if res.MaxPossibleMarks != 10 {
		t.Fatalf("max = %v, want 10 (sum over all questions)", res.MaxPossibleMarks)
	}
	if res.TotalScore != 5 {
		t.Fatalf("total = %v, want 5", res.TotalScore)
	}
	if res.AnyPending {
		t.Fatal("an unanswered question must not mark the submission pending")
	}
}

func TestScoreUnmatchedAnswerPassesThrough(t *testing.T) {
	qs := []exam.Question{mcq("q1", 5, 0, "A")}
	res := Score(qs, []Answer{
		{QuestionID: "q1", Text: "A"},
		{QuestionID: "deleted-question", Text: "B"},
	}, false)
	if res.MaxPossibleMarks != 5 {
		t.Fatalf("max = %v, unmatched answers must not contribute", res.MaxPossibleMarks)
	}
	g := res.Graded[1]
	if g.Matched || g.IsGraded || g.MarksObtained != 0 {
		t.Fatalf("unmatched answer mutated: %+v", g)
	}
}

func TestScoreExactStringEquality(t *testing.T) {
	// No trimming, no case folding: "b" does not match "B".
	res := Score([]exam.Question{mcq("q1", 5, 0, "B")}, []Answer{{QuestionID: "q1", Text: "b"}}, false)
	if res.Graded[0].MarksObtained != 0 {
		t.Fatalf("marks = %v, want 0 for case mismatch", res.Graded[0].MarksObtained)
	}
}
