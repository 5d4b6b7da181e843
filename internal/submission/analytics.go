package submission

import (
	"context"
	"sort"
	"time"
)

type Topper struct {
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Score       float64    `json:"score"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

type QuestionStat struct {
	QuestionText string  `json:"questionText"`
	Type         string  `json:"type"`
	SuccessRate  float64 `json:"successRate"` // percent of submissions with positive marks
}

type AnalyticsReport struct {
	ExamTitle        string         `json:"examTitle,omitempty"`
	TotalSubmissions int            `json:"totalSubmissions"`
	AverageScore     float64        `json:"averageScore"`
	TopperList       []Topper       `json:"topperList"`
	QuestionStats    []QuestionStat `json:"questionStats"`
}

// Analytics aggregates an exam's submissions: average score, top five
// candidates, and per-question success rates.
func (s *Service) Analytics(ctx context.Context, examID string) (AnalyticsReport, error) {
	ex, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return AnalyticsReport{}, err
	}
	subs, err := s.store.ListByExam(ctx, examID)
	if err != nil {
		return AnalyticsReport{}, err
	}
	report := AnalyticsReport{
		ExamTitle:     ex.Title,
		TopperList:    []Topper{},
		QuestionStats: []QuestionStat{},
	}
	if len(subs) == 0 {
		return report, nil
	}
	report.TotalSubmissions = len(subs)

	total := 0.0
	for _, sub := range subs {
		total += sub.TotalScore
	}
	report.AverageScore = total / float64(len(subs))

	ranked := make([]Submission, len(subs))
	copy(ranked, subs)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TotalScore > ranked[j].TotalScore })
	for i := 0; i < len(ranked) && i < 5; i++ {
		report.TopperList = append(report.TopperList, Topper{
			Name:        ranked[i].CandidateName,
			Email:       ranked[i].CandidateEmail,
			Score:       ranked[i].TotalScore,
			SubmittedAt: ranked[i].SubmittedAt,
		})
	}

	questions, err := s.exams.ListQuestions(ctx, examID)
	if err != nil {
		return AnalyticsReport{}, err
	}
	for _, q := range questions {
		correct := 0
		for _, sub := range subs {
			for _, a := range sub.Answers {
				if a.QuestionID == q.ID && a.MarksObtained > 0 {
					correct++
					break
				}
			}
		}
		report.QuestionStats = append(report.QuestionStats, QuestionStat{
			QuestionText: q.Text,
			Type:         q.Type,
			SuccessRate:  float64(correct) / float64(len(subs)) * 100,
		})
	}
	return report, nil
}
