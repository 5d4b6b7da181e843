package submission

import "time"

// Submission status. A draft is IN_PROGRESS; finalization moves it to
// GRADED when every answer is machine-gradable, otherwise PENDING until
// manual grading completes. Nothing ever goes back to IN_PROGRESS.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusPending    = "PENDING"
	StatusGraded     = "GRADED"
)

// Violation types reported by the proctoring client.
const (
	ViolationTabHidden      = "TAB_HIDDEN"
	ViolationWindowBlur     = "WINDOW_BLUR"
	ViolationFullscreenExit = "FULLSCREEN_EXIT"
	ViolationReturned       = "RETURNED"
)

type Answer struct {
	QuestionID    string  `json:"questionId"`
	Answer        string  `json:"answer"`
	MarksObtained float64 `json:"marksObtained"`
	IsGraded      bool    `json:"isGraded"`
}

type Violation struct {
	Type       string     `json:"type"`
	Timestamp  time.Time  `json:"timestamp"`
	Duration   float64    `json:"duration"` // seconds away
	ReturnTime *time.Time `json:"returnTime,omitempty"`
}

type Metadata struct {
	IPAddress      string      `json:"ipAddress,omitempty"`
	UserAgent      string      `json:"userAgent,omitempty"`
	SubmittedAt    *time.Time  `json:"submittedAt,omitempty"`
	TabSwitchCount int         `json:"tabSwitchCount"`
	TotalAwayTime  float64     `json:"totalAwayTime"`
	IsFlagged      bool        `json:"isFlagged"`
	EndedByPolicy  bool        `json:"endedByPolicy"`
	ViolationLogs  []Violation `json:"violationLogs,omitempty"`
}

type Submission struct {
	ID             string     `json:"id"`
	ExamID         string     `json:"examId"`
	CandidateEmail string     `json:"candidateEmail"` // stored lowercase
	CandidateName  string     `json:"candidateName"`
	Answers        []Answer   `json:"answers"`
	TotalScore     float64    `json:"totalScore"`
	// Snapshot of the question marks at scoring time. Deliberately not
	// recomputed on reads, so later question edits leave old results alone.
	MaxPossibleMarks float64    `json:"maxPossibleMarks"`
	Status           string     `json:"status"`
	Metadata         Metadata   `json:"metadata"`
	SubmittedAt      *time.Time `json:"submittedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// ProctoringSummary is the client-side tally handed over at finalization.
type ProctoringSummary struct {
	TabSwitchCount *int        `json:"tabSwitchCount,omitempty"`
	IsFlagged      bool        `json:"isFlagged"`
	EndedByPolicy  bool        `json:"endedByPolicy"`
	ViolationLogs  []Violation `json:"violationLogs,omitempty"`
}

// RequestMeta is the ambient request context, passed explicitly.
type RequestMeta struct {
	IP        string
	UserAgent string
}
