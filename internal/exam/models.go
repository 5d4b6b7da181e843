package exam

import "time"

// Question types.
const (
	TypeMCQ         = "MCQ"
	TypeShortAnswer = "SHORT_ANSWER"
)

// Exam lifecycle status.
const (
	StatusDraft     = "DRAFT"
	StatusScheduled = "SCHEDULED"
	StatusRunning   = "RUNNING"
	StatusClosed    = "CLOSED"
)

// Settings govern scoring and proctoring behavior for one exam.
type Settings struct {
	NegativeMarkingEnabled bool   `json:"negativeMarkingEnabled"`
	AutomatedEmail         bool   `json:"automatedEmail"`
	GeneratePDF            bool   `json:"generatePDF"`
	MaxAttempts            int    `json:"maxAttempts"`
	RestrictIP             bool   `json:"restrictIP"`
	TabSwitchLimit         int    `json:"tabSwitchLimit"` // 0 means disabled
	EnableAntiCheat        bool   `json:"enableAntiCheat"`
	ActionOnLimit          string `json:"actionOnLimit"` // AUTO_SUBMIT | NOTIFY_ONLY
	RequireFullscreen      bool   `json:"requireFullscreen"`
	AntiCheatMode          string `json:"antiCheatMode"` // STRICT | SILENT
	EnablePassFail         bool   `json:"enablePassFail"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxAttempts:    1,
		ActionOnLimit:  "AUTO_SUBMIT",
		AntiCheatMode:  "STRICT",
		EnablePassFail: true,
	}
}

type Question struct {
	ID              string   `json:"id"`
	ExamID          string   `json:"examId"`
	Text            string   `json:"text"`
	Type            string   `json:"type"` // MCQ | SHORT_ANSWER
	Options         []string `json:"options,omitempty"`
	CorrectAnswer   string   `json:"correctAnswer,omitempty"` // empty means manual grading, even for MCQ
	Marks           float64  `json:"marks"`
	NegativeMarking float64  `json:"negativeMarking"`
	Required        bool     `json:"required"`
	Position        int      `json:"-"`
}

// AutoGradable reports whether correctness can be decided without a human.
func (q Question) AutoGradable() bool {
	return q.Type == TypeMCQ && q.CorrectAnswer != ""
}

type Exam struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	CoverImage   string    `json:"coverImage,omitempty"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Duration     int       `json:"duration"` // minutes
	PassingMarks float64   `json:"passingMarks"`
	Status       string    `json:"status"`
	Settings     Settings  `json:"settings"`
	CreatedAt    time.Time `json:"createdAt"`
}
