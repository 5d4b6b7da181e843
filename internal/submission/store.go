package submission

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("submission not found")
	ErrInvalidID      = errors.New("invalid submission id")
	ErrAttemptLimit   = errors.New("maximum attempts reached")
	ErrFinalized      = errors.New("submission already finalized")
	ErrMarksExceedMax = errors.New("marks exceed question maximum")
	ErrWindowClosed   = errors.New("exam window has closed")
)

type Store interface {
	Create(ctx context.Context, s Submission) error
	Get(ctx context.Context, id string) (Submission, error)
	// Update overwrites the full row, including the violation log
	// (finalization may replace the server-accumulated log with the
	// client's summary).
	Update(ctx context.Context, s Submission) error
	Delete(ctx context.Context, id string) error
	ListByExam(ctx context.Context, examID string) ([]Submission, error)

	// ReplaceAnswers is the autosave write: last write wins, no merge.
	ReplaceAnswers(ctx context.Context, id string, answers []Answer) error

	// AppendViolation atomically appends the log entry and bumps the
	// counters; two concurrent calls must both land.
	AppendViolation(ctx context.Context, id string, v Violation) (count int, awayTime float64, err error)

	// CountCompleted counts finalized attempts (status != IN_PROGRESS)
	// for one exam and lower-cased candidate email.
	CountCompleted(ctx context.Context, examID, email string) (int, error)
}
