package exam

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("exam not found")
	ErrInvalid  = errors.New("invalid exam")
)

type ListOpts struct {
	OwnerID string // restrict to one HR's exams; empty means all
	Limit   int
	Offset  int
}

// Store is the catalog surface. It is read-only to the submission core;
// the write half exists for the admin CRUD routes.
type Store interface {
	PutExam(ctx context.Context, e Exam, questions []Question) error
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context, opts ListOpts) ([]Exam, error)
	// UpdateExam replaces the exam row and reconciles its question set:
	// payload questions with a known ID are updated, new ones inserted,
	// absent ones deleted.
	UpdateExam(ctx context.Context, e Exam, questions []Question) error
	DeleteExam(ctx context.Context, id string) error
	PatchSettings(ctx context.Context, id string, s Settings) error

	ListQuestions(ctx context.Context, examID string) ([]Question, error)
}
