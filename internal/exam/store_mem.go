package exam

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu        sync.RWMutex
	exams     map[string]Exam
	questions map[string][]Question // examID -> ordered questions
}

// NewInMemoryStore is used by tests and LAN/demo mode.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams:     map[string]Exam{},
		questions: map[string][]Question{},
	}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam, questions []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.exams[e.ID] = e
	m.questions[e.ID] = assignIDs(e.ID, questions)
	return nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) ListExams(_ context.Context, opts ListOpts) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Exam
	for _, e := range m.exams {
		if opts.OwnerID != "" && e.OwnerID != opts.OwnerID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) UpdateExam(_ context.Context, e Exam, questions []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.exams[e.ID]
	if !ok {
		return ErrNotFound
	}
	e.CreatedAt = old.CreatedAt
	m.exams[e.ID] = e
	m.questions[e.ID] = assignIDs(e.ID, questions)
	return nil
}

func (m *memoryStore) DeleteExam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return ErrNotFound
	}
	delete(m.exams, id)
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) PatchSettings(_ context.Context, id string, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return ErrNotFound
	}
	e.Settings = s
	m.exams[id] = e
	return nil
}

func (m *memoryStore) ListQuestions(_ context.Context, examID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qs := m.questions[examID]
	out := make([]Question, len(qs))
	copy(out, qs)
	return out, nil
}

func assignIDs(examID string, questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.ExamID = examID
		q.Position = i
		out[i] = q
	}
	return out
}
