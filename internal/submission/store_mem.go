package submission

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.Mutex
	subs map[string]Submission
}

// NewInMemoryStore backs tests and demo mode.
func NewInMemoryStore() Store {
	return &memoryStore{subs: map[string]Submission{}}
}

func (m *memoryStore) Create(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CandidateEmail = strings.ToLower(s.CandidateEmail)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.subs[s.ID] = clone(s)
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return clone(s), nil
}

func (m *memoryStore) Update(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.subs[s.ID]
	if !ok {
		return ErrNotFound
	}
	s.CandidateEmail = strings.ToLower(s.CandidateEmail)
	s.CreatedAt = old.CreatedAt
	m.subs[s.ID] = clone(s)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *memoryStore) ListByExam(_ context.Context, examID string) ([]Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Submission
	for _, s := range m.subs {
		if s.ExamID == examID {
			out = append(out, clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return effectiveTime(out[i]).After(effectiveTime(out[j]))
	})
	return out, nil
}

func effectiveTime(s Submission) time.Time {
	if s.SubmittedAt != nil {
		return *s.SubmittedAt
	}
	return s.CreatedAt
}

func (m *memoryStore) ReplaceAnswers(_ context.Context, id string, answers []Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return ErrNotFound
	}
	s.Answers = append([]Answer(nil), answers...)
	m.subs[id] = s
	return nil
}

// AppendViolation holds the lock across the append and both increments, so
// concurrent events never collapse into one.
func (m *memoryStore) AppendViolation(_ context.Context, id string, v Violation) (int, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return 0, 0, ErrNotFound
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	s.Metadata.ViolationLogs = append(s.Metadata.ViolationLogs, v)
	s.Metadata.TabSwitchCount++
	s.Metadata.TotalAwayTime += v.Duration
	m.subs[id] = s
	return s.Metadata.TabSwitchCount, s.Metadata.TotalAwayTime, nil
}

func (m *memoryStore) CountCompleted(_ context.Context, examID, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	n := 0
	for _, s := range m.subs {
		if s.ExamID == examID && s.CandidateEmail == email && s.Status != StatusInProgress {
			n++
		}
	}
	return n, nil
}

func clone(s Submission) Submission {
	s.Answers = append([]Answer(nil), s.Answers...)
	s.Metadata.ViolationLogs = append([]Violation(nil), s.Metadata.ViolationLogs...)
	return s
}
