package submission

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mahmudshamim/ExamFlow/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func seedSubmission(t *testing.T, store *SQLStore, id, examID, email, status string) {
	t.Helper()
	err := store.Create(context.Background(), Submission{
		ID:             id,
		ExamID:         examID,
		CandidateEmail: email,
		CandidateName:  "Test Candidate",
		Answers:        []Answer{{QuestionID: "q1", Answer: "X", MarksObtained: 5, IsGraded: true}},
		TotalScore:     5,
		Status:         status,
		Metadata:       Metadata{IPAddress: "127.0.0.1", UserAgent: "ua"},
		CreatedAt:      time.Now(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSQLStoreRoundtrip(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	ret := now.Add(10 * time.Second)
	sub := Submission{
		ID:               "s1",
		ExamID:           "e1",
		CandidateEmail:   "Mixed@Case.IO",
		CandidateName:    "Cand",
		Answers:          []Answer{{QuestionID: "q1", Answer: "X", MarksObtained: 5, IsGraded: true}},
		TotalScore:       5,
		MaxPossibleMarks: 10,
		Status:           StatusPending,
		SubmittedAt:      &now,
		Metadata: Metadata{
			IPAddress:      "10.0.0.1",
			UserAgent:      "ua",
			TabSwitchCount: 3,
			TotalAwayTime:  12.5,
			IsFlagged:      true,
			ViolationLogs: []Violation{
				{Type: ViolationTabHidden, Timestamp: now, Duration: 12.5, ReturnTime: &ret},
			},
		},
		CreatedAt: now,
	}
	if err := store.Create(ctx, sub); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CandidateEmail != "mixed@case.io" {
		t.Fatalf("email not lowercased on write: %q", got.CandidateEmail)
	}
	if got.Status != StatusPending || got.TotalScore != 5 || got.MaxPossibleMarks != 10 {
		t.Fatalf("scalar fields lost: %+v", got)
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(now) {
		t.Fatalf("submittedAt = %v, want %v", got.SubmittedAt, now)
	}
	if len(got.Answers) != 1 || got.Answers[0].MarksObtained != 5 {
		t.Fatalf("answers lost: %+v", got.Answers)
	}
	if len(got.Metadata.ViolationLogs) != 1 {
		t.Fatalf("violations lost: %+v", got.Metadata.ViolationLogs)
	}
	v := got.Metadata.ViolationLogs[0]
	if v.Type != ViolationTabHidden || v.Duration != 12.5 || v.ReturnTime == nil || !v.ReturnTime.Equal(ret) {
		t.Fatalf("violation mangled: %+v", v)
	}
}

func TestSQLStoreGetNotFound(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLStoreAppendViolationIncrements(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	seedSubmission(t, store, "s1", "e1", "a@b.c", StatusInProgress)

	count, away, err := store.AppendViolation(ctx, "s1", Violation{Type: ViolationTabHidden, Timestamp: time.Now(), Duration: 4})
	if err != nil {
		t.Fatalf("append #1: %v", err)
	}
	if count != 1 || away != 4 {
		t.Fatalf("after #1: count=%d away=%v, want 1/4", count, away)
	}
	count, away, err = store.AppendViolation(ctx, "s1", Violation{Type: ViolationReturned, Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("append #2: %v", err)
	}
	if count != 2 || away != 4 {
		t.Fatalf("after #2: count=%d away=%v, want 2/4", count, away)
	}

	got, _ := store.Get(ctx, "s1")
	if len(got.Metadata.ViolationLogs) != 2 {
		t.Fatalf("log rows = %d, want 2", len(got.Metadata.ViolationLogs))
	}
	if got.Metadata.ViolationLogs[0].Type != ViolationTabHidden || got.Metadata.ViolationLogs[1].Type != ViolationReturned {
		t.Fatalf("log order wrong: %+v", got.Metadata.ViolationLogs)
	}
}

func TestSQLStoreAppendViolationUnknownID(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	if _, _, err := store.AppendViolation(context.Background(), "ghost", Violation{Type: ViolationWindowBlur}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLStoreUpdateReplacesViolations(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	seedSubmission(t, store, "s1", "e1", "a@b.c", StatusInProgress)
	_, _, _ = store.AppendViolation(ctx, "s1", Violation{Type: ViolationWindowBlur, Timestamp: time.Now(), Duration: 1})

	sub, _ := store.Get(ctx, "s1")
	now := time.Now()
	sub.Status = StatusGraded
	sub.SubmittedAt = &now
	sub.Metadata.ViolationLogs = []Violation{
		{Type: ViolationTabHidden, Timestamp: now, Duration: 2},
		{Type: ViolationFullscreenExit, Timestamp: now},
	}
	if err := store.Update(ctx, sub); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if got.Status != StatusGraded {
		t.Fatalf("status = %s, want GRADED", got.Status)
	}
	if len(got.Metadata.ViolationLogs) != 2 || got.Metadata.ViolationLogs[1].Type != ViolationFullscreenExit {
		t.Fatalf("violations not replaced: %+v", got.Metadata.ViolationLogs)
	}
}

func TestSQLStoreUpdateUnknownID(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	err := store.Update(context.Background(), Submission{ID: "ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLStoreCountCompleted(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	seedSubmission(t, store, "s1", "e1", "person@corp.io", StatusGraded)
	seedSubmission(t, store, "s2", "e1", "Person@Corp.IO", StatusPending)
	seedSubmission(t, store, "s3", "e1", "person@corp.io", StatusInProgress) // draft, not an attempt
	seedSubmission(t, store, "s4", "e2", "person@corp.io", StatusGraded)     // other exam
	seedSubmission(t, store, "s5", "e1", "other@corp.io", StatusGraded)

	n, err := store.CountCompleted(ctx, "e1", "PERSON@corp.io")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2 (case-insensitive, drafts and other exams excluded)", n)
	}
}

func TestSQLStoreListByExamNewestFirst(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()

	older := time.Now().Add(-time.Minute).Truncate(time.Second)
	newer := time.Now().Truncate(time.Second)
	for _, row := range []struct {
		id string
		at time.Time
	}{
		{"s-old", older},
		{"s-new", newer},
	} {
		at := row.at
		err := store.Create(ctx, Submission{
			ID: row.id, ExamID: "e1", CandidateEmail: "a@b.c",
			Status: StatusGraded, SubmittedAt: &at, CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("create %s: %v", row.id, err)
		}
	}

	list, err := store.ListByExam(ctx, "e1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "s-new" || list[1].ID != "s-old" {
		t.Fatalf("order wrong: %+v", list)
	}
}

func TestSQLStoreDeleteCascadesViolations(t *testing.T) {
	store := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	seedSubmission(t, store, "s1", "e1", "a@b.c", StatusInProgress)
	_, _, _ = store.AppendViolation(ctx, "s1", Violation{Type: ViolationTabHidden, Timestamp: time.Now()})

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}

	var n int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM violations WHERE submission_id='s1'`).Scan(&n); err != nil {
		t.Fatalf("count violations: %v", err)
	}
	if n != 0 {
		t.Fatalf("violations survived delete: %d rows", n)
	}
}
