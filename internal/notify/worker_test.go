package notify

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mahmudshamim/ExamFlow/internal/db"
	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

type fakeMailer struct {
	sent []Result
	err  error
}

func (f *fakeMailer) SendResult(_ context.Context, r Result) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func outboxStatus(t *testing.T, conn *sql.DB, submissionID string) (status string, attempts int) {
	t.Helper()
	err := conn.QueryRowContext(context.Background(),
		`SELECT status, attempts FROM email_outbox WHERE submission_id=$1`, submissionID).
		Scan(&status, &attempts)
	if err != nil {
		t.Fatalf("read outbox row: %v", err)
	}
	return status, attempts
}

func TestBuildResult(t *testing.T) {
	sub := submission.Submission{
		CandidateEmail:   "cand@corp.io",
		CandidateName:    "Cand",
		TotalScore:       7,
		MaxPossibleMarks: 10,
		Answers: []submission.Answer{
			{QuestionID: "q1", MarksObtained: 5, IsGraded: true},
			{QuestionID: "q2", MarksObtained: 2, IsGraded: true},
		},
	}
	ex := exam.Exam{Title: "Backend Screening"}
	questions := []exam.Question{
		{ID: "q1", Text: "Pick X", Marks: 5},
		{ID: "q2", Text: "Explain", Marks: 5},
		{ID: "q3", Text: "Skipped", Marks: 2},
	}

	r := BuildResult(sub, ex, questions)
	if r.To != "cand@corp.io" || r.ExamTitle != "Backend Screening" || r.Score != 7 || r.TotalMarks != 10 {
		t.Fatalf("header fields wrong: %+v", r)
	}
	if len(r.Breakdown) != 3 {
		t.Fatalf("breakdown = %d lines, want one per question", len(r.Breakdown))
	}
	if r.Breakdown[0].Number != 1 || r.Breakdown[0].MarksObtained != 5 {
		t.Fatalf("line 1 wrong: %+v", r.Breakdown[0])
	}
	// Unanswered question shows a zero, ungraded line.
	if r.Breakdown[2].MarksObtained != 0 || r.Breakdown[2].Graded {
		t.Fatalf("unanswered line wrong: %+v", r.Breakdown[2])
	}
}

func TestQueueEnqueueAndPending(t *testing.T) {
	conn := openTestDB(t)
	q := NewQueue(conn)
	ctx := context.Background()

	r := Result{To: "a@b.c", ExamTitle: "T", Score: 3, TotalMarks: 5}
	if err := q.Enqueue(ctx, "s1", r); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	tasks, err := q.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("pending = %d tasks, want 1", len(tasks))
	}
	if tasks[0].SubmissionID != "s1" || tasks[0].Result.To != "a@b.c" || tasks[0].Result.Score != 3 {
		t.Fatalf("task payload wrong: %+v", tasks[0])
	}
}

func TestWorkerDrainMarksSent(t *testing.T) {
	conn := openTestDB(t)
	q := NewQueue(conn)
	m := &fakeMailer{}
	w := NewWorker(q, m, time.Minute, 3)
	ctx := context.Background()

	_ = q.Enqueue(ctx, "s1", Result{To: "a@b.c"})
	_ = q.Enqueue(ctx, "s2", Result{To: "d@e.f"})
	w.Drain(ctx)

	if len(m.sent) != 2 {
		t.Fatalf("delivered = %d, want 2", len(m.sent))
	}
	for _, id := range []string{"s1", "s2"} {
		status, attempts := outboxStatus(t, conn, id)
		if status != taskSent || attempts != 1 {
			t.Fatalf("%s: status=%s attempts=%d, want sent/1", id, status, attempts)
		}
	}
	// Nothing left for the next tick.
	tasks, _ := q.Pending(ctx, 10)
	if len(tasks) != 0 {
		t.Fatalf("pending after drain = %d, want 0", len(tasks))
	}
}

func TestWorkerRetriesThenParksFailed(t *testing.T) {
	conn := openTestDB(t)
	q := NewQueue(conn)
	m := &fakeMailer{err: errors.New("smtp down")}
	w := NewWorker(q, m, time.Minute, 2)
	ctx := context.Background()

	_ = q.Enqueue(ctx, "s1", Result{To: "a@b.c"})

	w.Drain(ctx)
	status, attempts := outboxStatus(t, conn, "s1")
	if status != taskPending || attempts != 1 {
		t.Fatalf("after attempt 1: status=%s attempts=%d, want pending/1", status, attempts)
	}

	w.Drain(ctx)
	status, attempts = outboxStatus(t, conn, "s1")
	if status != taskFailed || attempts != 2 {
		t.Fatalf("after attempt 2: status=%s attempts=%d, want failed/2", status, attempts)
	}

	// Parked rows are never retried.
	m.err = nil
	w.Drain(ctx)
	if len(m.sent) != 0 {
		t.Fatalf("failed row was retried: %+v", m.sent)
	}
}

func TestWorkerRecoversAfterTransientFailure(t *testing.T) {
	conn := openTestDB(t)
	q := NewQueue(conn)
	m := &fakeMailer{err: errors.New("timeout")}
	w := NewWorker(q, m, time.Minute, 5)
	ctx := context.Background()

	_ = q.Enqueue(ctx, "s1", Result{To: "a@b.c"})
	w.Drain(ctx)
	m.err = nil
	w.Drain(ctx)

	status, attempts := outboxStatus(t, conn, "s1")
	if status != taskSent || attempts != 2 {
		t.Fatalf("status=%s attempts=%d, want sent/2", status, attempts)
	}
	if len(m.sent) != 1 {
		t.Fatalf("delivered = %d, want 1", len(m.sent))
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	conn := openTestDB(t)
	w := NewWorker(NewQueue(conn), &fakeMailer{}, 5*time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
