package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mahmudshamim/ExamFlow/internal/exam"
	"github.com/mahmudshamim/ExamFlow/internal/submission"
)

// Outbox row states.
const (
	taskPending = "pending"
	taskSent    = "sent"
	taskFailed  = "failed"
)

type Task struct {
	ID           int64
	SubmissionID string
	Result       Result
	Attempts     int
}

// Queue is the email outbox. Enqueue happens inside the request path
// after the submission row is committed; everything else belongs to the
// worker.
type Queue struct {
	db *sql.DB
}

func NewQueue(db *sql.DB) *Queue { return &Queue{db: db} }

// EnqueueResult satisfies submission.Notifier.
func (q *Queue) EnqueueResult(ctx context.Context, sub submission.Submission, ex exam.Exam, questions []exam.Question) error {
	return q.Enqueue(ctx, sub.ID, BuildResult(sub, ex, questions))
}

func (q *Queue) Enqueue(ctx context.Context, submissionID string, r Result) error {
	pj, err := json.Marshal(r)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err = q.db.ExecContext(ctx, `INSERT INTO email_outbox
		(submission_id,recipient,payload_json,status,attempts,created_at,updated_at)
		VALUES ($1,$2,$3,$4,0,$5,$6)`,
		submissionID, r.To, string(pj), taskPending, now, now)
	return err
}

func (q *Queue) Pending(ctx context.Context, limit int) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id,submission_id,payload_json,attempts
		FROM email_outbox WHERE status=$1 ORDER BY id LIMIT $2`, taskPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		var pj string
		if err := rows.Scan(&t.ID, &t.SubmissionID, &pj, &t.Attempts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(pj), &t.Result); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queue) MarkSent(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE email_outbox
		SET status=$1, attempts=attempts+1, last_error='', updated_at=$2 WHERE id=$3`,
		taskSent, time.Now().Unix(), id)
	return err
}

// MarkFailed records the error; the row stays pending until the attempt
// budget is spent, then it is parked as failed.
func (q *Queue) MarkFailed(ctx context.Context, id int64, errMsg string, maxAttempts int) error {
	_, err := q.db.ExecContext(ctx, `UPDATE email_outbox
		SET status = CASE WHEN attempts+1 >= $1 THEN $2 ELSE $3 END,
		    attempts = attempts+1, last_error=$4, updated_at=$5
		WHERE id=$6`,
		maxAttempts, taskFailed, taskPending, errMsg, time.Now().Unix(), id)
	return err
}
