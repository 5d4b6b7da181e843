package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const submissionCols = `id,exam_id,candidate_email,candidate_name,answers_json,total_score,max_possible_marks,status,ip_address,user_agent,tab_switch_count,total_away_time,is_flagged,ended_by_policy,submitted_at,created_at`

func (s *SQLStore) Create(ctx context.Context, sub Submission) error {
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var submittedAt any
	if sub.SubmittedAt != nil {
		submittedAt = sub.SubmittedAt.Unix()
	}
	created := sub.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO submissions (`+submissionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		sub.ID, sub.ExamID, strings.ToLower(sub.CandidateEmail), sub.CandidateName,
		string(aj), sub.TotalScore, sub.MaxPossibleMarks, sub.Status,
		sub.Metadata.IPAddress, sub.Metadata.UserAgent,
		sub.Metadata.TabSwitchCount, sub.Metadata.TotalAwayTime,
		sub.Metadata.IsFlagged, sub.Metadata.EndedByPolicy,
		submittedAt, created.Unix())
	if err != nil {
		return err
	}
	if err := insertViolations(ctx, tx, sub.ID, sub.Metadata.ViolationLogs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertViolations(ctx context.Context, tx *sql.Tx, submissionID string, logs []Violation) error {
	for _, v := range logs {
		var ret any
		if v.ReturnTime != nil {
			ret = v.ReturnTime.Unix()
		}
		ts := v.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO violations (submission_id,type,ts,duration,return_time)
			VALUES ($1,$2,$3,$4,$5)`,
			submissionID, v.Type, ts.Unix(), v.Duration, ret)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		return Submission{}, err
	}
	logs, err := s.violations(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub.Metadata.ViolationLogs = logs
	return sub, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var aj string
	var submittedAt sql.NullInt64
	var created int64
	err := row.Scan(&sub.ID, &sub.ExamID, &sub.CandidateEmail, &sub.CandidateName,
		&aj, &sub.TotalScore, &sub.MaxPossibleMarks, &sub.Status,
		&sub.Metadata.IPAddress, &sub.Metadata.UserAgent,
		&sub.Metadata.TabSwitchCount, &sub.Metadata.TotalAwayTime,
		&sub.Metadata.IsFlagged, &sub.Metadata.EndedByPolicy,
		&submittedAt, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
		return Submission{}, fmt.Errorf("answers for submission %s: %w", sub.ID, err)
	}
	if submittedAt.Valid {
		t := time.Unix(submittedAt.Int64, 0).UTC()
		sub.SubmittedAt = &t
		sub.Metadata.SubmittedAt = &t
	}
	sub.CreatedAt = time.Unix(created, 0).UTC()
	return sub, nil
}

func (s *SQLStore) violations(ctx context.Context, submissionID string) ([]Violation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type,ts,duration,return_time FROM violations
		WHERE submission_id=$1 ORDER BY id`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Violation
	for rows.Next() {
		var v Violation
		var ts int64
		var ret sql.NullInt64
		if err := rows.Scan(&v.Type, &ts, &v.Duration, &ret); err != nil {
			return nil, err
		}
		v.Timestamp = time.Unix(ts, 0).UTC()
		if ret.Valid {
			t := time.Unix(ret.Int64, 0).UTC()
			v.ReturnTime = &t
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) Update(ctx context.Context, sub Submission) error {
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var submittedAt any
	if sub.SubmittedAt != nil {
		submittedAt = sub.SubmittedAt.Unix()
	}
	res, err := tx.ExecContext(ctx, `UPDATE submissions SET
		candidate_email=$1, candidate_name=$2, answers_json=$3,
		total_score=$4, max_possible_marks=$5, status=$6,
		tab_switch_count=$7, total_away_time=$8, is_flagged=$9, ended_by_policy=$10,
		submitted_at=$11
		WHERE id=$12`,
		strings.ToLower(sub.CandidateEmail), sub.CandidateName, string(aj),
		sub.TotalScore, sub.MaxPossibleMarks, sub.Status,
		sub.Metadata.TabSwitchCount, sub.Metadata.TotalAwayTime,
		sub.Metadata.IsFlagged, sub.Metadata.EndedByPolicy,
		submittedAt, sub.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM violations WHERE submission_id=$1`, sub.ID); err != nil {
		return err
	}
	if err := insertViolations(ctx, tx, sub.ID, sub.Metadata.ViolationLogs); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListByExam(ctx context.Context, examID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+submissionCols+` FROM submissions
		WHERE exam_id=$1
		ORDER BY COALESCE(submitted_at, created_at) DESC, created_at DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		logs, err := s.violations(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Metadata.ViolationLogs = logs
	}
	return out, nil
}

func (s *SQLStore) ReplaceAnswers(ctx context.Context, id string, answers []Answer) error {
	aj, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET answers_json=$1 WHERE id=$2`, string(aj), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendViolation increments the counters server-side in a single UPDATE,
// so two near-simultaneous events cannot race into a stale overwrite.
func (s *SQLStore) AppendViolation(ctx context.Context, id string, v Violation) (int, float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE submissions SET
		tab_switch_count = tab_switch_count + 1,
		total_away_time = total_away_time + $1
		WHERE id=$2`, v.Duration, id)
	if err != nil {
		return 0, 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, 0, ErrNotFound
	}
	if err := insertViolations(ctx, tx, id, []Violation{v}); err != nil {
		return 0, 0, err
	}

	var count int
	var away float64
	if err := tx.QueryRowContext(ctx, `SELECT tab_switch_count, total_away_time FROM submissions WHERE id=$1`, id).
		Scan(&count, &away); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return count, away, nil
}

func (s *SQLStore) CountCompleted(ctx context.Context, examID, email string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions
		WHERE exam_id=$1 AND candidate_email=$2 AND status != $3`,
		examID, strings.ToLower(email), StatusInProgress).Scan(&n)
	return n, err
}
