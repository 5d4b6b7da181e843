package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutExam(ctx context.Context, e Exam, questions []Question) error {
	sj, err := json.Marshal(e.Settings)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO exams
		(id,owner_id,title,description,cover_image,start_time,end_time,duration_min,passing_marks,status,settings_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.OwnerID, e.Title, e.Description, e.CoverImage,
		e.StartTime.Unix(), e.EndTime.Unix(), e.Duration, e.PassingMarks, e.Status,
		string(sj), time.Now().Unix())
	if err != nil {
		return err
	}
	if err := insertQuestions(ctx, tx, e.ID, questions); err != nil {
		return err
	}
	return tx.Commit()
}

func insertQuestions(ctx context.Context, tx *sql.Tx, examID string, questions []Question) error {
	for i, q := range questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		oj, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO questions
			(id,exam_id,text,type,options_json,correct_answer,marks,negative_marking,required,position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			q.ID, examID, q.Text, q.Type, string(oj), q.CorrectAnswer,
			q.Marks, q.NegativeMarking, q.Required, i)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,owner_id,title,description,cover_image,start_time,end_time,duration_min,passing_marks,status,settings_json,created_at
		FROM exams WHERE id=$1`, id)
	return scanExam(row)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanExam(row rowScanner) (Exam, error) {
	var e Exam
	var start, end, created int64
	var sj string
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.CoverImage,
		&start, &end, &e.Duration, &e.PassingMarks, &e.Status, &sj, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}
	e.StartTime = time.Unix(start, 0).UTC()
	e.EndTime = time.Unix(end, 0).UTC()
	e.CreatedAt = time.Unix(created, 0).UTC()
	if err := json.Unmarshal([]byte(sj), &e.Settings); err != nil {
		return Exam{}, fmt.Errorf("settings for exam %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]Exam, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	query := `SELECT id,owner_id,title,description,cover_image,start_time,end_time,duration_min,passing_marks,status,settings_json,created_at
		FROM exams`
	args := []any{}
	if opts.OwnerID != "" {
		query += ` WHERE owner_id=$1`
		args = append(args, opts.OwnerID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateExam(ctx context.Context, e Exam, questions []Question) error {
	sj, err := json.Marshal(e.Settings)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE exams SET
		title=$1, description=$2, cover_image=$3, start_time=$4, end_time=$5,
		duration_min=$6, passing_marks=$7, status=$8, settings_json=$9
		WHERE id=$10`,
		e.Title, e.Description, e.CoverImage, e.StartTime.Unix(), e.EndTime.Unix(),
		e.Duration, e.PassingMarks, e.Status, string(sj), e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	// Reconcile the question set: keep IDs the payload still carries,
	// update those rows, insert the rest, delete everything else.
	existing := map[string]bool{}
	rows, err := tx.QueryContext(ctx, `SELECT id FROM questions WHERE exam_id=$1`, e.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	kept := map[string]bool{}
	for i, q := range questions {
		oj, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		if q.ID != "" && existing[q.ID] {
			kept[q.ID] = true
			_, err = tx.ExecContext(ctx, `UPDATE questions SET
				text=$1, type=$2, options_json=$3, correct_answer=$4,
				marks=$5, negative_marking=$6, required=$7, position=$8
				WHERE id=$9`,
				q.Text, q.Type, string(oj), q.CorrectAnswer,
				q.Marks, q.NegativeMarking, q.Required, i, q.ID)
		} else {
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			kept[q.ID] = true
			_, err = tx.ExecContext(ctx, `INSERT INTO questions
				(id,exam_id,text,type,options_json,correct_answer,marks,negative_marking,required,position)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
				q.ID, e.ID, q.Text, q.Type, string(oj), q.CorrectAnswer,
				q.Marks, q.NegativeMarking, q.Required, i)
		}
		if err != nil {
			return err
		}
	}
	for id := range existing {
		if !kept[id] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	// Questions go via ON DELETE CASCADE; submissions are left in place
	// deliberately (an explicit admin cleanup exists for those).
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) PatchSettings(ctx context.Context, id string, settings Settings) error {
	sj, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE exams SET settings_json=$1 WHERE id=$2`, string(sj), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, examID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,exam_id,text,type,options_json,correct_answer,marks,negative_marking,required,position
		FROM questions WHERE exam_id=$1 ORDER BY position`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var oj string
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &q.Type, &oj, &q.CorrectAnswer,
			&q.Marks, &q.NegativeMarking, &q.Required, &q.Position); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(oj), &q.Options); err != nil {
			return nil, fmt.Errorf("options for question %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
