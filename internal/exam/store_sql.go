package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/grading"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutDefinition(ctx context.Context, d Definition) error {
	qj, err := EncodeQuestionSets(d.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exam_definitions (course_id,pass_score,questions_json,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (course_id) DO UPDATE SET pass_score=EXCLUDED.pass_score, questions_json=EXCLUDED.questions_json, updated_at=EXCLUDED.updated_at`,
		d.CourseID, d.PassScore, string(qj), d.UpdatedAt.UnixMilli())
	return apperr.Storage("exam.PutDefinition", err)
}

func (s *SQLStore) GetDefinition(ctx context.Context, courseID string) (Definition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT pass_score,questions_json,updated_at FROM exam_definitions WHERE course_id=$1`, courseID)
	var (
		d       = Definition{CourseID: courseID}
		qjson   string
		updated int64
	)
	if err := row.Scan(&d.PassScore, &qjson, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Definition{}, apperr.NotFound("exam.GetDefinition", "no exam for course %s", courseID)
		}
		return Definition{}, apperr.Storage("exam.GetDefinition", err)
	}
	qs, err := DecodeQuestionSets([]byte(qjson))
	if err != nil {
		return Definition{}, err
	}
	d.Questions = qs
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return d, nil
}

func (s *SQLStore) CountAttempts(ctx context.Context, userID, courseID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exam_attempts WHERE user_id=$1 AND course_id=$2`, userID, courseID).Scan(&n)
	return n, apperr.Storage("exam.CountAttempts", err)
}

func (s *SQLStore) LatestAttempt(ctx context.Context, userID, courseID string) (Attempt, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,score,passed,results_json,created_at FROM exam_attempts
		WHERE user_id=$1 AND course_id=$2 ORDER BY id DESC LIMIT 1`, userID, courseID)
	a, err := scanAttempt(row, userID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, false, nil
	}
	if err != nil {
		return Attempt{}, false, apperr.Storage("exam.LatestAttempt", err)
	}
	return a, true, nil
}

func (s *SQLStore) AppendAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	buf, err := json.Marshal(a.Results)
	if err != nil {
		return Attempt{}, err
	}
	// RETURNING works on postgres and on sqlite >= 3.35 (modernc ships newer)
	err = s.db.QueryRowContext(ctx, `INSERT INTO exam_attempts (user_id,course_id,score,passed,results_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		a.UserID, a.CourseID, a.Score, a.Passed, string(buf), a.CreatedAt.UnixMilli()).Scan(&a.ID)
	if err != nil {
		return Attempt{}, apperr.Storage("exam.AppendAttempt", err)
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, userID, courseID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,score,passed,results_json,created_at FROM exam_attempts
		WHERE user_id=$1 AND course_id=$2 ORDER BY id`, userID, courseID)
	if err != nil {
		return nil, apperr.Storage("exam.ListAttempts", err)
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows, userID, courseID)
		if err != nil {
			return nil, apperr.Storage("exam.ListAttempts", err)
		}
		out = append(out, a)
	}
	return out, apperr.Storage("exam.ListAttempts", rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner, userID, courseID string) (Attempt, error) {
	a := Attempt{UserID: userID, CourseID: courseID}
	var (
		rjson   string
		created int64
	)
	if err := row.Scan(&a.ID, &a.Score, &a.Passed, &rjson, &created); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(rjson), &a.Results); err != nil {
		a.Results = []grading.Item{}
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	return a, nil
}
