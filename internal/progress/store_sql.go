package progress

import (
	"context"
	"database/sql"
	"time"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
)

type Store interface {
	Upsert(ctx context.Context, userID, courseID string, lessonIndex int, p Patch, now time.Time) error
	ListForCourse(ctx context.Context, userID, courseID string) ([]LessonProgress, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Upsert is a single statement: absent fields arrive as NULL (or false for
// completed) and the conflict clause keeps the stored value for them.
func (s *SQLStore) Upsert(ctx context.Context, userID, courseID string, lessonIndex int, p Patch, now time.Time) error {
	completed := p.Completed != nil && *p.Completed

	var quiz, reflectionAt any
	if p.QuizScore != nil {
		quiz = *p.QuizScore
	}
	var reflection any
	if p.Reflection != nil {
		reflection = *p.Reflection
		reflectionAt = now.UnixMilli()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lesson_progress
		  (user_id, course_id, lesson_index, completed, quiz_score, reflection, reflection_updated_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id, course_id, lesson_index) DO UPDATE SET
		  completed = lesson_progress.completed OR EXCLUDED.completed,
		  quiz_score = COALESCE(EXCLUDED.quiz_score, lesson_progress.quiz_score),
		  reflection = COALESCE(EXCLUDED.reflection, lesson_progress.reflection),
		  reflection_updated_at = COALESCE(EXCLUDED.reflection_updated_at, lesson_progress.reflection_updated_at),
		  updated_at = EXCLUDED.updated_at`,
		userID, courseID, lessonIndex, completed, quiz, reflection, reflectionAt, now.UnixMilli())
	return apperr.Storage("progress.Upsert", err)
}

func (s *SQLStore) ListForCourse(ctx context.Context, userID, courseID string) ([]LessonProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lesson_index, completed, quiz_score, reflection, reflection_updated_at, updated_at
		  FROM lesson_progress
		 WHERE user_id=$1 AND course_id=$2
		 ORDER BY lesson_index`, userID, courseID)
	if err != nil {
		return nil, apperr.Storage("progress.ListForCourse", err)
	}
	defer rows.Close()

	var out []LessonProgress
	for rows.Next() {
		var (
			lp           = LessonProgress{UserID: userID, CourseID: courseID}
			quiz         sql.NullInt64
			reflection   sql.NullString
			reflectionAt sql.NullInt64
			updatedAt    int64
		)
		if err := rows.Scan(&lp.LessonIndex, &lp.Completed, &quiz, &reflection, &reflectionAt, &updatedAt); err != nil {
			return nil, apperr.Storage("progress.ListForCourse", err)
		}
		if quiz.Valid {
			v := int(quiz.Int64)
			lp.QuizScore = &v
		}
		if reflection.Valid {
			v := reflection.String
			lp.Reflection = &v
		}
		if reflectionAt.Valid {
			ts := time.UnixMilli(reflectionAt.Int64).UTC()
			lp.ReflectionUpdatedAt = &ts
		}
		lp.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		out = append(out, lp)
	}
	return out, apperr.Storage("progress.ListForCourse", rows.Err())
}
