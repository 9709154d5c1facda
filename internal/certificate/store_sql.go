package certificate

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
)

type Store interface {
	// Get returns ok=false when the user holds no certificate for the course.
	Get(ctx context.Context, userID, courseID string) (Certificate, bool, error)
	// InsertIfAbsent reports inserted=false when a row for (user, course)
	// already existed; the existing row is left untouched.
	InsertIfAbsent(ctx context.Context, c Certificate) (inserted bool, err error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, userID, courseID string) (Certificate, bool, error) {
	c := Certificate{UserID: userID, CourseID: courseID}
	var issued int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, issued_at FROM certificates WHERE user_id=$1 AND course_id=$2`,
		userID, courseID).Scan(&c.ID, &issued)
	if errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, false, nil
	}
	if err != nil {
		return Certificate{}, false, apperr.Storage("certificate.Get", err)
	}
	c.IssuedAt = time.UnixMilli(issued).UTC()
	return c, true, nil
}

func (s *SQLStore) InsertIfAbsent(ctx context.Context, c Certificate) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO certificates (id, user_id, course_id, issued_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		c.ID, c.UserID, c.CourseID, c.IssuedAt.UnixMilli())
	if err != nil {
		return false, apperr.Storage("certificate.InsertIfAbsent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("certificate.InsertIfAbsent", err)
	}
	return n == 1, nil
}
