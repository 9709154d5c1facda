// Package catalog answers the two questions the engines ask about course
// content: which course ids exist and how many lessons a course has.
package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/db"
)

type Lesson struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Catalog is what the progress tracker needs from lesson content.
type Catalog interface {
	TotalLessons(ctx context.Context, courseID string) (int, error)
}

// CourseSet is the fixed list of course ids the service accepts.
type CourseSet struct {
	ids   map[string]struct{}
	order []string
}

func NewCourseSet(ids []string) CourseSet {
	cs := CourseSet{ids: map[string]struct{}{}}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := cs.ids[id]; dup {
			continue
		}
		cs.ids[id] = struct{}{}
		cs.order = append(cs.order, id)
	}
	return cs
}

func (c CourseSet) Known(id string) bool {
	_, ok := c.ids[id]
	return ok
}

func (c CourseSet) IDs() []string {
	return append([]string(nil), c.order...)
}

type SQLCatalog struct {
	db *sql.DB
}

func NewSQLCatalog(dbh *sql.DB) *SQLCatalog {
	return &SQLCatalog{db: dbh}
}

func (c *SQLCatalog) TotalLessons(ctx context.Context, courseID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM course_lessons WHERE course_id=$1`, courseID).Scan(&n)
	if err != nil {
		return 0, apperr.Storage("catalog.TotalLessons", err)
	}
	return n, nil
}

func (c *SQLCatalog) ListLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT lesson_index, title FROM course_lessons WHERE course_id=$1 ORDER BY lesson_index`, courseID)
	if err != nil {
		return nil, apperr.Storage("catalog.ListLessons", err)
	}
	defer rows.Close()

	out := []Lesson{}
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.Index, &l.Title); err != nil {
			return nil, apperr.Storage("catalog.ListLessons", err)
		}
		out = append(out, l)
	}
	return out, apperr.Storage("catalog.ListLessons", rows.Err())
}

// ReplaceLessons swaps the whole ordered lesson list of a course.
func (c *SQLCatalog) ReplaceLessons(ctx context.Context, courseID string, titles []string) error {
	err := db.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM course_lessons WHERE course_id=$1`, courseID); err != nil {
			return err
		}
		for i, title := range titles {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO course_lessons (course_id, lesson_index, title) VALUES ($1,$2,$3)`,
				courseID, i, strings.TrimSpace(title)); err != nil {
				return err
			}
		}
		return nil
	})
	return apperr.Storage("catalog.ReplaceLessons", err)
}
