package progress

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/catalog"
	"github.com/mind-engage/mindengage-academy/internal/platform/logger"
)

// Tracker owns lesson completion state.
type Tracker struct {
	store    Store
	catalog  catalog.Catalog
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }
func WithLogger(l *logger.Logger) Option    { return func(t *Tracker) { t.log = l } }

func NewTracker(store Store, cat catalog.Catalog, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		catalog:  cat,
		validate: validator.New(),
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// RecordProgress creates or merges the record for one lesson. Replaying the
// same patch leaves the merged fields unchanged.
func (t *Tracker) RecordProgress(ctx context.Context, userID, courseID string, lessonIndex int, p Patch) error {
	const op = "progress.RecordProgress"
	if lessonIndex < 0 {
		return apperr.Validation(op, "lessonIndex must be >= 0")
	}
	if err := t.validate.Struct(p); err != nil {
		return apperr.Wrap(op, apperr.ErrValidation, "invalid patch", err)
	}
	total, err := t.catalog.TotalLessons(ctx, courseID)
	if err != nil {
		return err
	}
	if lessonIndex >= total {
		return apperr.NotFound(op, "lesson %d not found in course %s", lessonIndex, courseID)
	}
	if err := t.store.Upsert(ctx, userID, courseID, lessonIndex, p, t.now()); err != nil {
		return err
	}
	t.log.Debug("lesson progress recorded",
		"user_id", userID, "course_id", courseID, "lesson_index", lessonIndex,
		"completed", p.Completed != nil && *p.Completed)
	return nil
}

func (t *Tracker) CourseProgress(ctx context.Context, userID, courseID string) (CourseProgress, error) {
	total, err := t.catalog.TotalLessons(ctx, courseID)
	if err != nil {
		return CourseProgress{}, err
	}
	rows, err := t.store.ListForCourse(ctx, userID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}

	cp := CourseProgress{
		CourseID:      courseID,
		TotalLessons:  total,
		ByLessonIndex: make(map[int]LessonState, len(rows)),
	}
	for _, r := range rows {
		// rows left over from a since-shortened lesson list do not count
		if r.LessonIndex >= total {
			continue
		}
		cp.ByLessonIndex[r.LessonIndex] = LessonState{Completed: r.Completed, QuizScore: r.QuizScore}
		if r.Completed {
			cp.CompletedLessons++
		}
	}
	return cp, nil
}
