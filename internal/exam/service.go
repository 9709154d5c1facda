package exam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/grading"
	"github.com/mind-engage/mindengage-academy/internal/platform/logger"
)

const DefaultMaxAttempts = 3

const EventExamSubmitted = "ExamSubmitted"

// Engine scores submissions and owns the attempt history.
type Engine struct {
	defs        DefinitionStore
	attempts    AttemptStore
	cache       DefinitionCache
	events      EventRecorder
	maxAttempts int
	log         *logger.Logger
	now         func() time.Time
	loads       singleflight.Group
}

type Option func(*Engine)

// WithMaxAttempts sets the per-(user, course) attempt limit; n <= 0 keeps the default.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}
func WithCache(c DefinitionCache) Option    { return func(e *Engine) { e.cache = c } }
func WithEvents(r EventRecorder) Option     { return func(e *Engine) { e.events = r } }
func WithLogger(l *logger.Logger) Option    { return func(e *Engine) { e.log = l } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(defs DefinitionStore, attempts AttemptStore, opts ...Option) *Engine {
	e := &Engine{
		defs:        defs,
		attempts:    attempts,
		maxAttempts: DefaultMaxAttempts,
		log:         logger.Nop(),
		now:         time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) MaxAttempts() int { return e.maxAttempts }

// PutDefinition validates and stores a definition, then drops any cached copy.
func (e *Engine) PutDefinition(ctx context.Context, d Definition) (Definition, error) {
	if err := Validate(d); err != nil {
		return Definition{}, err
	}
	d.UpdatedAt = e.now().UTC()
	if err := e.defs.PutDefinition(ctx, d); err != nil {
		return Definition{}, err
	}
	if e.cache != nil {
		if err := e.cache.DeleteDefinition(ctx, d.CourseID); err != nil {
			e.log.Warn("exam definition cache invalidation failed", "course_id", d.CourseID, "error", err)
		}
	}
	e.log.Info("exam definition stored", "course_id", d.CourseID, "pass_score", d.PassScore)
	return d, nil
}

// Definition loads a decoded definition, going through the cache when one is configured.
func (e *Engine) Definition(ctx context.Context, courseID string) (Definition, error) {
	if e.cache != nil {
		d, ok, err := e.cache.GetDefinition(ctx, courseID)
		if err != nil {
			e.log.Warn("exam definition cache read failed", "course_id", courseID, "error", err)
		} else if ok {
			return d, nil
		}
	}

	// The load is shared by every caller waiting on courseID, so it must not
	// inherit one caller's cancellation. Each caller still honors its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := e.loads.DoChan(courseID, func() (any, error) {
		d, err := e.defs.GetDefinition(loadCtx, courseID)
		if err != nil {
			return Definition{}, err
		}
		if e.cache != nil {
			if err := e.cache.SetDefinition(loadCtx, d); err != nil {
				e.log.Warn("exam definition cache write failed", "course_id", courseID, "error", err)
			}
		}
		return d, nil
	})
	select {
	case <-ctx.Done():
		return Definition{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Definition{}, res.Err
		}
		return res.Val.(Definition), nil
	}
}

// Submit grades answers against the course exam and appends an attempt.
//
// The attempt count check and the insert are separate statements, so two
// concurrent submits at count == max-1 can both be recorded.
func (e *Engine) Submit(ctx context.Context, userID, courseID string, answers []int) (SubmitResult, error) {
	const op = "exam.Submit"
	def, err := e.Definition(ctx, courseID)
	if err != nil {
		return SubmitResult{}, err
	}

	count, err := e.attempts.CountAttempts(ctx, userID, courseID)
	if err != nil {
		return SubmitResult{}, err
	}
	if count >= e.maxAttempts {
		e.log.Warn("exam attempt limit reached", "user_id", userID, "course_id", courseID, "attempts", count, "max_attempts", e.maxAttempts)
		return SubmitResult{}, &AttemptLimitError{AttemptCount: count, MaxAttempts: e.maxAttempts}
	}

	questions := def.gradingQuestions()
	if resolvable(questions) == 0 {
		e.log.Error("exam definition has no resolvable questions",
			"course_id", courseID, "questions", len(questions))
		return SubmitResult{}, apperr.Wrap(op, apperr.ErrExamUnscoreable, "exam definition cannot be scored", grading.ErrNoResolvableQuestions)
	}

	res, err := grading.Score(questions, answers, def.PassScore)
	if errors.Is(err, grading.ErrNoResolvableQuestions) {
		// the definition is fine; the answers stop before its first scoreable question
		return SubmitResult{}, apperr.Wrap(op, apperr.ErrValidation,
			fmt.Sprintf("answers cover %d of %d questions and none of them can be scored", len(answers), len(questions)), err)
	}
	if err != nil {
		return SubmitResult{}, err
	}

	a, err := e.attempts.AppendAttempt(ctx, Attempt{
		UserID:    userID,
		CourseID:  courseID,
		Score:     res.Score,
		Passed:    res.Passed,
		Results:   res.Items,
		CreatedAt: e.now().UTC(),
	})
	if err != nil {
		return SubmitResult{}, err
	}
	e.log.Info("exam attempt recorded",
		"user_id", userID, "course_id", courseID, "attempt_id", a.ID,
		"score", a.Score, "passed", a.Passed, "attempt_number", count+1)
	e.record(ctx, EventExamSubmitted, userID+"/"+courseID, a)

	return SubmitResult{
		Score:     res.Score,
		Passed:    res.Passed,
		PassScore: def.PassScore,
		Results:   res.Items,
		AttemptID: a.ID,
	}, nil
}

// Status never fails for a user without attempts; it returns zero values.
func (e *Engine) Status(ctx context.Context, userID, courseID string) (Status, error) {
	count, err := e.attempts.CountAttempts(ctx, userID, courseID)
	if err != nil {
		return Status{}, err
	}
	st := Status{AttemptCount: count, MaxAttempts: e.maxAttempts}
	latest, ok, err := e.attempts.LatestAttempt(ctx, userID, courseID)
	if err != nil {
		return Status{}, err
	}
	if ok {
		score := latest.Score
		st.LatestScore = &score
		st.LatestPassed = latest.Passed
	}
	return st, nil
}

func (e *Engine) Attempts(ctx context.Context, userID, courseID string) ([]Attempt, error) {
	return e.attempts.ListAttempts(ctx, userID, courseID)
}

func resolvable(qs []grading.Q) int {
	n := 0
	for _, q := range qs {
		if q.CorrectIndex != nil {
			n++
		}
	}
	return n
}

func (e *Engine) record(ctx context.Context, typ, key string, data any) {
	if e.events == nil {
		return
	}
	if err := e.events.Record(ctx, typ, key, data); err != nil {
		e.log.Warn("event log append failed", "type", typ, "key", key, "error", err)
	}
}
