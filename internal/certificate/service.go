package certificate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/exam"
	"github.com/mind-engage/mindengage-academy/internal/platform/logger"
	"github.com/mind-engage/mindengage-academy/internal/progress"
)

const EventCertificateIssued = "CertificateIssued"

type ProgressReader interface {
	CourseProgress(ctx context.Context, userID, courseID string) (progress.CourseProgress, error)
}

type ExamStatusReader interface {
	Status(ctx context.Context, userID, courseID string) (exam.Status, error)
}

type EventRecorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}

// Engine derives eligibility from progress and exam state and issues
// certificates. It only reads the other engines.
type Engine struct {
	store    Store
	progress ProgressReader
	exams    ExamStatusReader
	events   EventRecorder
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Engine)

func WithEvents(r EventRecorder) Option     { return func(e *Engine) { e.events = r } }
func WithLogger(l *logger.Logger) Option    { return func(e *Engine) { e.log = l } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(store Store, pr ProgressReader, er ExamStatusReader, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		progress: pr,
		exams:    er,
		log:      logger.Nop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Eligibility reads progress and exam status concurrently. A course with no
// lessons is never eligible.
func (e *Engine) Eligibility(ctx context.Context, userID, courseID string) (Eligibility, error) {
	var (
		cp progress.CourseProgress
		st exam.Status
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cp, err = e.progress.CourseProgress(gctx, userID, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		st, err = e.exams.Status(gctx, userID, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Eligibility{}, err
	}

	el := Eligibility{
		TotalLessons:     cp.TotalLessons,
		CompletedLessons: cp.CompletedLessons,
		ExamPassed:       st.LatestPassed,
		ExamScore:        st.LatestScore,
	}
	el.Eligible = el.TotalLessons > 0 && el.CompletedLessons >= el.TotalLessons && el.ExamPassed
	return el, nil
}

// Get returns the stored certificate, if any.
func (e *Engine) Get(ctx context.Context, userID, courseID string) (Certificate, bool, error) {
	return e.store.Get(ctx, userID, courseID)
}

// Ensure returns the user's certificate for the course, issuing it when the
// user is eligible. An existing certificate is returned as stored even if the
// user would no longer qualify. Concurrent calls converge on one row.
func (e *Engine) Ensure(ctx context.Context, userID, courseID string) (Certificate, error) {
	const op = "certificate.Ensure"
	if c, ok, err := e.store.Get(ctx, userID, courseID); err != nil {
		return Certificate{}, err
	} else if ok {
		return c, nil
	}

	el, err := e.Eligibility(ctx, userID, courseID)
	if err != nil {
		return Certificate{}, err
	}
	if !el.Eligible {
		return Certificate{}, &NotEligibleError{Eligibility: el}
	}

	inserted, err := e.store.InsertIfAbsent(ctx, Certificate{
		ID:       e.newID(),
		UserID:   userID,
		CourseID: courseID,
		IssuedAt: e.now().UTC(),
	})
	if err != nil {
		return Certificate{}, err
	}

	c, ok, err := e.store.Get(ctx, userID, courseID)
	if err != nil {
		return Certificate{}, err
	}
	if !ok {
		return Certificate{}, apperr.New(op, apperr.ErrStorageUnavailable, "certificate missing after insert")
	}
	if inserted {
		e.log.Info("certificate issued", "user_id", userID, "course_id", courseID, "certificate_id", c.ID)
		if err := e.recordIssued(ctx, c); err != nil {
			e.log.Warn("event log append failed", "type", EventCertificateIssued, "certificate_id", c.ID, "error", err)
		}
	}
	return c, nil
}

func (e *Engine) recordIssued(ctx context.Context, c Certificate) error {
	if e.events == nil {
		return nil
	}
	return e.events.Record(ctx, EventCertificateIssued, c.UserID+"/"+c.CourseID, c)
}
