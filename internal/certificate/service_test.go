package certificate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/catalog"
	"github.com/mind-engage/mindengage-academy/internal/certificate"
	"github.com/mind-engage/mindengage-academy/internal/db/dbtest"
	"github.com/mind-engage/mindengage-academy/internal/exam"
	"github.com/mind-engage/mindengage-academy/internal/progress"
)

func ip(i int) *int   { return &i }
func bp(b bool) *bool { return &b }

type fixture struct {
	tracker *progress.Tracker
	exams   *exam.Engine
	certs   *certificate.Engine
	store   *certificate.SQLStore
	clock   *time.Time
}

func newFixture(t *testing.T, lessons int) *fixture {
	t.Helper()
	ctx := context.Background()
	dbh := dbtest.Open(t)

	cat := catalog.NewSQLCatalog(dbh)
	require.NoError(t, cat.ReplaceLessons(ctx, "foundation", make([]string, lessons)))

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	f := &fixture{clock: &now}
	clock := func() time.Time { return *f.clock }

	f.tracker = progress.NewTracker(progress.NewSQLStore(dbh), cat)
	examStore := exam.NewSQLStore(dbh)
	f.exams = exam.NewEngine(examStore, examStore)
	f.store = certificate.NewSQLStore(dbh)
	f.certs = certificate.NewEngine(f.store, f.tracker, f.exams, certificate.WithClock(clock))

	qs := make([]exam.Question, 5)
	for i := range qs {
		qs[i] = exam.Question{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: ip(0)}
	}
	_, err := f.exams.PutDefinition(ctx, exam.Definition{CourseID: "foundation", PassScore: 70, Questions: map[string][]exam.Question{"en": qs}})
	require.NoError(t, err)
	return f
}

func (f *fixture) complete(t *testing.T, user string, lesson int) {
	t.Helper()
	require.NoError(t, f.tracker.RecordProgress(context.Background(), user, "foundation", lesson, progress.Patch{Completed: bp(true)}))
}

func (f *fixture) passExam(t *testing.T, user string) {
	t.Helper()
	res, err := f.exams.Submit(context.Background(), user, "foundation", []int{0, 0, 0, 0, 1})
	require.NoError(t, err)
	require.Equal(t, 80, res.Score)
}

func TestEligibilityAndIssuanceLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)

	f.complete(t, "u1", 0)
	el, err := f.certs.Eligibility(ctx, "u1", "foundation")
	require.NoError(t, err)
	assert.Equal(t, certificate.Eligibility{Eligible: false, TotalLessons: 2, CompletedLessons: 1, ExamPassed: false}, el)

	f.complete(t, "u1", 1)
	f.passExam(t, "u1")
	el, err = f.certs.Eligibility(ctx, "u1", "foundation")
	require.NoError(t, err)
	assert.True(t, el.Eligible)
	assert.Equal(t, 2, el.CompletedLessons)
	assert.True(t, el.ExamPassed)
	require.NotNil(t, el.ExamScore)
	assert.Equal(t, 80, *el.ExamScore)

	first, err := f.certs.Ensure(ctx, "u1", "foundation")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, *f.clock, first.IssuedAt)

	*f.clock = f.clock.Add(time.Hour)
	again, err := f.certs.Ensure(ctx, "u1", "foundation")
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestEnsureBeforeEligibleWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	f.complete(t, "u1", 0)
	f.complete(t, "u1", 1)

	_, err := f.certs.Ensure(ctx, "u1", "foundation")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotEligible)
	var ne *certificate.NotEligibleError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 2, ne.Eligibility.CompletedLessons)
	assert.False(t, ne.Eligibility.ExamPassed)

	_, ok, err := f.store.Get(ctx, "u1", "foundation")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyCourseIsNeverEligible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	f.passExam(t, "u1")

	el, err := f.certs.Eligibility(ctx, "u1", "foundation")
	require.NoError(t, err)
	assert.False(t, el.Eligible)
	assert.True(t, el.ExamPassed)
}

func TestConcurrentEnsureIssuesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	f.complete(t, "u1", 0)
	f.passExam(t, "u1")

	const n = 8
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.certs.Ensure(ctx, "u1", "foundation")
			ids[i], errs[i] = c.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	stored, ok, err := f.store.Get(ctx, "u1", "foundation")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ids[0], stored.ID)
}

func TestExistingCertificateSurvivesLaterFailedAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	f.complete(t, "u1", 0)
	f.passExam(t, "u1")
	first, err := f.certs.Ensure(ctx, "u1", "foundation")
	require.NoError(t, err)

	_, err = f.exams.Submit(ctx, "u1", "foundation", []int{1, 1, 1, 1, 1})
	require.NoError(t, err)

	again, err := f.certs.Ensure(ctx, "u1", "foundation")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

type stubProgress struct{ err error }

func (s stubProgress) CourseProgress(context.Context, string, string) (progress.CourseProgress, error) {
	return progress.CourseProgress{}, s.err
}

type stubExams struct{}

func (stubExams) Status(context.Context, string, string) (exam.Status, error) {
	return exam.Status{}, nil
}

func TestEligibilityPropagatesStorageErrors(t *testing.T) {
	boom := apperr.Storage("progress.ListForCourse", errors.New("connection reset"))
	eng := certificate.NewEngine(certificate.NewSQLStore(dbtest.Open(t)), stubProgress{err: boom}, stubExams{})

	_, err := eng.Ensure(context.Background(), "u1", "foundation")
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	assert.True(t, apperr.IsTransient(err))
}
