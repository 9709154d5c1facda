package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/mind-engage/mindengage-academy/internal/auth/middleware"
	"github.com/mind-engage/mindengage-academy/internal/catalog"
	"github.com/mind-engage/mindengage-academy/internal/certificate"
	"github.com/mind-engage/mindengage-academy/internal/db/dbtest"
	"github.com/mind-engage/mindengage-academy/internal/exam"
	"github.com/mind-engage/mindengage-academy/internal/progress"
	"github.com/mind-engage/mindengage-academy/internal/rbac"
	syncx "github.com/mind-engage/mindengage-academy/internal/sync"
)

type testServer struct {
	t      *testing.T
	router chi.Router
}

// asUser stands in for the JWT middleware: the X-Test-Sub and X-Test-Role
// headers become the request principal.
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authmw.WithSubject(r.Context(), r.Header.Get("X-Test-Sub"))
		ctx = rbac.WithRole(ctx, r.Header.Get("X-Test-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dbh := dbtest.Open(t)
	cat := catalog.NewSQLCatalog(dbh)
	tracker := progress.NewTracker(progress.NewSQLStore(dbh), cat)
	examStore := exam.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh, "")
	exams := exam.NewEngine(examStore, examStore, exam.WithEvents(events))
	certs := certificate.NewEngine(certificate.NewSQLStore(dbh), tracker, exams, certificate.WithEvents(events))

	r := chi.NewRouter()
	r.Use(asUser)
	Mount(r, Deps{
		Progress:  tracker,
		Exams:     exams,
		Certs:     certs,
		Catalog:   cat,
		Events:    events,
		Courses:   catalog.NewCourseSet([]string{"foundation", "advanced"}),
		PublicURL: "https://academy.test",
	})
	return &testServer{t: t, router: r}
}

func (s *testServer) do(method, path, sub, role, body string) (int, map[string]any) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body)).WithContext(context.Background())
	req.Header.Set("X-Test-Sub", sub)
	req.Header.Set("X-Test-Role", role)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (s *testServer) student(method, path, body string) (int, map[string]any) {
	return s.do(method, path, "learner-1", "student", body)
}

func (s *testServer) admin(method, path, body string) (int, map[string]any) {
	return s.do(method, path, "root", "admin", body)
}

func (s *testServer) seedFoundation() {
	s.t.Helper()
	code, _ := s.admin(http.MethodPut, "/admin/courses/foundation/lessons", `{"count":2}`)
	require.Equal(s.t, http.StatusOK, code)
	code, body := s.admin(http.MethodPut, "/admin/exams/foundation", `{"passScore":70,"questions":{
		"en":[
			{"prompt":"1+1","options":["1","2"],"correctIndex":1},
			{"prompt":"capital","options":[{"text":"Asmara","correct":true},{"text":"Rome"}]},
			{"prompt":"3","options":["a","b"],"answer":"0"},
			{"prompt":"4","options":["a","b"],"answerIndex":0},
			{"prompt":"5","options":["a","b"],"correctIndex":0}
		],
		"ti":[
			{"prompt":"1+1 ti","options":["1","2"],"correctIndex":1},
			{"prompt":"capital ti","options":["Asmara","Rome"],"correctIndex":0},
			{"prompt":"3 ti","options":["a","b"],"correctIndex":0},
			{"prompt":"4 ti","options":["a","b"],"correctIndex":0},
			{"prompt":"5 ti","options":["a","b"],"correctIndex":0}
		]}}`)
	require.Equal(s.t, http.StatusOK, code, body)
}

func TestLearnerJourney(t *testing.T) {
	s := newTestServer(t)
	s.seedFoundation()

	code, body := s.student(http.MethodPost, "/progress/update", `{"courseId":"foundation","lessonIndex":0,"completed":true,"quizScore":90}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["ok"])

	code, body = s.student(http.MethodGet, "/certificates/status/foundation", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["eligible"])
	assert.Equal(t, float64(2), body["totalLessons"])
	assert.Equal(t, float64(1), body["completedLessons"])
	assert.Equal(t, false, body["examPassed"])
	assert.Equal(t, false, body["issued"])

	code, body = s.student(http.MethodPost, "/certificates/claim", `{"courseId":"foundation"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "not_eligible", body["code"])

	code, _ = s.student(http.MethodPost, "/progress/update", `{"courseId":"foundation","lessonIndex":1,"completed":true}`)
	require.Equal(t, http.StatusOK, code)

	code, body = s.student(http.MethodPost, "/exams/foundation/submit", `{"answers":[1,0,0,0,1]}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(80), body["score"])
	assert.Equal(t, true, body["passed"])
	assert.Equal(t, float64(70), body["passScore"])
	assert.Len(t, body["results"], 5)

	code, body = s.student(http.MethodPost, "/certificates/claim", `{"courseId":"foundation"}`)
	require.Equal(t, http.StatusOK, code, body)
	cert := body["certificate"].(map[string]any)
	id := cert["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "https://academy.test/certificates/"+id+".pdf", body["pdfUrl"])

	code, body = s.student(http.MethodPost, "/certificates/claim", `{"courseId":"foundation"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, cert, body["certificate"])

	code, body = s.student(http.MethodGet, "/certificates/status/foundation", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["eligible"])
	assert.Equal(t, float64(80), body["examScore"])
	assert.Equal(t, true, body["issued"])
	assert.Equal(t, "https://academy.test/certificates/"+id, body["viewUrl"])

	code, body = s.admin(http.MethodGet, "/admin/events", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 2)
}

func TestExamFetchStripsAnswersAndLocalizes(t *testing.T) {
	s := newTestServer(t)
	s.seedFoundation()

	code, body := s.student(http.MethodGet, "/exams/foundation?lang=ti", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ti", body["language"])
	qs := body["exam"].(map[string]any)["questions"].([]any)
	require.Len(t, qs, 5)
	first := qs[0].(map[string]any)
	assert.Equal(t, "1+1 ti", first["prompt"])
	assert.NotContains(t, first, "correctIndex")

	code, body = s.student(http.MethodGet, "/exams/foundation?lang=xx", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "en", body["language"])

	code, _ = s.student(http.MethodGet, "/exams/advanced", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestExamStatusAndAttemptLimit(t *testing.T) {
	s := newTestServer(t)
	s.seedFoundation()

	code, body := s.student(http.MethodGet, "/exams/status/foundation", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["attemptCount"])
	assert.Equal(t, float64(3), body["maxAttempts"])
	assert.Nil(t, body["score"])
	assert.Equal(t, false, body["passed"])

	for i := 0; i < 3; i++ {
		code, _ := s.student(http.MethodPost, "/exams/foundation/submit", `{"answers":[0,1,1,1,1]}`)
		require.Equal(t, http.StatusOK, code)
	}
	code, body = s.student(http.MethodPost, "/exams/foundation/submit", `{"answers":[1,0,0,0,0]}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "attempt_limit_exceeded", body["code"])
	assert.Equal(t, float64(3), body["attemptCount"])
	assert.Equal(t, float64(3), body["maxAttempts"])

	code, body = s.student(http.MethodGet, "/exams/foundation/attempts", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 3)
}

func TestRequestRejections(t *testing.T) {
	s := newTestServer(t)
	s.seedFoundation()

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		body   string
		code   int
	}{
		{"unknown course path", http.MethodGet, "/progress/course/nope", "student", "", http.StatusNotFound},
		{"unknown course body", http.MethodPost, "/progress/update", "student", `{"courseId":"nope","lessonIndex":0}`, http.StatusNotFound},
		{"negative lesson", http.MethodPost, "/progress/update", "student", `{"courseId":"foundation","lessonIndex":-1}`, http.StatusBadRequest},
		{"missing lesson", http.MethodPost, "/progress/update", "student", `{"courseId":"foundation"}`, http.StatusBadRequest},
		{"quiz out of range", http.MethodPost, "/progress/update", "student", `{"courseId":"foundation","lessonIndex":0,"quizScore":101}`, http.StatusBadRequest},
		{"lesson past end", http.MethodPost, "/progress/update", "student", `{"courseId":"foundation","lessonIndex":2}`, http.StatusNotFound},
		{"bad json", http.MethodPost, "/exams/foundation/submit", "student", `{`, http.StatusBadRequest},
		{"empty answers", http.MethodPost, "/exams/foundation/submit", "student", `{"answers":[]}`, http.StatusBadRequest},
		{"student defines exam", http.MethodPut, "/admin/exams/foundation", "student", `{"passScore":1,"questions":{}}`, http.StatusForbidden},
		{"no role", http.MethodGet, "/exams/status/foundation", "", "", http.StatusForbidden},
		{"answer out of bounds", http.MethodPut, "/admin/exams/foundation", "admin", `{"passScore":50,"questions":{"en":[{"prompt":"p","options":["a"],"correctIndex":1}]}}`, http.StatusBadRequest},
		{"lessons without count", http.MethodPut, "/admin/courses/foundation/lessons", "admin", `{}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := s.do(tc.method, tc.path, "learner-1", tc.role, tc.body)
			assert.Equal(t, tc.code, code, body)
		})
	}
}

func TestMissingSubjectIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(http.MethodGet, "/exams/status/foundation", "", "student", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body["code"])
}

func TestAdminLessonTitles(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.admin(http.MethodPut, "/admin/courses/advanced/lessons", `{"titles":["Intro","Deep dive","Wrap up"]}`)
	require.Equal(t, http.StatusOK, code)

	code, body := s.admin(http.MethodGet, "/admin/courses/advanced/lessons", "")
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "Deep dive", items[1].(map[string]any)["title"])

	code, body = s.student(http.MethodGet, "/progress/course/advanced", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["totalLessons"])
	assert.Equal(t, float64(0), body["completedLessons"])
}
