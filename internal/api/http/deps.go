package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-academy/internal/catalog"
	"github.com/mind-engage/mindengage-academy/internal/certificate"
	"github.com/mind-engage/mindengage-academy/internal/exam"
	"github.com/mind-engage/mindengage-academy/internal/platform/logger"
	"github.com/mind-engage/mindengage-academy/internal/progress"
	"github.com/mind-engage/mindengage-academy/internal/rbac"
	syncx "github.com/mind-engage/mindengage-academy/internal/sync"
)

// Deps is everything the learner and admin handlers read from.
type Deps struct {
	Progress *progress.Tracker
	Exams    *exam.Engine
	Certs    *certificate.Engine
	Catalog  *catalog.SQLCatalog
	Events   *syncx.EventRepo
	Courses  catalog.CourseSet
	Log      *logger.Logger
	// PublicURL prefixes certificate links; empty yields relative links.
	PublicURL string
}

var validate = validator.New()

// Mount registers the authenticated routes. The caller installs the JWT
// middleware in front of r.
func Mount(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	gate := KnownCourse(d.Courses, d.Log)

	r.With(rbac.Require(rbac.PermProgressUpdate)).Post("/progress/update", UpdateProgressHandler(d))
	r.With(rbac.Require(rbac.PermProgressView), gate).Get("/progress/course/{courseId}", CourseProgressHandler(d))

	r.With(rbac.Require(rbac.PermExamView), gate).Get("/exams/status/{courseId}", ExamStatusHandler(d))
	r.With(rbac.Require(rbac.PermExamView), gate).Get("/exams/{courseId}", GetExamHandler(d))
	r.With(rbac.Require(rbac.PermExamView), gate).Get("/exams/{courseId}/attempts", ListOwnAttemptsHandler(d))
	r.With(rbac.Require(rbac.PermExamSubmit), gate).Post("/exams/{courseId}/submit", SubmitExamHandler(d))

	r.With(rbac.Require(rbac.PermCertificateView), gate).Get("/certificates/status/{courseId}", CertificateStatusHandler(d))
	r.With(rbac.Require(rbac.PermCertificateClaim)).Post("/certificates/claim", ClaimCertificateHandler(d))

	r.Route("/admin", func(ar chi.Router) {
		ar.With(rbac.Require(rbac.PermExamDefine), gate).Put("/exams/{courseId}", PutExamHandler(d))
		ar.With(rbac.Require(rbac.PermCourseDefine), gate).Put("/courses/{courseId}/lessons", PutLessonsHandler(d))
		ar.With(rbac.Require(rbac.PermCourseDefine), gate).Get("/courses/{courseId}/lessons", ListLessonsHandler(d))
		if d.Events != nil {
			ar.With(rbac.Require(rbac.PermEventsRead)).Get("/events", ListEventsHandler(d))
		}
	})
}

func (d Deps) courseGate(w http.ResponseWriter, r *http.Request, courseID string) bool {
	if d.Courses.Known(courseID) {
		return true
	}
	writeError(w, r, d.Log, notFoundCourse(courseID))
	return false
}
