package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	authmw "github.com/mind-engage/mindengage-academy/internal/auth/middleware"
	"github.com/mind-engage/mindengage-academy/internal/progress"
)

type updateProgressRequest struct {
	CourseID    string  `json:"courseId" validate:"required"`
	LessonIndex *int    `json:"lessonIndex" validate:"required,min=0"`
	Completed   *bool   `json:"completed"`
	QuizScore   *int    `json:"quizScore" validate:"omitempty,min=0,max=100"`
	Reflection  *string `json:"reflection" validate:"omitempty,max=4000"`
}

func subjectOrReject(w http.ResponseWriter, r *http.Request, d Deps) (string, bool) {
	sub := authmw.SubjectFromContext(r.Context())
	if sub == "" {
		writeError(w, r, d.Log, apperr.New("http.subject", apperr.ErrUnauthorized, "missing subject"))
		return "", false
	}
	return sub, true
}

func notFoundCourse(courseID string) error {
	return apperr.NotFound("http.course", "unknown course %q", courseID)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap("http.decode", apperr.ErrValidation, "invalid JSON body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.Wrap("http.decode", apperr.ErrValidation, err.Error(), err)
	}
	return nil
}

// POST /progress/update
func UpdateProgressHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subjectOrReject(w, r, d)
		if !ok {
			return
		}
		var req updateProgressRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		if !d.courseGate(w, r, req.CourseID) {
			return
		}
		patch := progress.Patch{Completed: req.Completed, QuizScore: req.QuizScore, Reflection: req.Reflection}
		if err := d.Progress.RecordProgress(r.Context(), sub, req.CourseID, *req.LessonIndex, patch); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// GET /progress/course/{courseId}
func CourseProgressHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subjectOrReject(w, r, d)
		if !ok {
			return
		}
		cp, err := d.Progress.CourseProgress(r.Context(), sub, chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, cp)
	}
}
