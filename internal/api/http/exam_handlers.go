package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-academy/internal/exam"
)

// GET /exams/{courseId}?lang=en|ti
func GetExamHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, err := d.Exams.Definition(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		lang := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang")))
		if lang == "" {
			lang = exam.DefaultLanguage
		}
		qs, used := def.StudentView(lang)
		writeJSON(w, http.StatusOK, map[string]any{
			"courseId":  def.CourseID,
			"passScore": def.PassScore,
			"language":  used,
			"exam":      map[string]any{"questions": qs},
		})
	}
}

// GET /exams/status/{courseId}
func ExamStatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subjectOrReject(w, r, d)
		if !ok {
			return
		}
		st, err := d.Exams.Status(r.Context(), sub, chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

type submitExamRequest struct {
	Answers []int `json:"answers" validate:"required,min=1"`
}

// POST /exams/{courseId}/submit
func SubmitExamHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subjectOrReject(w, r, d)
		if !ok {
			return
		}
		var req submitExamRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		res, err := d.Exams.Submit(r.Context(), sub, chi.URLParam(r, "courseId"), req.Answers)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /exams/{courseId}/attempts lists the caller's own attempts, oldest first.
func ListOwnAttemptsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subjectOrReject(w, r, d)
		if !ok {
			return
		}
		list, err := d.Exams.Attempts(r.Context(), sub, chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list, "maxAttempts": d.Exams.MaxAttempts()})
	}
}
