package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/exam"
)

type putExamRequest struct {
	PassScore *int `json:"passScore" validate:"required,min=0,max=100"`
	// Questions is {"<lang>": [question, ...]}; any stored answer shape is accepted.
	Questions json.RawMessage `json:"questions" validate:"required"`
}

// PUT /admin/exams/{courseId}
func PutExamHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putExamRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		sets, err := exam.DecodeQuestionSets(req.Questions)
		if err != nil {
			writeError(w, r, d.Log, apperr.Wrap("http.PutExam", apperr.ErrValidation, "questions are malformed", err))
			return
		}
		def, err := d.Exams.PutDefinition(r.Context(), exam.Definition{
			CourseID:  chi.URLParam(r, "courseId"),
			PassScore: *req.PassScore,
			Questions: sets,
		})
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		counts := map[string]int{}
		for lang, qs := range def.Questions {
			counts[lang] = len(qs)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":        true,
			"courseId":  def.CourseID,
			"passScore": def.PassScore,
			"questions": counts,
			"updatedAt": def.UpdatedAt,
		})
	}
}

type putLessonsRequest struct {
	Count  *int     `json:"count" validate:"required_without=Titles,omitempty,min=0,max=500"`
	Titles []string `json:"titles" validate:"omitempty,max=500,dive,max=200"`
}

// PUT /admin/courses/{courseId}/lessons  {count} or {titles:[...]}
func PutLessonsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putLessonsRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		titles := req.Titles
		if titles == nil {
			titles = make([]string, *req.Count)
			for i := range titles {
				titles[i] = fmt.Sprintf("Lesson %d", i+1)
			}
		}
		courseID := chi.URLParam(r, "courseId")
		if err := d.Catalog.ReplaceLessons(r.Context(), courseID, titles); err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		d.Log.Info("course lessons replaced", "course_id", courseID, "lessons", len(titles))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "courseId": courseID, "totalLessons": len(titles)})
	}
}

// GET /admin/courses/{courseId}/lessons
func ListLessonsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Catalog.ListLessons(r.Context(), chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

// GET /admin/events?after=0&limit=100
func ListEventsHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := d.Events.Since(r.Context(), after, limit)
		if err != nil {
			writeError(w, r, d.Log, err)
			return
		}
		next := after
		if n := len(list); n > 0 {
			next = list[n-1].Seq
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list, "next": next})
	}
}
