package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
	"github.com/mind-engage/mindengage-academy/internal/certificate"
	"github.com/mind-engage/mindengage-academy/internal/exam"
	"github.com/mind-engage/mindengage-academy/internal/platform/logger"
)

const (
	codeValidation   = "validation_failed"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeAttemptLimit = "attempt_limit_exceeded"
	codeNotEligible  = "not_eligible"
	codeUnscoreable  = "exam_unscoreable"
	codeStorage      = "storage_unavailable"
	codeInternal     = "internal"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an engine error onto a status code and the
// {error, code, ...details} envelope. Storage details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	if log == nil {
		log = logger.Nop()
	}
	var (
		limit *exam.AttemptLimitError
		ne    *certificate.NotEligibleError
	)
	switch {
	case errors.As(err, &limit):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":        "attempt limit reached",
			"code":         codeAttemptLimit,
			"attemptCount": limit.AttemptCount,
			"maxAttempts":  limit.MaxAttempts,
		})
	case errors.As(err, &ne):
		el := ne.Eligibility
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":            "not eligible for a certificate yet",
			"code":             codeNotEligible,
			"eligible":         false,
			"totalLessons":     el.TotalLessons,
			"completedLessons": el.CompletedLessons,
			"examPassed":       el.ExamPassed,
			"examScore":        el.ExamScore,
		})
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, envelope(messageOf(err, "invalid request"), codeValidation))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, envelope("unauthorized", codeUnauthorized))
	case errors.Is(err, apperr.ErrForbidden):
		writeJSON(w, http.StatusForbidden, envelope("forbidden", codeForbidden))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope(messageOf(err, "not found"), codeNotFound))
	case errors.Is(err, apperr.ErrExamUnscoreable):
		log.Error("unscoreable exam reached a learner", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope("this exam cannot be scored right now", codeUnscoreable))
	case errors.Is(err, apperr.ErrStorageUnavailable):
		log.Error("storage unavailable", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, envelope("temporarily unavailable, try again", codeStorage))
	default:
		log.Error("unhandled error", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope("internal error", codeInternal))
	}
}

func envelope(msg, code string) map[string]any {
	return map[string]any{"error": msg, "code": code}
}

func messageOf(err error, fallback string) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
