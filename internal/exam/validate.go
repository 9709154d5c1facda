package exam

import (
	"slices"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
)

// Validate enforces the write-time invariants of a definition. Definitions
// that pass are never rejected later at scoring time.
func Validate(d Definition) error {
	const op = "exam.Validate"
	if d.CourseID == "" {
		return apperr.Validation(op, "courseId is required")
	}
	if d.PassScore < 0 || d.PassScore > 100 {
		return apperr.Validation(op, "passScore must be between 0 and 100")
	}
	base, ok := d.Questions[DefaultLanguage]
	if !ok || len(base) == 0 {
		return apperr.Validation(op, "%q question set is required", DefaultLanguage)
	}
	for lang, qs := range d.Questions {
		if !slices.Contains(SupportedLanguages, lang) {
			return apperr.Validation(op, "unsupported language %q", lang)
		}
		if len(qs) != len(base) {
			return apperr.Validation(op, "%s has %d questions, %s has %d", lang, len(qs), DefaultLanguage, len(base))
		}
		for i, q := range qs {
			if len(q.Options) == 0 {
				return apperr.Validation(op, "%s question %d has no options", lang, i)
			}
			if q.CorrectIndex != nil && (*q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options)) {
				return apperr.Validation(op, "%s question %d: correct option %d out of range [0,%d)", lang, i, *q.CorrectIndex, len(q.Options))
			}
			if !sameIndex(q.CorrectIndex, base[i].CorrectIndex) {
				return apperr.Validation(op, "%s question %d disagrees with %s on the correct option", lang, i, DefaultLanguage)
			}
		}
	}
	return nil
}

func sameIndex(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
