package certificate

import (
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
)

// Certificate is issued at most once per (user, course) and never revoked.
type Certificate struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	CourseID string    `json:"courseId"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Eligibility is derived on every read; it is never stored.
type Eligibility struct {
	Eligible         bool `json:"eligible"`
	TotalLessons     int  `json:"totalLessons"`
	CompletedLessons int  `json:"completedLessons"`
	ExamPassed       bool `json:"examPassed"`
	ExamScore        *int `json:"examScore"`
}

// NotEligibleError carries the snapshot that failed the check.
type NotEligibleError struct {
	Eligibility Eligibility
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible: %d/%d lessons completed, exam passed=%t",
		e.Eligibility.CompletedLessons, e.Eligibility.TotalLessons, e.Eligibility.ExamPassed)
}

func (e *NotEligibleError) Is(target error) bool { return target == apperr.ErrNotEligible }
