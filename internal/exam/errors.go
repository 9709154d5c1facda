package exam

import (
	"fmt"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
)

// AttemptLimitError is returned by Submit when the user has used every attempt.
type AttemptLimitError struct {
	AttemptCount int
	MaxAttempts  int
}

func (e *AttemptLimitError) Error() string {
	return fmt.Sprintf("exam: attempt limit exceeded (%d/%d)", e.AttemptCount, e.MaxAttempts)
}

func (e *AttemptLimitError) Is(target error) bool {
	return target == apperr.ErrAttemptLimitExceeded
}
