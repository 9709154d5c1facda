package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	err := Wrap("progress.Record", ErrStorageUnavailable, "write failed", sql.ErrConnDone)

	assert.True(t, errors.Is(err, ErrStorageUnavailable))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "progress.Record: write failed: sql: connection is already closed", err.Error())
}

func TestStorageKeepsNil(t *testing.T) {
	assert.NoError(t, Storage("op", nil))
}

func TestTransientVsPermanent(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Storage("exam.Status", errors.New("dial tcp: refused")))
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsPermanent(wrapped))

	limit := New("exam.Submit", ErrAttemptLimitExceeded, "")
	assert.True(t, IsPermanent(limit))
	assert.False(t, IsTransient(limit))
	assert.Equal(t, "exam.Submit: attempt limit exceeded", limit.Error())
}

func TestValidationFormats(t *testing.T) {
	err := Validation("progress.Record", "lessonIndex %d out of range", 7)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "lessonIndex 7 out of range")
}
