package exam

import "context"

type DefinitionStore interface {
	PutDefinition(ctx context.Context, d Definition) error
	// GetDefinition returns apperr.ErrNotFound when the course has no exam.
	GetDefinition(ctx context.Context, courseID string) (Definition, error)
}

type AttemptStore interface {
	CountAttempts(ctx context.Context, userID, courseID string) (int, error)
	// LatestAttempt reports ok=false when the user has not attempted yet.
	LatestAttempt(ctx context.Context, userID, courseID string) (a Attempt, ok bool, err error)
	AppendAttempt(ctx context.Context, a Attempt) (Attempt, error)
	ListAttempts(ctx context.Context, userID, courseID string) ([]Attempt, error)
}

// DefinitionCache holds decoded definitions so correct-answer resolution
// happens once per load rather than once per submit.
type DefinitionCache interface {
	GetDefinition(ctx context.Context, courseID string) (d Definition, ok bool, err error)
	SetDefinition(ctx context.Context, d Definition) error
	DeleteDefinition(ctx context.Context, courseID string) error
}

// EventRecorder receives audit events. Failures are logged, not returned.
type EventRecorder interface {
	Record(ctx context.Context, typ, key string, data any) error
}
