package progress

import "time"

// LessonProgress is one (user, course, lesson) completion record.
type LessonProgress struct {
	UserID              string     `json:"user_id"`
	CourseID            string     `json:"course_id"`
	LessonIndex         int        `json:"lesson_index"`
	Completed           bool       `json:"completed"`
	QuizScore           *int       `json:"quiz_score,omitempty"`
	Reflection          *string    `json:"reflection,omitempty"`
	ReflectionUpdatedAt *time.Time `json:"reflection_updated_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Patch lists the fields a caller wants to change. nil means "leave as is";
// a non-nil empty Reflection clears the text and still bumps its timestamp.
type Patch struct {
	Completed  *bool   `json:"completed,omitempty"`
	QuizScore  *int    `json:"quizScore,omitempty" validate:"omitempty,min=0,max=100"`
	Reflection *string `json:"reflection,omitempty" validate:"omitempty,max=4000"`
}

type LessonState struct {
	Completed bool `json:"completed"`
	QuizScore *int `json:"quizScore"`
}

// CourseProgress is a read model; nothing here is stored as-is.
type CourseProgress struct {
	CourseID         string              `json:"courseId"`
	TotalLessons     int                 `json:"totalLessons"`
	CompletedLessons int                 `json:"completedLessons"`
	ByLessonIndex    map[int]LessonState `json:"byLessonIndex"`
}
