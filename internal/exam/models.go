package exam

import (
	"time"

	"github.com/mind-engage/mindengage-academy/internal/grading"
)

const (
	LangEnglish  = "en"
	LangTigrinya = "ti"

	// DefaultLanguage is the set scoring runs against and the fallback for
	// languages a definition does not carry.
	DefaultLanguage = LangEnglish
)

// SupportedLanguages lists the question-set languages a definition may carry.
var SupportedLanguages = []string{LangEnglish, LangTigrinya}

type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	// CorrectIndex is resolved once when the definition is decoded; nil when
	// the stored question does not name a usable correct option.
	CorrectIndex *int `json:"correctIndex,omitempty"`
}

// Definition is one course's final exam.
type Definition struct {
	CourseID  string                `json:"courseId"`
	PassScore int                   `json:"passScore"`
	Questions map[string][]Question `json:"questions"` // language -> ordered questions
	UpdatedAt time.Time             `json:"updatedAt"`
}

// QuestionsFor returns the set for lang, falling back to DefaultLanguage.
func (d Definition) QuestionsFor(lang string) ([]Question, string) {
	if qs, ok := d.Questions[lang]; ok {
		return qs, lang
	}
	return d.Questions[DefaultLanguage], DefaultLanguage
}

// StudentView strips correct answers.
func (d Definition) StudentView(lang string) ([]Question, string) {
	qs, used := d.QuestionsFor(lang)
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = Question{Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
	}
	return out, used
}

func (d Definition) gradingQuestions() []grading.Q {
	qs, _ := d.QuestionsFor(DefaultLanguage)
	out := make([]grading.Q, len(qs))
	for i, q := range qs {
		out[i] = grading.Q{CorrectIndex: q.CorrectIndex}
	}
	return out
}

// Attempt is one graded submission. Attempts are append-only: every submit
// adds a row, and the latest attempt is the one with the highest ID.
type Attempt struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"userId"`
	CourseID  string         `json:"courseId"`
	Score     int            `json:"score"`
	Passed    bool           `json:"passed"`
	Results   []grading.Item `json:"results"`
	CreatedAt time.Time      `json:"createdAt"`
}

type SubmitResult struct {
	Score     int            `json:"score"`
	Passed    bool           `json:"passed"`
	PassScore int            `json:"passScore"`
	Results   []grading.Item `json:"results"`
	AttemptID int64          `json:"attemptId"`
}

// Status is the read-only view of a user's attempts. LatestScore is nil when
// there is no attempt yet.
type Status struct {
	AttemptCount int  `json:"attemptCount"`
	MaxAttempts  int  `json:"maxAttempts"`
	LatestScore  *int `json:"score"`
	LatestPassed bool `json:"passed"`
}
