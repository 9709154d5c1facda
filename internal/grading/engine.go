package grading

import (
	"errors"
	"math"
)

// ErrNoResolvableQuestions means nothing in the scored window had a known
// correct option, so no percentage can be computed.
var ErrNoResolvableQuestions = errors.New("grading: no resolvable questions")

// Q is a minimal view of a single-choice question needed for grading.
// CorrectIndex is nil when the definition does not say which option is right.
type Q struct {
	CorrectIndex *int
}

// Item is the outcome for one answered position.
type Item struct {
	Index           int  `json:"index"`
	SubmittedChoice int  `json:"submittedChoice"`
	CorrectChoice   *int `json:"correctChoice"`
	IsCorrect       bool `json:"isCorrect"`
}

type Result struct {
	Correct    int    // numerator
	Resolvable int    // denominator
	Score      int    // 0..100
	Passed     bool   // Score >= pass score
	Items      []Item // one per scored position, in order
}

// Score grades answers position by position over min(len(questions), len(answers)).
// Trailing unanswered questions and questions without a resolvable correct
// option count toward neither Correct nor Resolvable.
func Score(questions []Q, answers []int, passScore int) (Result, error) {
	n := len(questions)
	if len(answers) < n {
		n = len(answers)
	}

	res := Result{Items: make([]Item, 0, n)}
	for i := 0; i < n; i++ {
		item := Item{Index: i, SubmittedChoice: answers[i]}
		if ci := questions[i].CorrectIndex; ci != nil {
			c := *ci
			item.CorrectChoice = &c
			item.IsCorrect = answers[i] == c
			res.Resolvable++
			if item.IsCorrect {
				res.Correct++
			}
		}
		res.Items = append(res.Items, item)
	}

	if res.Resolvable == 0 {
		return res, ErrNoResolvableQuestions
	}
	res.Score = Percent(res.Correct, res.Resolvable)
	res.Passed = res.Score >= passScore
	return res, nil
}

// Percent returns round(100*num/den), rounding halves away from zero.
func Percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Round(float64(100*num) / float64(den)))
}
