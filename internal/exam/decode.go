package exam

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-academy/internal/apperr"
)

// Stored questions have used several shapes for "the correct option" over
// time. DecodeQuestionSets maps all of them onto Question.CorrectIndex so
// scoring never has to look at raw fields:
//
//	{"correctIndex": 2}                       explicit index (also answerIndex, correct, answer)
//	{"options": [{"text":"a","correct":true}]} boolean per option (also isCorrect)
//	{"answer": "2"}                            index encoded as a string
//
// Resolvers run in that order; the first one that yields an index wins.

var indexKeys = []string{"correctIndex", "answerIndex", "correct", "answer"}

type rawQuestion struct {
	fields  map[string]json.RawMessage
	options []json.RawMessage
}

type resolver struct {
	name string
	fn   func(rawQuestion) (int, bool)
}

var resolvers = []resolver{
	{"index", resolveIndexField},
	{"option-flags", resolveOptionFlags},
	{"string-index", resolveStringIndex},
}

// DecodeQuestionSets parses {"<lang>": [question, ...]} and resolves every
// question's correct option.
func DecodeQuestionSets(data []byte) (map[string][]Question, error) {
	var sets map[string][]json.RawMessage
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("exam: decode question sets: %w", err)
	}
	out := make(map[string][]Question, len(sets))
	for lang, raws := range sets {
		key := strings.ToLower(strings.TrimSpace(lang))
		if _, dup := out[key]; dup {
			return nil, apperr.Validation("exam.DecodeQuestionSets", "language %q appears more than once", key)
		}
		qs := make([]Question, 0, len(raws))
		for i, raw := range raws {
			q, err := decodeQuestion(raw)
			if err != nil {
				return nil, fmt.Errorf("exam: %s question %d: %w", lang, i, err)
			}
			qs = append(qs, q)
		}
		out[key] = qs
	}
	return out, nil
}

// EncodeQuestionSets writes the canonical shape, which decodes back unchanged.
func EncodeQuestionSets(sets map[string][]Question) ([]byte, error) {
	return json.Marshal(sets)
}

func decodeQuestion(raw json.RawMessage) (Question, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Question{}, err
	}
	rq := rawQuestion{fields: fields}
	if opts, ok := fields["options"]; ok && !isNull(opts) {
		if err := json.Unmarshal(opts, &rq.options); err != nil {
			return Question{}, fmt.Errorf("options: %w", err)
		}
	}

	q := Question{Prompt: firstString(fields, "prompt", "question", "text")}
	for i, o := range rq.options {
		text, err := optionText(o)
		if err != nil {
			return Question{}, fmt.Errorf("option %d: %w", i, err)
		}
		q.Options = append(q.Options, text)
	}
	q.CorrectIndex = resolveCorrect(rq)
	return q, nil
}

func resolveCorrect(rq rawQuestion) *int {
	for _, r := range resolvers {
		if idx, ok := r.fn(rq); ok {
			return &idx
		}
	}
	return nil
}

func resolveIndexField(rq rawQuestion) (int, bool) {
	for _, k := range indexKeys {
		raw, ok := rq.fields[k]
		if !ok || isNull(raw) {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		if f != math.Trunc(f) {
			continue
		}
		return int(f), true
	}
	return 0, false
}

func resolveOptionFlags(rq rawQuestion) (int, bool) {
	found := -1
	for i, o := range rq.options {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(o, &obj); err != nil {
			continue
		}
		for _, k := range []string{"correct", "isCorrect"} {
			var b bool
			if raw, ok := obj[k]; ok && json.Unmarshal(raw, &b) == nil && b {
				if found >= 0 && found != i {
					// more than one flagged option is not a single answer
					return 0, false
				}
				found = i
			}
		}
	}
	return found, found >= 0
}

func resolveStringIndex(rq rawQuestion) (int, bool) {
	for _, k := range indexKeys {
		raw, ok := rq.fields[k]
		if !ok || isNull(raw) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

func optionText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("option must be a string or an object")
	}
	return firstString(obj, "text", "label"), nil
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		var s string
		if raw, ok := fields[k]; ok && json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
