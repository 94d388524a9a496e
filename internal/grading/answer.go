package grading

import (
	"encoding/json"
	"strconv"

	"github.com/lshigami/bandwise/internal/model"
)

type AnswerKind int

const (
	SingleAnswer AnswerKind = iota
	GroupedAnswer
)

// Answer is a raw stored answer decoded once against the question it
// belongs to. Exactly one of Single or Grouped is meaningful, chosen by Kind.
type Answer struct {
	Kind    AnswerKind
	Single  string
	Grouped map[int]string

	// Present is false when the user left the question unanswered.
	Present bool
	// Malformed is set when a grouped answer was not a JSON object.
	Malformed bool
}

// DecodeAnswer turns the stored string into the tagged union. A grouped
// answer that fails to parse is returned empty with Malformed set; it is
// never an error.
func DecodeAnswer(q *model.Question, raw string, present bool) Answer {
	if !q.IsGrouped() {
		return Answer{Kind: SingleAnswer, Single: raw, Present: present}
	}

	ans := Answer{Kind: GroupedAnswer, Grouped: map[int]string{}, Present: present && raw != ""}
	if !ans.Present {
		return ans
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		ans.Malformed = true
		return ans
	}
	for key, value := range parsed {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			continue
		}
		// non-string values can never match an answer key
		if s, ok := value.(string); ok {
			ans.Grouped[idx] = s
		}
	}
	return ans
}

// Values lays the answer out per sub-question position for review. Missing
// positions are empty strings.
func (a Answer) Values(n int) []string {
	if a.Kind == SingleAnswer {
		return []string{a.Single}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = a.Grouped[i]
	}
	return out
}
