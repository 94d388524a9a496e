package grading

import "github.com/lshigami/bandwise/internal/model"

// GradeResult is the verdict for one question group. Correct has one entry
// per gradable item: a single element for ungrouped questions, one per
// sub-question otherwise, and none for essays.
type GradeResult struct {
	Correct []bool
	// PointsEarned is all-or-nothing for single answers. Grouped awards are
	// left to the aggregator.
	PointsEarned float64
	Malformed    bool
}

type Grader struct {
	matcher Matcher
}

func NewGrader(matcher Matcher) *Grader {
	if matcher == nil {
		matcher = ExactMatcher{}
	}
	return &Grader{matcher: matcher}
}

// Grade decodes raw and grades it. An empty raw string counts as unanswered.
func (g *Grader) Grade(q *model.Question, raw string) GradeResult {
	return g.GradeAnswer(q, DecodeAnswer(q, raw, raw != ""))
}

// GradeAnswer grades an already decoded answer. It never fails: anything
// it cannot interpret is simply incorrect.
func (g *Grader) GradeAnswer(q *model.Question, ans Answer) GradeResult {
	if q.Type == model.QuestionEssay {
		return GradeResult{}
	}

	if ans.Kind == SingleAnswer {
		ok := ans.Present && len(q.CorrectAnswers) > 0 && g.matcher.Match(ans.Single, q.CorrectAnswers[0])
		res := GradeResult{Correct: []bool{ok}}
		if ok {
			res.PointsEarned = q.Points
		}
		return res
	}

	res := GradeResult{Correct: make([]bool, len(q.SubQuestions)), Malformed: ans.Malformed}
	for i := range q.SubQuestions {
		given, ok := ans.Grouped[i]
		if !ok || i >= len(q.CorrectAnswers) {
			continue
		}
		res.Correct[i] = g.matcher.Match(given, q.CorrectAnswers[i])
	}
	return res
}
