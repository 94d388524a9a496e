package grading

import (
	"slices"

	"github.com/lshigami/bandwise/internal/model"
)

// Submission is what the aggregator needs from a stored attempt.
type Submission struct {
	Answers    model.AnswerSheet
	HumanScore *float64
	AIScore    *float64
}

// WritingScores keeps both scoring origins. Display prefers the human score.
type WritingScores struct {
	HumanScore   *float64 `json:"human_score,omitempty"`
	AIScore      *float64 `json:"ai_score,omitempty"`
	DisplayScore *float64 `json:"display_score,omitempty"`
}

type Result struct {
	TestID             uint            `json:"test_id"`
	Title              string          `json:"title"`
	Skill              model.Skill     `json:"skill"`
	Level              string          `json:"level,omitempty"`
	TimeLimitMinutes   int             `json:"time_limit_minutes"`
	Score              float64         `json:"score"`
	RoundedBand        float64         `json:"rounded_band"`
	CorrectCount       int             `json:"correct_count"`
	TotalQuestionCount int             `json:"total_question_count"`
	PointsEarned       float64         `json:"points_earned"`
	TotalPoints        float64         `json:"total_points"`
	Writing            *WritingScores  `json:"writing,omitempty"`
	Sections           []SectionResult `json:"sections"`
	IgnoredAnswerIDs   []uint          `json:"ignored_answer_ids,omitempty"`
}

type SectionResult struct {
	SectionID   uint             `json:"section_id"`
	Title       string           `json:"title,omitempty"`
	OrderInTest int              `json:"order_in_test"`
	Passage     *string          `json:"passage,omitempty"`
	AudioURL    *string          `json:"audio_url,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Questions   []QuestionResult `json:"questions"`
}

type QuestionResult struct {
	QuestionID     uint               `json:"question_id"`
	Type           model.QuestionType `json:"type"`
	Prompt         string             `json:"prompt,omitempty"`
	OrderInSection int                `json:"order_in_section"`
	SubQuestions   []string           `json:"sub_questions,omitempty"`
	Options        []string           `json:"options,omitempty"`
	UserAnswers    []string           `json:"user_answers"`
	Correct        []bool             `json:"correct,omitempty"`
	CorrectAnswers []string           `json:"correct_answers,omitempty"`
	Answered       bool               `json:"answered"`
	Malformed      bool               `json:"malformed,omitempty"`
	Points         float64            `json:"points"`
	PointsEarned   float64            `json:"points_earned"`
	Explanation    string             `json:"explanation,omitempty"`
}

type Aggregator struct {
	grader *Grader
}

func NewAggregator(grader *Grader) *Aggregator {
	return &Aggregator{grader: grader}
}

// Aggregate grades every question group of the test against the submission
// and builds the review projection. It does not mutate its inputs.
func (a *Aggregator) Aggregate(test *model.Test, sub Submission) Result {
	res := Result{
		TestID:           test.ID,
		Title:            test.Title,
		Skill:            test.Skill,
		Level:            test.Level,
		TimeLimitMinutes: test.TimeLimitMinutes,
		Sections:         make([]SectionResult, 0, len(test.Sections)),
	}

	known := make(map[uint]struct{})
	for _, sec := range orderedSections(test.Sections) {
		secRes := SectionResult{
			SectionID:   sec.ID,
			Title:       sec.Title,
			OrderInTest: sec.OrderInTest,
			Passage:     sec.Passage,
			AudioURL:    sec.AudioURL,
			ImageURL:    sec.ImageURL,
			Questions:   make([]QuestionResult, 0, len(sec.Questions)),
		}
		for _, q := range orderedQuestions(sec.Questions) {
			known[q.ID] = struct{}{}
			qRes := a.gradeQuestion(&q, sub.Answers)
			res.CorrectCount += countTrue(qRes.Correct)
			res.TotalQuestionCount += q.ItemCount()
			if q.Type != model.QuestionEssay {
				res.TotalPoints += q.Points
				res.PointsEarned += qRes.PointsEarned
			}
			secRes.Questions = append(secRes.Questions, qRes)
		}
		res.Sections = append(res.Sections, secRes)
	}

	for id := range sub.Answers {
		if _, ok := known[id]; !ok {
			res.IgnoredAnswerIDs = append(res.IgnoredAnswerIDs, id)
		}
	}
	slices.Sort(res.IgnoredAnswerIDs)

	if test.Skill.IsObjective() {
		res.Score = BandFromCounts(res.CorrectCount, res.TotalQuestionCount)
	} else {
		res.Writing = writingScores(sub.HumanScore, sub.AIScore)
		if res.Writing.DisplayScore != nil {
			res.Score = *res.Writing.DisplayScore
		}
	}
	res.RoundedBand = RoundBand(res.Score)
	return res
}

func (a *Aggregator) gradeQuestion(q *model.Question, answers model.AnswerSheet) QuestionResult {
	raw, present := answers[q.ID]
	ans := DecodeAnswer(q, raw, present)
	verdict := a.grader.GradeAnswer(q, ans)

	qRes := QuestionResult{
		QuestionID:     q.ID,
		Type:           q.Type,
		Prompt:         q.Prompt,
		OrderInSection: q.OrderInSection,
		SubQuestions:   slices.Clone([]string(q.SubQuestions)),
		Options:        slices.Clone([]string(q.Options)),
		UserAnswers:    ans.Values(len(q.SubQuestions)),
		Correct:        verdict.Correct,
		CorrectAnswers: slices.Clone([]string(q.CorrectAnswers)),
		Answered:       ans.Present,
		Malformed:      verdict.Malformed,
		Points:         q.Points,
		PointsEarned:   verdict.PointsEarned,
		Explanation:    q.Explanation,
	}
	if ans.Kind == GroupedAnswer && len(q.SubQuestions) > 0 {
		qRes.PointsEarned = q.Points * float64(countTrue(verdict.Correct)) / float64(len(q.SubQuestions))
	}
	return qRes
}

func writingScores(human, ai *float64) *WritingScores {
	ws := &WritingScores{HumanScore: human, AIScore: ai}
	switch {
	case human != nil:
		ws.DisplayScore = human
	case ai != nil:
		ws.DisplayScore = ai
	}
	return ws
}

func orderedSections(in []model.Section) []model.Section {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b model.Section) int { return a.OrderInTest - b.OrderInTest })
	return out
}

func orderedQuestions(in []model.Question) []model.Question {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b model.Question) int { return a.OrderInSection - b.OrderInSection })
	return out
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
