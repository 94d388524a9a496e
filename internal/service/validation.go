package service

import (
	"fmt"

	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/model"
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTest, fmt.Sprintf(format, args...))
}

// validateQuestionContent enforces the answer key shape: one correct answer
// per sub-question, or exactly one when there are none. Essays carry no key.
func validateQuestionContent(skill model.Skill, qType model.QuestionType, subs, options, correct []string) error {
	if !qType.Valid() {
		return invalidf("unknown question type %q", qType)
	}

	if qType == model.QuestionEssay {
		if skill.IsObjective() {
			return invalidf("essay questions are not allowed in a %s test", skill)
		}
		if len(subs) > 0 || len(correct) > 0 {
			return invalidf("essay questions take no sub-questions or correct answers")
		}
		return nil
	}

	if !skill.IsObjective() {
		return invalidf("%s tests only accept essay questions, got %q", skill, qType)
	}
	if qType == model.QuestionSingleChoice {
		if len(subs) > 0 {
			return invalidf("single_choice questions cannot have sub-questions")
		}
		if len(options) == 0 {
			return invalidf("single_choice questions need options")
		}
	}
	if len(subs) > 0 && len(correct) != len(subs) {
		return invalidf("%d sub-questions but %d correct answers", len(subs), len(correct))
	}
	if len(subs) == 0 && len(correct) != 1 {
		return invalidf("expected exactly one correct answer, got %d", len(correct))
	}
	return nil
}

// defaultPoints gives one point per gradable item.
func defaultPoints(qType model.QuestionType, subs int) float64 {
	if qType == model.QuestionEssay {
		return 0
	}
	if subs > 0 && qType.Groupable() {
		return float64(subs)
	}
	return 1
}

func pointsOrDefault(points *float64, qType model.QuestionType, subs int) float64 {
	if points != nil {
		return *points
	}
	return defaultPoints(qType, subs)
}

func validateTestCreate(req dto.TestCreateDTO) error {
	skill := model.Skill(req.Skill)
	if !skill.Valid() {
		return invalidf("unknown skill %q", req.Skill)
	}
	if len(req.Sections) == 0 {
		return invalidf("a test needs at least one section")
	}

	sectionOrders := make(map[int]bool)
	for _, sec := range req.Sections {
		if sectionOrders[sec.OrderInTest] {
			return invalidf("duplicate section order_in_test %d", sec.OrderInTest)
		}
		sectionOrders[sec.OrderInTest] = true

		questionOrders := make(map[int]bool)
		for _, q := range sec.Questions {
			if questionOrders[q.OrderInSection] {
				return invalidf("section %d: duplicate order_in_section %d", sec.OrderInTest, q.OrderInSection)
			}
			questionOrders[q.OrderInSection] = true

			if err := validateQuestionContent(skill, model.QuestionType(q.Type), q.SubQuestions, q.Options, q.CorrectAnswers); err != nil {
				return fmt.Errorf("section %d question %d: %w", sec.OrderInTest, q.OrderInSection, err)
			}
		}
	}
	return nil
}
