package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionSingleChoice      QuestionType = "single_choice"
	QuestionTrueFalseNotGiven QuestionType = "true_false_not_given"
	QuestionMatching          QuestionType = "matching"
	QuestionCompletion        QuestionType = "completion"
	QuestionShortAnswer       QuestionType = "short_answer"
	QuestionEssay             QuestionType = "essay"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionTrueFalseNotGiven, QuestionMatching,
		QuestionCompletion, QuestionShortAnswer, QuestionEssay:
		return true
	}
	return false
}

// Groupable types may carry sub-questions whose answers are submitted as a
// JSON object keyed by sub-question index.
func (t QuestionType) Groupable() bool {
	switch t {
	case QuestionTrueFalseNotGiven, QuestionMatching, QuestionCompletion, QuestionShortAnswer:
		return true
	}
	return false
}

// Question is one authored question group. When SubQuestions is empty the
// group itself is the single gradable item.
type Question struct {
	ID             uint                        `gorm:"primarykey" json:"id"`
	SectionID      uint                        `json:"section_id" gorm:"not null;index"`
	Type           QuestionType                `json:"type" gorm:"type:varchar(32);not null"`
	Prompt         string                      `json:"prompt" gorm:"type:text"`
	OrderInSection int                         `json:"order_in_section" gorm:"not null"`
	SubQuestions   datatypes.JSONSlice[string] `json:"sub_questions" gorm:"type:jsonb"`
	Options        datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correct_answers" gorm:"type:jsonb"`
	Points         float64                     `json:"points" gorm:"not null"`
	Explanation    string                      `json:"explanation,omitempty" gorm:"type:text"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	DeletedAt      gorm.DeletedAt              `gorm:"index" json:"-"`
}

// IsGrouped reports whether answers to the question are decoded as a
// sub-question map rather than a plain string.
func (q *Question) IsGrouped() bool {
	return q.Type.Groupable() && len(q.SubQuestions) > 0
}

// ItemCount is the number of individually gradable items the group
// contributes to a test total. Essays are not counted.
func (q *Question) ItemCount() int {
	if q.Type == QuestionEssay {
		return 0
	}
	if q.IsGrouped() {
		return len(q.SubQuestions)
	}
	return 1
}
