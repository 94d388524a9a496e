package model

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	StatusSubmitted SubmissionStatus = "submitted"
	StatusGraded    SubmissionStatus = "graded"
)

// AnswerSheet maps a question group ID to the user's raw answer. Grouped
// answers are JSON-encoded objects keyed by sub-question index.
type AnswerSheet map[uint]string

// RubricScore holds the four IELTS writing criteria, each on the 0-9 band.
type RubricScore struct {
	TaskResponse         float64 `json:"task_response"`
	CoherenceAndCohesion float64 `json:"coherence_and_cohesion"`
	LexicalResource      float64 `json:"lexical_resource"`
	GrammaticalRange     float64 `json:"grammatical_range"`
}

type RubricFeedback struct {
	TaskResponse         string `json:"task_response"`
	CoherenceAndCohesion string `json:"coherence_and_cohesion"`
	LexicalResource      string `json:"lexical_resource"`
	GrammaticalRange     string `json:"grammatical_range"`
}

// WritingAssessment is one grading pass, either by an examiner or by the AI
// grader. A nil Rubric means the pass has not happened.
type WritingAssessment struct {
	Rubric   *RubricScore    `json:"rubric,omitempty"`
	Feedback *RubricFeedback `json:"feedback,omitempty"`
	Comment  string          `json:"comment,omitempty"`
	GradedBy string          `json:"graded_by,omitempty"`
	GradedAt *time.Time      `json:"graded_at,omitempty"`
}

func (a WritingAssessment) Present() bool {
	return a.Rubric != nil
}

// Submission is one attempt by one user at one test. The composite unique
// index makes a second attempt fail at the database. Revision counts answer
// replacements; a grading pass only lands on the revision it graded.
type Submission struct {
	ID              uint                                  `gorm:"primarykey" json:"id"`
	TestID          uint                                  `json:"test_id" gorm:"not null;uniqueIndex:idx_submissions_test_user"`
	Test            Test                                  `json:"test,omitempty" gorm:"foreignKey:TestID"`
	UserID          uint                                  `json:"user_id" gorm:"not null;uniqueIndex:idx_submissions_test_user;index"`
	Answers         datatypes.JSONType[AnswerSheet]       `json:"answers" gorm:"type:jsonb;not null"`
	Revision        uint                                  `json:"-" gorm:"not null;default:0"`
	Score           *float64                              `json:"score,omitempty"`
	Feedback        string                                `json:"feedback,omitempty" gorm:"type:text"`
	Status          SubmissionStatus                      `json:"status" gorm:"type:varchar(16);default:'submitted'"`
	HumanScore      *float64                              `json:"human_score,omitempty"`
	AIScore         *float64                              `json:"ai_score,omitempty"`
	HumanAssessment datatypes.JSONType[WritingAssessment] `json:"human_assessment" gorm:"type:jsonb"`
	AIAssessment    datatypes.JSONType[WritingAssessment] `json:"ai_assessment" gorm:"type:jsonb"`
	SubmittedAt     time.Time                             `json:"submitted_at" gorm:"autoCreateTime"`
	GradedAt        *time.Time                            `json:"graded_at,omitempty"`
	CreatedAt       time.Time                             `json:"created_at"`
	UpdatedAt       time.Time                             `json:"updated_at"`
}
