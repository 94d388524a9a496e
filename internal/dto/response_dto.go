package dto

import (
	"time"

	"github.com/lshigami/bandwise/internal/grading"
	"github.com/lshigami/bandwise/internal/model"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// SubmissionResultDTO is the review view of one submission: the graded
// test projection plus the stored submission metadata.
type SubmissionResultDTO struct {
	SubmissionID    uint                     `json:"submission_id"`
	UserID          uint                     `json:"user_id"`
	Status          string                   `json:"status"`
	Feedback        string                   `json:"feedback,omitempty"`
	SubmittedAt     time.Time                `json:"submitted_at"`
	GradedAt        *time.Time               `json:"graded_at,omitempty"`
	HumanAssessment *model.WritingAssessment `json:"human_assessment,omitempty"`
	AIAssessment    *model.WritingAssessment `json:"ai_assessment,omitempty"`
	// RegradedScore is set when the answer key was edited after an objective
	// submission was graded. Score keeps the recorded value.
	RegradedScore *float64 `json:"regraded_score,omitempty"`
	grading.Result
}

// SubmissionSummaryDTO is one row of a user's submission history.
type SubmissionSummaryDTO struct {
	ID          uint       `json:"id"`
	TestID      uint       `json:"test_id"`
	TestTitle   string     `json:"test_title"`
	Skill       string     `json:"skill"`
	Status      string     `json:"status"`
	Score       *float64   `json:"score,omitempty"`
	RoundedBand *float64   `json:"rounded_band,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
