package service

import (
	"errors"

	"github.com/lshigami/bandwise/internal/grading"
)

var (
	ErrTestNotFound        = errors.New("test not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("user has already submitted this test")
	ErrInvalidRubric       = grading.ErrInvalidRubric
	ErrInvalidTest         = errors.New("invalid test content")
	ErrEmptySubmission     = errors.New("submission contains no answers")
	ErrUnsupportedSkill    = errors.New("submissions are not supported for this skill")
	ErrNotWritingTest      = errors.New("submission does not belong to a writing test")
	ErrAIGradingDisabled   = errors.New("AI grading is not configured")
	// ErrSubmissionChanged means the answers were replaced while a grading
	// pass was in flight. The pass is dropped.
	ErrSubmissionChanged = errors.New("submission was resubmitted during grading")
)
