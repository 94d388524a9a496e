package dto

// UserAnswerDTO is the raw answer to one question group. Grouped questions
// take a JSON object keyed by sub-question index, e.g. {"0":"B","1":"A"};
// essays take the essay text.
type UserAnswerDTO struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	UserAnswer string `json:"user_answer"`
}

// SubmissionCreateDTO is the request body for submitting a whole test.
type SubmissionCreateDTO struct {
	UserID  uint            `json:"user_id" binding:"required"` // Temporary, for non-auth user identification
	Answers []UserAnswerDTO `json:"answers" binding:"required,dive"`
}
