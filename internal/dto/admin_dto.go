package dto

// RubricDTO carries the four IELTS writing criteria, each on the 0-9 band.
type RubricDTO struct {
	TaskResponse         float64 `json:"task_response" binding:"gte=0,lte=9"`
	CoherenceAndCohesion float64 `json:"coherence_and_cohesion" binding:"gte=0,lte=9"`
	LexicalResource      float64 `json:"lexical_resource" binding:"gte=0,lte=9"`
	GrammaticalRange     float64 `json:"grammatical_range" binding:"gte=0,lte=9"`
}

type RubricFeedbackDTO struct {
	TaskResponse         string `json:"task_response"`
	CoherenceAndCohesion string `json:"coherence_and_cohesion"`
	LexicalResource      string `json:"lexical_resource"`
	GrammaticalRange     string `json:"grammatical_range"`
}

// ManualGradeDTO is an examiner's grading pass over a writing submission.
type ManualGradeDTO struct {
	Rubric   RubricDTO          `json:"rubric" binding:"required"`
	Feedback *RubricFeedbackDTO `json:"feedback"`
	Comment  string             `json:"comment,omitempty"`
	GradedBy string             `json:"graded_by,omitempty"`
}
