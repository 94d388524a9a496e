package dto

import "time"

// QuestionCreateDTO is one question group inside a section. Points defaults
// to the number of gradable items when omitted.
type QuestionCreateDTO struct {
	Type           string   `json:"type" binding:"required,oneof=single_choice true_false_not_given matching completion short_answer essay"`
	Prompt         string   `json:"prompt"`
	OrderInSection int      `json:"order_in_section" binding:"required,min=1"`
	SubQuestions   []string `json:"sub_questions"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
	Points         *float64 `json:"points" binding:"omitempty,gte=0"`
	Explanation    string   `json:"explanation,omitempty"`
}

type SectionCreateDTO struct {
	Title       string              `json:"title,omitempty"`
	OrderInTest int                 `json:"order_in_test" binding:"required,min=1"`
	Passage     *string             `json:"passage"`
	AudioURL    *string             `json:"audio_url"`
	ImageURL    *string             `json:"image_url"` // Writing task 1 chart
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// TestCreateDTO is for admin to create a new test with all its sections and questions.
type TestCreateDTO struct {
	Title            string             `json:"title" binding:"required"`
	Description      string             `json:"description,omitempty"`
	Skill            string             `json:"skill" binding:"required,oneof=reading listening writing speaking"`
	Level            string             `json:"level,omitempty"`
	TimeLimitMinutes int                `json:"time_limit_minutes" binding:"gte=0"`
	Sections         []SectionCreateDTO `json:"sections" binding:"required,min=1,dive"`
}

// TestUpdateDTO changes test metadata. Nil fields are left untouched.
type TestUpdateDTO struct {
	Title            *string `json:"title" binding:"omitempty,min=1"`
	Description      *string `json:"description"`
	Level            *string `json:"level"`
	TimeLimitMinutes *int    `json:"time_limit_minutes" binding:"omitempty,gte=0"`
}

// QuestionUpdateDTO replaces the authored content of one question group.
// The type cannot change.
type QuestionUpdateDTO struct {
	Prompt         string   `json:"prompt"`
	OrderInSection int      `json:"order_in_section" binding:"required,min=1"`
	SubQuestions   []string `json:"sub_questions"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
	Points         *float64 `json:"points" binding:"omitempty,gte=0"`
	Explanation    string   `json:"explanation,omitempty"`
}

// QuestionResponseDTO is the admin view of a question, answer key included.
type QuestionResponseDTO struct {
	ID             uint     `json:"id"`
	SectionID      uint     `json:"section_id"`
	Type           string   `json:"type"`
	Prompt         string   `json:"prompt"`
	OrderInSection int      `json:"order_in_section"`
	SubQuestions   []string `json:"sub_questions,omitempty"`
	Options        []string `json:"options,omitempty"`
	CorrectAnswers []string `json:"correct_answers,omitempty"`
	Points         float64  `json:"points"`
	Explanation    string   `json:"explanation,omitempty"`
}

type SectionResponseDTO struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title,omitempty"`
	OrderInTest int                   `json:"order_in_test"`
	Passage     *string               `json:"passage,omitempty"`
	AudioURL    *string               `json:"audio_url,omitempty"`
	ImageURL    *string               `json:"image_url,omitempty"`
	Questions   []QuestionResponseDTO `json:"questions"`
}

// TestResponseDTO is the admin view of a full test.
type TestResponseDTO struct {
	ID               uint                 `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	Skill            string               `json:"skill"`
	Level            string               `json:"level,omitempty"`
	TimeLimitMinutes int                  `json:"time_limit_minutes"`
	Sections         []SectionResponseDTO `json:"sections"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// QuestionForTakingDTO omits the answer key and explanation.
type QuestionForTakingDTO struct {
	ID             uint     `json:"id"`
	Type           string   `json:"type"`
	Prompt         string   `json:"prompt"`
	OrderInSection int      `json:"order_in_section"`
	SubQuestions   []string `json:"sub_questions,omitempty"`
	Options        []string `json:"options,omitempty"`
	Points         float64  `json:"points"`
}

type SectionForTakingDTO struct {
	ID          uint                   `json:"id"`
	Title       string                 `json:"title,omitempty"`
	OrderInTest int                    `json:"order_in_test"`
	Passage     *string                `json:"passage,omitempty"`
	AudioURL    *string                `json:"audio_url,omitempty"`
	ImageURL    *string                `json:"image_url,omitempty"`
	Questions   []QuestionForTakingDTO `json:"questions"`
}

// TestForTakingDTO is what a candidate sees while sitting a test.
type TestForTakingDTO struct {
	ID               uint                  `json:"id"`
	Title            string                `json:"title"`
	Description      string                `json:"description,omitempty"`
	Skill            string                `json:"skill"`
	Level            string                `json:"level,omitempty"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	Sections         []SectionForTakingDTO `json:"sections"`
}

// TestSummaryDTO is used for listing tests available to users.
type TestSummaryDTO struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Skill            string    `json:"skill"`
	Level            string    `json:"level,omitempty"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	QuestionCount    int       `json:"question_count"`
	CreatedAt        time.Time `json:"created_at"`
}
