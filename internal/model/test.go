package model

import (
	"time"

	"gorm.io/gorm"
)

type Skill string

const (
	SkillReading   Skill = "reading"
	SkillListening Skill = "listening"
	SkillWriting   Skill = "writing"
	SkillSpeaking  Skill = "speaking"
)

// IsObjective reports whether submissions for the skill are graded by
// comparing answers against an answer key.
func (s Skill) IsObjective() bool {
	return s == SkillReading || s == SkillListening
}

func (s Skill) Valid() bool {
	switch s {
	case SkillReading, SkillListening, SkillWriting, SkillSpeaking:
		return true
	}
	return false
}

type Test struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	Title            string         `json:"title" gorm:"not null"` // "Cambridge 18 - Reading Test 1"
	Description      string         `json:"description,omitempty" gorm:"type:text"`
	Skill            Skill          `json:"skill" gorm:"type:varchar(16);not null;index"`
	Level            string         `json:"level,omitempty"`
	TimeLimitMinutes int            `json:"time_limit_minutes"`
	Sections         []Section      `json:"sections,omitempty" gorm:"foreignKey:TestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Section is a reading passage, listening part or writing task.
type Section struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	TestID      uint           `json:"test_id" gorm:"not null;index"`
	Title       string         `json:"title,omitempty"`
	OrderInTest int            `json:"order_in_test" gorm:"not null"`
	Passage     *string        `json:"passage,omitempty" gorm:"type:text"`
	AudioURL    *string        `json:"audio_url,omitempty"`
	ImageURL    *string        `json:"image_url,omitempty"` // chart or diagram for writing task 1
	Questions   []Question     `json:"questions,omitempty" gorm:"foreignKey:SectionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
