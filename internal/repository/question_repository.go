package repository

import (
	"context"

	"github.com/lshigami/bandwise/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Question, error)
	// TestIDOf returns the test owning the question's section.
	TestIDOf(ctx context.Context, q *model.Question) (uint, error)
	// OrderInUse reports whether another question in the section already
	// holds the given position.
	OrderInUse(ctx context.Context, sectionID uint, order int, excludeID uint) (bool, error)
	Update(ctx context.Context, question *model.Question) error
	Delete(ctx context.Context, id uint) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (r *questionRepository) TestIDOf(ctx context.Context, q *model.Question) (uint, error) {
	var section model.Section
	if err := r.db.WithContext(ctx).Select("id", "test_id").First(&section, q.SectionID).Error; err != nil {
		return 0, translateError(err)
	}
	return section.TestID, nil
}

func (r *questionRepository) OrderInUse(ctx context.Context, sectionID uint, order int, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Question{}).
		Where("section_id = ? AND order_in_section = ? AND id <> ?", sectionID, order, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *questionRepository) Update(ctx context.Context, question *model.Question) error {
	return translateError(r.db.WithContext(ctx).Save(question).Error)
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Question{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
