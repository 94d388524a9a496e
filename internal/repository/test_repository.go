package repository

import (
	"context"

	"github.com/lshigami/bandwise/internal/model"
	"gorm.io/gorm"
)

// TestSummary is a test row plus the number of question groups it holds.
type TestSummary struct {
	model.Test
	QuestionCount int
}

type TestRepository interface {
	Create(ctx context.Context, test *model.Test) error
	Update(ctx context.Context, test *model.Test) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Test, error)
	FindByIDWithContent(ctx context.Context, id uint) (*model.Test, error)
	// FindByIDWithContentUnscoped also returns soft-deleted tests, for
	// reviewing submissions made before the deletion.
	FindByIDWithContentUnscoped(ctx context.Context, id uint) (*model.Test, error)
	FindAllSummaries(ctx context.Context, skill model.Skill) ([]TestSummary, error)
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	// Sections and their questions are created through the associations.
	return translateError(r.db.WithContext(ctx).Create(test).Error)
}

func (r *testRepository) Update(ctx context.Context, test *model.Test) error {
	return translateError(r.db.WithContext(ctx).Model(test).
		Select("Title", "Description", "Level", "TimeLimitMinutes").
		Updates(test).Error)
}

func (r *testRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Test{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *testRepository) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &test, nil
}

// FindByIDWithContent loads the test with sections and question groups in
// their stored order.
func (r *testRepository) FindByIDWithContent(ctx context.Context, id uint) (*model.Test, error) {
	return r.findWithContent(r.db.WithContext(ctx), id)
}

func (r *testRepository) FindByIDWithContentUnscoped(ctx context.Context, id uint) (*model.Test, error) {
	return r.findWithContent(r.db.WithContext(ctx).Unscoped(), id)
}

func (r *testRepository) findWithContent(tx *gorm.DB, id uint) (*model.Test, error) {
	var test model.Test
	err := tx.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.order_in_test ASC, sections.id ASC")
		}).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_section ASC, questions.id ASC")
		}).
		First(&test, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &test, nil
}

func (r *testRepository) FindAllSummaries(ctx context.Context, skill model.Skill) ([]TestSummary, error) {
	var results []TestSummary
	query := r.db.WithContext(ctx).Model(&model.Test{}).
		Select("tests.*, (SELECT COUNT(*) FROM questions JOIN sections ON sections.id = questions.section_id" +
			" WHERE sections.test_id = tests.id AND questions.deleted_at IS NULL AND sections.deleted_at IS NULL) AS question_count").
		Where("tests.deleted_at IS NULL")
	if skill != "" {
		query = query.Where("tests.skill = ?", skill)
	}
	if err := query.Order("tests.created_at DESC").Scan(&results).Error; err != nil {
		return nil, translateError(err)
	}
	return results, nil
}
