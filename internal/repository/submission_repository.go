package repository

import (
	"context"
	"time"

	"github.com/lshigami/bandwise/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GradePass is one writing grading pass against a given answer revision.
type GradePass struct {
	SubmissionID uint
	Revision     uint
	ByExaminer   bool
	Score        float64
	Assessment   model.WritingAssessment
	Comment      string
	GradedAt     time.Time
}

type SubmissionRepository interface {
	// Create returns ErrDuplicate when the user already has a submission for
	// the test.
	Create(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id uint) (*model.Submission, error)
	FindByTestAndUser(ctx context.Context, testID, userID uint) (*model.Submission, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Submission, error)
	// SaveGradePass writes only the columns of the pass's origin plus the
	// display score and status. It returns ErrStale when the answers were
	// replaced after pass.Revision was read.
	SaveGradePass(ctx context.Context, pass GradePass) error
	// ReplaceAnswers swaps the answer sheet and resets the row to submitted,
	// clearing every grading field.
	ReplaceAnswers(ctx context.Context, id uint, answers model.AnswerSheet) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	return translateError(r.db.WithContext(ctx).Omit("Test").Create(sub).Error)
}

func (r *submissionRepository) FindByID(ctx context.Context, id uint) (*model.Submission, error) {
	var sub model.Submission
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

func (r *submissionRepository) FindByTestAndUser(ctx context.Context, testID, userID uint) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND user_id = ?", testID, userID).
		First(&sub).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID uint) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.WithContext(ctx).
		Preload("Test", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&subs).Error
	return subs, translateError(err)
}

func (r *submissionRepository) SaveGradePass(ctx context.Context, pass GradePass) error {
	updates := map[string]any{
		"status":    model.StatusGraded,
		"graded_at": pass.GradedAt,
	}
	assessment := datatypes.NewJSONType(pass.Assessment)
	if pass.ByExaminer {
		updates["human_score"] = pass.Score
		updates["human_assessment"] = assessment
		updates["score"] = pass.Score
		if pass.Comment != "" {
			updates["feedback"] = pass.Comment
		}
	} else {
		// The examiner's score keeps precedence even if it landed while the
		// AI pass was running.
		updates["ai_score"] = pass.Score
		updates["ai_assessment"] = assessment
		updates["score"] = gorm.Expr("COALESCE(human_score, ?)", pass.Score)
		if pass.Comment != "" {
			updates["feedback"] = gorm.Expr("CASE WHEN human_score IS NULL THEN ? ELSE feedback END", pass.Comment)
		}
	}

	res := r.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND revision = ?", pass.SubmissionID, pass.Revision).
		Updates(updates)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOrStale(ctx, pass.SubmissionID)
	}
	return nil
}

func (r *submissionRepository) missingOrStale(ctx context.Context, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Submission{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStale
}

func (r *submissionRepository) ReplaceAnswers(ctx context.Context, id uint, answers model.AnswerSheet) error {
	res := r.db.WithContext(ctx).Model(&model.Submission{ID: id}).
		Updates(map[string]any{
			"answers":          datatypes.NewJSONType(answers),
			"revision":         gorm.Expr("revision + 1"),
			"status":           model.StatusSubmitted,
			"score":            nil,
			"feedback":         "",
			"human_score":      nil,
			"ai_score":         nil,
			"human_assessment": datatypes.NewJSONType(model.WritingAssessment{}),
			"ai_assessment":    datatypes.NewJSONType(model.WritingAssessment{}),
			"graded_at":        nil,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
