package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/bandwise/config"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/grading"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/lshigami/bandwise/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

const defaultAITimeout = 60 * time.Second

// SubmissionService accepts test submissions and renders their results.
type SubmissionService interface {
	SubmitTest(ctx context.Context, testID uint, req dto.SubmissionCreateDTO) (*dto.SubmissionResultDTO, error)
	GetSubmissionResult(ctx context.Context, submissionID uint) (*dto.SubmissionResultDTO, error)
	GetUserSubmissions(ctx context.Context, userID uint) ([]dto.SubmissionSummaryDTO, error)
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	reader         TestReader
	assembler      *resultAssembler
	writing        WritingGradingService
	publisher      event.Publisher
	aiTimeout      time.Duration
	// runAsync starts background AI grading.
	runAsync func(func())
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	reader TestReader,
	aggregator *grading.Aggregator,
	writing WritingGradingService,
	publisher event.Publisher,
	cfg *config.Config,
) SubmissionService {
	timeout := cfg.Grading.AITimeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	return &submissionService{
		submissionRepo: submissionRepo,
		reader:         reader,
		assembler:      &resultAssembler{reader: reader, aggregator: aggregator},
		writing:        writing,
		publisher:      publisher,
		aiTimeout:      timeout,
		runAsync:       func(f func()) { go f() },
	}
}

// answerSheet flattens the request. A later answer to the same question
// replaces an earlier one.
func answerSheet(answers []dto.UserAnswerDTO) model.AnswerSheet {
	sheet := make(model.AnswerSheet, len(answers))
	for _, a := range answers {
		sheet[a.QuestionID] = a.UserAnswer
	}
	return sheet
}

func (s *submissionService) SubmitTest(ctx context.Context, testID uint, req dto.SubmissionCreateDTO) (*dto.SubmissionResultDTO, error) {
	if len(req.Answers) == 0 {
		return nil, ErrEmptySubmission
	}
	test, err := s.reader.GetTest(ctx, testID)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("SubmitTest: could not load test")
		return nil, err
	}

	sheet := answerSheet(req.Answers)
	switch {
	case test.Skill.IsObjective():
		return s.submitObjective(ctx, test, req.UserID, sheet)
	case test.Skill == model.SkillWriting:
		return s.submitWriting(ctx, test, req.UserID, sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSkill, test.Skill)
	}
}

// submitObjective grades at insert time. The unique (test_id, user_id)
// index rejects a second attempt and leaves the first score untouched.
func (s *submissionService) submitObjective(ctx context.Context, test *model.Test, userID uint, sheet model.AnswerSheet) (*dto.SubmissionResultDTO, error) {
	result := s.assembler.aggregator.Aggregate(test, grading.Submission{Answers: sheet})
	now := time.Now()
	score := result.Score

	sub := &model.Submission{
		TestID:   test.ID,
		UserID:   userID,
		Answers:  datatypes.NewJSONType(sheet),
		Score:    &score,
		Status:   model.StatusGraded,
		GradedAt: &now,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, s.createFailed(ctx, test, userID, err)
	}

	log.Info().Uint("submissionID", sub.ID).Uint("testID", test.ID).Uint("userID", userID).
		Float64("score", score).Int("correct", result.CorrectCount).Int("total", result.TotalQuestionCount).
		Msg("Objective submission graded")
	s.publisher.Publish(ctx, event.Change{Kind: event.SubmissionCreated, TestID: test.ID, Skill: test.Skill, SubmissionID: sub.ID, UserID: userID})
	s.publisher.Publish(ctx, event.Change{Kind: event.SubmissionGraded, TestID: test.ID, Skill: test.Skill, SubmissionID: sub.ID, UserID: userID, Origin: OriginAuto, Score: &score})

	return s.assembler.assembleWith(test, sub), nil
}

// submitWriting stores the essays. Resubmitting replaces the essay text and
// sends the row back to submitted. AI grading then runs in the background.
func (s *submissionService) submitWriting(ctx context.Context, test *model.Test, userID uint, sheet model.AnswerSheet) (*dto.SubmissionResultDTO, error) {
	existing, err := s.submissionRepo.FindByTestAndUser(ctx, test.ID, userID)
	switch {
	case err == nil:
		if err := s.submissionRepo.ReplaceAnswers(ctx, existing.ID, sheet); err != nil {
			log.Error().Err(err).Uint("submissionID", existing.ID).Msg("SubmitTest: failed to replace essay")
			return nil, fmt.Errorf("error replacing submission %d: %w", existing.ID, err)
		}
		log.Info().Uint("submissionID", existing.ID).Uint("userID", userID).Msg("Writing submission replaced")
	case errors.Is(err, repository.ErrNotFound):
		sub := &model.Submission{
			TestID:  test.ID,
			UserID:  userID,
			Answers: datatypes.NewJSONType(sheet),
			Status:  model.StatusSubmitted,
		}
		if err := s.submissionRepo.Create(ctx, sub); err != nil {
			return nil, s.createFailed(ctx, test, userID, err)
		}
		existing = sub
		log.Info().Uint("submissionID", sub.ID).Uint("userID", userID).Msg("Writing submission stored")
	default:
		return nil, fmt.Errorf("error checking existing submission: %w", err)
	}

	s.publisher.Publish(ctx, event.Change{Kind: event.SubmissionCreated, TestID: test.ID, Skill: test.Skill, SubmissionID: existing.ID, UserID: userID})

	stored, err := s.submissionRepo.FindByID(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("error reloading submission %d: %w", existing.ID, err)
	}

	if s.writing != nil && s.writing.AIEnabled() {
		s.scheduleAIGrading(stored.ID)
	}
	return s.assembler.assembleWith(test, stored), nil
}

func (s *submissionService) createFailed(ctx context.Context, test *model.Test, userID uint, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		log.Warn().Uint("testID", test.ID).Uint("userID", userID).Msg("SubmitTest: duplicate submission rejected")
		s.publisher.Publish(ctx, event.Change{Kind: event.SubmissionRejected, TestID: test.ID, Skill: test.Skill, UserID: userID})
		return ErrDuplicateSubmission
	}
	log.Error().Err(err).Uint("testID", test.ID).Uint("userID", userID).Msg("SubmitTest: failed to store submission")
	return fmt.Errorf("error storing submission: %w", err)
}

func (s *submissionService) scheduleAIGrading(submissionID uint) {
	s.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.aiTimeout)
		defer cancel()
		_, err := s.writing.GradeWithAI(ctx, submissionID)
		switch {
		case err == nil:
		case errors.Is(err, ErrSubmissionChanged):
			log.Info().Uint("submissionID", submissionID).Msg("Background AI grading skipped, essay was resubmitted")
		default:
			log.Error().Err(err).Uint("submissionID", submissionID).Msg("Background AI grading failed")
		}
	})
}

func (s *submissionService) GetSubmissionResult(ctx context.Context, submissionID uint) (*dto.SubmissionResultDTO, error) {
	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrSubmissionNotFound, submissionID)
		}
		log.Error().Err(err).Uint("submissionID", submissionID).Msg("GetSubmissionResult: failed to load submission")
		return nil, fmt.Errorf("error loading submission %d: %w", submissionID, err)
	}
	return s.assembler.assemble(ctx, sub)
}

func (s *submissionService) GetUserSubmissions(ctx context.Context, userID uint) ([]dto.SubmissionSummaryDTO, error) {
	subs, err := s.submissionRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("GetUserSubmissions: failed to list submissions")
		return nil, fmt.Errorf("error fetching submissions: %w", err)
	}

	summaries := make([]dto.SubmissionSummaryDTO, 0, len(subs))
	for _, sub := range subs {
		summary := dto.SubmissionSummaryDTO{
			ID:          sub.ID,
			TestID:      sub.TestID,
			TestTitle:   sub.Test.Title,
			Skill:       string(sub.Test.Skill),
			Status:      string(sub.Status),
			Score:       sub.Score,
			SubmittedAt: sub.SubmittedAt,
			GradedAt:    sub.GradedAt,
		}
		if sub.Score != nil {
			band := grading.RoundBand(*sub.Score)
			summary.RoundedBand = &band
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
