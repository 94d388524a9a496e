package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/grading"
	"github.com/lshigami/bandwise/internal/metrics"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/lshigami/bandwise/internal/repository"
	"github.com/rs/zerolog/log"
)

// Grading origins carried on SubmissionGraded events.
const (
	OriginAuto  = "auto"
	OriginHuman = "human"
	OriginAI    = "ai"
)

// EssayTask is one writing task with the candidate's essay.
type EssayTask struct {
	Order    int
	Prompt   string
	ImageURL *string
	Essay    string
}

// WritingGrader produces a rubric assessment for a writing submission.
type WritingGrader interface {
	Enabled() bool
	GradeEssays(ctx context.Context, tasks []EssayTask) (*model.WritingAssessment, error)
}

// WritingGradingService runs grading passes over writing submissions. Each
// pass moves the submission to graded and may be repeated.
type WritingGradingService interface {
	GradeManually(ctx context.Context, submissionID uint, req dto.ManualGradeDTO) (*dto.SubmissionResultDTO, error)
	GradeWithAI(ctx context.Context, submissionID uint) (*dto.SubmissionResultDTO, error)
	AIEnabled() bool
}

type writingGradingService struct {
	submissionRepo repository.SubmissionRepository
	reader         TestReader
	assembler      *resultAssembler
	grader         WritingGrader
	publisher      event.Publisher
}

func NewWritingGradingService(
	submissionRepo repository.SubmissionRepository,
	reader TestReader,
	aggregator *grading.Aggregator,
	grader WritingGrader,
	publisher event.Publisher,
) WritingGradingService {
	return &writingGradingService{
		submissionRepo: submissionRepo,
		reader:         reader,
		assembler:      &resultAssembler{reader: reader, aggregator: aggregator},
		grader:         grader,
		publisher:      publisher,
	}
}

func (s *writingGradingService) AIEnabled() bool {
	return s.grader != nil && s.grader.Enabled()
}

func (s *writingGradingService) load(ctx context.Context, submissionID uint) (*model.Submission, *model.Test, error) {
	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: id %d", ErrSubmissionNotFound, submissionID)
		}
		return nil, nil, fmt.Errorf("error loading submission %d: %w", submissionID, err)
	}
	test, err := s.reader.GetTestForReview(ctx, sub.TestID)
	if err != nil {
		return nil, nil, err
	}
	if test.Skill != model.SkillWriting {
		return nil, nil, fmt.Errorf("%w: submission %d is %s", ErrNotWritingTest, submissionID, test.Skill)
	}
	return sub, test, nil
}

func (s *writingGradingService) GradeManually(ctx context.Context, submissionID uint, req dto.ManualGradeDTO) (*dto.SubmissionResultDTO, error) {
	sub, test, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	rubric := model.RubricScore(req.Rubric)
	score, err := grading.AverageRubric(rubric)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	assessment := model.WritingAssessment{
		Rubric:   &rubric,
		Comment:  req.Comment,
		GradedBy: req.GradedBy,
		GradedAt: &now,
	}
	if req.Feedback != nil {
		feedback := model.RubricFeedback(*req.Feedback)
		assessment.Feedback = &feedback
	}

	return s.savePass(ctx, test, sub, repository.GradePass{
		SubmissionID: sub.ID,
		Revision:     sub.Revision,
		ByExaminer:   true,
		Score:        score,
		Assessment:   assessment,
		Comment:      req.Comment,
		GradedAt:     now,
	})
}

func (s *writingGradingService) GradeWithAI(ctx context.Context, submissionID uint) (*dto.SubmissionResultDTO, error) {
	if !s.AIEnabled() {
		return nil, ErrAIGradingDisabled
	}
	sub, test, err := s.load(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	tasks := essayTasks(test, sub.Answers.Data())
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: submission %d has no essay text", ErrEmptySubmission, submissionID)
	}

	assessment, err := s.grader.GradeEssays(ctx, tasks)
	if err == nil && assessment.Rubric == nil {
		err = errors.New("grader returned no rubric")
	}
	if err != nil {
		metrics.ObserveAIFailure()
		log.Error().Err(err).Uint("submissionID", submissionID).Msg("GradeWithAI: grader failed")
		return nil, fmt.Errorf("AI grading failed for submission %d: %w", submissionID, err)
	}
	score, err := grading.AverageRubric(*assessment.Rubric)
	if err != nil {
		metrics.ObserveAIFailure()
		return nil, err
	}
	now := time.Now()
	assessment.GradedBy = OriginAI
	assessment.GradedAt = &now

	return s.savePass(ctx, test, sub, repository.GradePass{
		SubmissionID: sub.ID,
		Revision:     sub.Revision,
		Score:        score,
		Assessment:   *assessment,
		Comment:      assessment.Comment,
		GradedAt:     now,
	})
}

// savePass stores a grading pass for the answer revision it graded and
// returns the submission as stored afterwards.
func (s *writingGradingService) savePass(ctx context.Context, test *model.Test, sub *model.Submission, pass repository.GradePass) (*dto.SubmissionResultDTO, error) {
	origin := OriginAI
	if pass.ByExaminer {
		origin = OriginHuman
	}

	if err := s.submissionRepo.SaveGradePass(ctx, pass); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: id %d", ErrSubmissionNotFound, sub.ID)
		case errors.Is(err, repository.ErrStale):
			log.Warn().Uint("submissionID", sub.ID).Uint("revision", pass.Revision).Str("origin", origin).Msg("Grading pass superseded by a resubmission, dropped")
			return nil, fmt.Errorf("%w: id %d", ErrSubmissionChanged, sub.ID)
		}
		log.Error().Err(err).Uint("submissionID", sub.ID).Str("origin", origin).Msg("Failed to store grading pass")
		return nil, fmt.Errorf("error storing grading for submission %d: %w", sub.ID, err)
	}

	log.Info().Uint("submissionID", sub.ID).Str("origin", origin).Float64("score", pass.Score).Msg("Writing submission graded")
	s.publisher.Publish(ctx, event.Change{
		Kind:         event.SubmissionGraded,
		TestID:       test.ID,
		Skill:        test.Skill,
		SubmissionID: sub.ID,
		UserID:       sub.UserID,
		Origin:       origin,
		Score:        &pass.Score,
	})

	stored, err := s.submissionRepo.FindByID(ctx, sub.ID)
	if err != nil {
		return nil, fmt.Errorf("error reloading submission %d: %w", sub.ID, err)
	}
	return s.assembler.assembleWith(test, stored), nil
}

// essayTasks pairs every answered essay question with its text, in test order.
func essayTasks(test *model.Test, answers model.AnswerSheet) []EssayTask {
	var tasks []EssayTask
	sections := slices.Clone(test.Sections)
	slices.SortStableFunc(sections, func(a, b model.Section) int { return a.OrderInTest - b.OrderInTest })
	for _, sec := range sections {
		questions := slices.Clone(sec.Questions)
		slices.SortStableFunc(questions, func(a, b model.Question) int { return a.OrderInSection - b.OrderInSection })
		for _, q := range questions {
			if q.Type != model.QuestionEssay {
				continue
			}
			essay, ok := answers[q.ID]
			if !ok || essay == "" {
				continue
			}
			tasks = append(tasks, EssayTask{
				Order:    len(tasks) + 1,
				Prompt:   q.Prompt,
				ImageURL: sec.ImageURL,
				Essay:    essay,
			})
		}
	}
	return tasks
}
