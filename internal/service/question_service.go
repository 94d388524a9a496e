package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// QuestionService edits single question groups of an existing test.
type QuestionService interface {
	UpdateQuestion(ctx context.Context, id uint, req dto.QuestionUpdateDTO) (*dto.QuestionResponseDTO, error)
	DeleteQuestion(ctx context.Context, id uint) error
}

type questionService struct {
	repo      repository.QuestionRepository
	testRepo  repository.TestRepository
	publisher event.Publisher
}

func NewQuestionService(repo repository.QuestionRepository, testRepo repository.TestRepository, publisher event.Publisher) QuestionService {
	return &questionService{repo: repo, testRepo: testRepo, publisher: publisher}
}

func (s *questionService) UpdateQuestion(ctx context.Context, id uint, req dto.QuestionUpdateDTO) (*dto.QuestionResponseDTO, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrQuestionNotFound, id)
		}
		return nil, fmt.Errorf("error loading question %d: %w", id, err)
	}
	testID, err := s.repo.TestIDOf(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("error resolving test of question %d: %w", id, err)
	}
	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTestNotFound, testID)
		}
		return nil, fmt.Errorf("error loading test %d: %w", testID, err)
	}

	if err := validateQuestionContent(test.Skill, question.Type, req.SubQuestions, req.Options, req.CorrectAnswers); err != nil {
		return nil, err
	}
	if req.OrderInSection != question.OrderInSection {
		taken, err := s.repo.OrderInUse(ctx, question.SectionID, req.OrderInSection, question.ID)
		if err != nil {
			return nil, fmt.Errorf("error checking question order: %w", err)
		}
		if taken {
			return nil, invalidf("order_in_section %d is already used in section %d", req.OrderInSection, question.SectionID)
		}
	}

	question.Prompt = req.Prompt
	question.OrderInSection = req.OrderInSection
	question.SubQuestions = datatypes.NewJSONSlice(req.SubQuestions)
	question.Options = datatypes.NewJSONSlice(req.Options)
	question.CorrectAnswers = datatypes.NewJSONSlice(req.CorrectAnswers)
	question.Points = pointsOrDefault(req.Points, question.Type, len(req.SubQuestions))
	question.Explanation = req.Explanation

	if err := s.repo.Update(ctx, question); err != nil {
		log.Error().Err(err).Uint("questionID", id).Msg("Failed to update question")
		return nil, fmt.Errorf("database error updating question: %w", err)
	}
	s.publisher.Publish(ctx, event.Change{Kind: event.TestUpdated, TestID: testID, Skill: test.Skill})

	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, question); err != nil {
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	return &resp, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, id uint) error {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrQuestionNotFound, id)
		}
		return fmt.Errorf("error loading question %d: %w", id, err)
	}
	testID, err := s.repo.TestIDOf(ctx, question)
	if err != nil {
		return fmt.Errorf("error resolving test of question %d: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrQuestionNotFound, id)
		}
		log.Error().Err(err).Uint("questionID", id).Msg("Failed to delete question")
		return fmt.Errorf("database error deleting question: %w", err)
	}
	s.publisher.Publish(ctx, event.Change{Kind: event.TestUpdated, TestID: testID})
	return nil
}
