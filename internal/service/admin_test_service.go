package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/lshigami/bandwise/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

type AdminTestService interface {
	CreateTest(ctx context.Context, req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	GetTest(ctx context.Context, id uint) (*dto.TestResponseDTO, error)
	UpdateTest(ctx context.Context, id uint, req dto.TestUpdateDTO) (*dto.TestResponseDTO, error)
	DeleteTest(ctx context.Context, id uint) error
}

type adminTestService struct {
	testRepo  repository.TestRepository
	reader    TestReader
	publisher event.Publisher
}

func NewAdminTestService(testRepo repository.TestRepository, reader TestReader, publisher event.Publisher) AdminTestService {
	return &adminTestService{testRepo: testRepo, reader: reader, publisher: publisher}
}

func (s *adminTestService) CreateTest(ctx context.Context, req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	if err := validateTestCreate(req); err != nil {
		return nil, err
	}

	testModel := model.Test{
		Title:            req.Title,
		Description:      req.Description,
		Skill:            model.Skill(req.Skill),
		Level:            req.Level,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	for _, secDto := range req.Sections {
		section := model.Section{
			Title:       secDto.Title,
			OrderInTest: secDto.OrderInTest,
			Passage:     secDto.Passage,
			AudioURL:    secDto.AudioURL,
			ImageURL:    secDto.ImageURL,
		}
		for _, qDto := range secDto.Questions {
			qType := model.QuestionType(qDto.Type)
			section.Questions = append(section.Questions, model.Question{
				Type:           qType,
				Prompt:         qDto.Prompt,
				OrderInSection: qDto.OrderInSection,
				SubQuestions:   datatypes.NewJSONSlice(qDto.SubQuestions),
				Options:        datatypes.NewJSONSlice(qDto.Options),
				CorrectAnswers: datatypes.NewJSONSlice(qDto.CorrectAnswers),
				Points:         pointsOrDefault(qDto.Points, qType, len(qDto.SubQuestions)),
				Explanation:    qDto.Explanation,
			})
		}
		testModel.Sections = append(testModel.Sections, section)
	}

	if err := s.testRepo.Create(ctx, &testModel); err != nil {
		log.Error().Err(err).Msg("Failed to create test in database")
		return nil, fmt.Errorf("database error creating test: %w", err)
	}
	s.publisher.Publish(ctx, event.Change{Kind: event.TestCreated, TestID: testModel.ID, Skill: testModel.Skill})
	log.Info().Uint("testID", testModel.ID).Str("skill", string(testModel.Skill)).Msg("Test created")

	return s.GetTest(ctx, testModel.ID)
}

func (s *adminTestService) GetTest(ctx context.Context, id uint) (*dto.TestResponseDTO, error) {
	test, err := s.reader.GetTest(ctx, id)
	if err != nil {
		return nil, err
	}
	var resp dto.TestResponseDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("Failed to copy Test model to TestResponseDTO")
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	return &resp, nil
}

func (s *adminTestService) UpdateTest(ctx context.Context, id uint, req dto.TestUpdateDTO) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTestNotFound, id)
		}
		return nil, fmt.Errorf("error loading test %d: %w", id, err)
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Description != nil {
		test.Description = *req.Description
	}
	if req.Level != nil {
		test.Level = *req.Level
	}
	if req.TimeLimitMinutes != nil {
		test.TimeLimitMinutes = *req.TimeLimitMinutes
	}

	if err := s.testRepo.Update(ctx, test); err != nil {
		log.Error().Err(err).Uint("testID", id).Msg("Failed to update test")
		return nil, fmt.Errorf("database error updating test: %w", err)
	}
	s.publisher.Publish(ctx, event.Change{Kind: event.TestUpdated, TestID: id, Skill: test.Skill})

	return s.GetTest(ctx, id)
}

func (s *adminTestService) DeleteTest(ctx context.Context, id uint) error {
	if err := s.testRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrTestNotFound, id)
		}
		log.Error().Err(err).Uint("testID", id).Msg("Failed to delete test")
		return fmt.Errorf("database error deleting test: %w", err)
	}
	s.publisher.Publish(ctx, event.Change{Kind: event.TestDeleted, TestID: id})
	log.Info().Uint("testID", id).Msg("Test deleted")
	return nil
}
