package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/rs/zerolog/log"
)

type UserTestService interface {
	GetAllTests(ctx context.Context, skill model.Skill) ([]dto.TestSummaryDTO, error)
	// GetTestForTaking returns the test without answer keys or explanations.
	GetTestForTaking(ctx context.Context, testID uint) (*dto.TestForTakingDTO, error)
}

type userTestService struct {
	reader TestReader
}

func NewUserTestService(reader TestReader) UserTestService {
	return &userTestService{reader: reader}
}

func (s *userTestService) GetAllTests(ctx context.Context, skill model.Skill) ([]dto.TestSummaryDTO, error) {
	if skill != "" && !skill.Valid() {
		return nil, fmt.Errorf("%w: unknown skill %q", ErrInvalidTest, skill)
	}
	return s.reader.ListTests(ctx, skill)
}

func (s *userTestService) GetTestForTaking(ctx context.Context, testID uint) (*dto.TestForTakingDTO, error) {
	test, err := s.reader.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	var resp dto.TestForTakingDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to copy Test model to TestForTakingDTO")
		return nil, fmt.Errorf("error preparing test details response: %w", err)
	}
	return &resp, nil
}
