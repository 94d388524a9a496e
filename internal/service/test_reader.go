package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/bandwise/internal/cache"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/lshigami/bandwise/internal/repository"
	"github.com/rs/zerolog/log"
)

// TestReader serves test content and listings through the read cache.
type TestReader interface {
	GetTest(ctx context.Context, id uint) (*model.Test, error)
	// GetTestForReview also finds deleted tests, so past submissions stay
	// readable.
	GetTestForReview(ctx context.Context, id uint) (*model.Test, error)
	ListTests(ctx context.Context, skill model.Skill) ([]dto.TestSummaryDTO, error)
}

type testReader struct {
	testRepo repository.TestRepository
	cache    *cache.TestCache
}

func NewTestReader(testRepo repository.TestRepository, testCache *cache.TestCache) TestReader {
	return &testReader{testRepo: testRepo, cache: testCache}
}

func (r *testReader) GetTest(ctx context.Context, id uint) (*model.Test, error) {
	cached, slot, ok := r.cache.GetTest(ctx, id)
	if ok {
		return cached, nil
	}
	test, err := r.testRepo.FindByIDWithContent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTestNotFound, id)
		}
		log.Error().Err(err).Uint("testID", id).Msg("TestReader: failed to load test content")
		return nil, fmt.Errorf("error loading test %d: %w", id, err)
	}
	r.cache.SetTest(ctx, slot, test)
	return test, nil
}

func (r *testReader) GetTestForReview(ctx context.Context, id uint) (*model.Test, error) {
	test, err := r.GetTest(ctx, id)
	if !errors.Is(err, ErrTestNotFound) {
		return test, err
	}
	archived, archErr := r.testRepo.FindByIDWithContentUnscoped(ctx, id)
	if archErr != nil {
		if errors.Is(archErr, repository.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(archErr).Uint("testID", id).Msg("TestReader: failed to load deleted test")
		return nil, fmt.Errorf("error loading test %d: %w", id, archErr)
	}
	return archived, nil
}

func (r *testReader) ListTests(ctx context.Context, skill model.Skill) ([]dto.TestSummaryDTO, error) {
	cached, slot, ok := r.cache.GetList(ctx, skill)
	if ok {
		return cached, nil
	}
	rows, err := r.testRepo.FindAllSummaries(ctx, skill)
	if err != nil {
		log.Error().Err(err).Str("skill", string(skill)).Msg("TestReader: failed to list tests")
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}

	list := make([]dto.TestSummaryDTO, 0, len(rows))
	for _, row := range rows {
		list = append(list, dto.TestSummaryDTO{
			ID:               row.Test.ID,
			Title:            row.Test.Title,
			Description:      row.Test.Description,
			Skill:            string(row.Test.Skill),
			Level:            row.Test.Level,
			TimeLimitMinutes: row.Test.TimeLimitMinutes,
			QuestionCount:    row.QuestionCount,
			CreatedAt:        row.Test.CreatedAt,
		})
	}
	r.cache.SetList(ctx, slot, list)
	return list, nil
}
