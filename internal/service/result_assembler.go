package service

import (
	"context"

	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/grading"
	"github.com/lshigami/bandwise/internal/model"
)

// resultAssembler turns a stored submission into its review view.
type resultAssembler struct {
	reader     TestReader
	aggregator *grading.Aggregator
}

func (a *resultAssembler) assemble(ctx context.Context, sub *model.Submission) (*dto.SubmissionResultDTO, error) {
	test, err := a.reader.GetTestForReview(ctx, sub.TestID)
	if err != nil {
		return nil, err
	}
	return a.assembleWith(test, sub), nil
}

func (a *resultAssembler) assembleWith(test *model.Test, sub *model.Submission) *dto.SubmissionResultDTO {
	result := a.aggregator.Aggregate(test, grading.Submission{
		Answers:    sub.Answers.Data(),
		HumanScore: sub.HumanScore,
		AIScore:    sub.AIScore,
	})

	resp := &dto.SubmissionResultDTO{
		SubmissionID: sub.ID,
		UserID:       sub.UserID,
		Status:       string(sub.Status),
		Feedback:     sub.Feedback,
		SubmittedAt:  sub.SubmittedAt,
		GradedAt:     sub.GradedAt,
		Result:       result,
	}
	// Objective scores are recorded once. The verdicts below reflect the
	// current key, so a differing live score is reported beside the stored one.
	if test.Skill.IsObjective() && sub.Score != nil {
		if live := result.Score; live != *sub.Score {
			resp.RegradedScore = &live
		}
		resp.Score = *sub.Score
		resp.RoundedBand = grading.RoundBand(*sub.Score)
	}
	if human := sub.HumanAssessment.Data(); human.Present() {
		resp.HumanAssessment = &human
	}
	if ai := sub.AIAssessment.Data(); ai.Present() {
		resp.AIAssessment = &ai
	}
	return resp
}
