package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/bandwise/internal/controller"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminGradingController struct {
	writingService service.WritingGradingService
}

func NewAdminGradingController(writingService service.WritingGradingService) *AdminGradingController {
	return &AdminGradingController{writingService: writingService}
}

// GradeSubmission godoc
// @Summary (Admin) Grade a writing submission by rubric
// @Description Records an examiner's rubric (four criteria, each 0-9). The human score is the mean and takes precedence over the AI score for display. May be repeated.
// @Tags Admin - Grading
// @Accept json
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Param grade body dto.ManualGradeDTO true "Rubric, feedback and comment"
// @Success 200 {object} dto.SubmissionResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid rubric or not a writing submission"
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Failure 409 {object} dto.ErrorResponse "Essay was resubmitted while grading"
// @Router /admin/submissions/{submission_id}/grade [post]
func (c *AdminGradingController) GradeSubmission(ctx *gin.Context) {
	submissionID, ok := controller.ParseIDParam(ctx, "submission_id", "Submission ID")
	if !ok {
		return
	}
	var req dto.ManualGradeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin GradeSubmission: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.writingService.GradeManually(ctx.Request.Context(), submissionID, req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to grade submission")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AIGradeSubmission godoc
// @Summary (Admin) Re-run AI grading for a writing submission
// @Description Runs the AI grader synchronously and stores the result as the AI score.
// @Tags Admin - Grading
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 200 {object} dto.SubmissionResultDTO
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Failure 409 {object} dto.ErrorResponse "Essay was resubmitted while grading"
// @Failure 503 {object} dto.ErrorResponse "AI grading is not configured"
// @Router /admin/submissions/{submission_id}/ai-grade [post]
func (c *AdminGradingController) AIGradeSubmission(ctx *gin.Context) {
	submissionID, ok := controller.ParseIDParam(ctx, "submission_id", "Submission ID")
	if !ok {
		return
	}
	resp, err := c.writingService.GradeWithAI(ctx.Request.Context(), submissionID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to run AI grading")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
