package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/bandwise/internal/controller"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/lshigami/bandwise/internal/service"
	"github.com/rs/zerolog/log"
)

type UserTestController struct {
	userTestService   service.UserTestService
	submissionService service.SubmissionService
}

func NewUserTestController(uts service.UserTestService, ss service.SubmissionService) *UserTestController {
	return &UserTestController{
		userTestService:   uts,
		submissionService: ss,
	}
}

// GetAllTests godoc
// @Summary (User) List available tests
// @Description Get test summaries, optionally filtered by skill.
// @Tags User - Tests & Submissions
// @Produce json
// @Param skill query string false "reading, listening, writing or speaking"
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Unknown skill"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests [get]
func (c *UserTestController) GetAllTests(ctx *gin.Context) {
	tests, err := c.userTestService.GetAllTests(ctx.Request.Context(), model.Skill(ctx.Query("skill")))
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve tests")
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestDetails godoc
// @Summary (User) Get a test to sit
// @Description Returns sections and questions without correct answers or explanations.
// @Tags User - Tests & Submissions
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestForTakingDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *UserTestController) GetTestDetails(ctx *gin.Context) {
	testID, ok := controller.ParseIDParam(ctx, "test_id", "Test ID")
	if !ok {
		return
	}
	testDetails, err := c.userTestService.GetTestForTaking(ctx.Request.Context(), testID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve test")
		return
	}
	ctx.JSON(http.StatusOK, testDetails)
}

// SubmitTest godoc
// @Summary (User) Submit answers for an entire test
// @Description Reading and listening submissions are graded immediately and accepted once per user. Writing submissions are graded by AI in the background; resubmitting replaces the essay.
// @Tags User - Tests & Submissions
// @Accept json
// @Produce json
// @Param test_id path int true "ID of the Test being submitted"
// @Param submission_data body dto.SubmissionCreateDTO true "User ID and answers"
// @Success 201 {object} dto.SubmissionResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "Already submitted"
// @Failure 500 {object} dto.ErrorResponse "Error processing submission"
// @Router /tests/{test_id}/submissions [post]
func (c *UserTestController) SubmitTest(ctx *gin.Context) {
	testID, ok := controller.ParseIDParam(ctx, "test_id", "Test ID")
	if !ok {
		return
	}

	var req dto.SubmissionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("User SubmitTest: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	if len(req.Answers) == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Submission must contain at least one answer."})
		return
	}

	log.Info().Uint("testID", testID).Uint("userID", req.UserID).Int("answerCount", len(req.Answers)).Msg("Received test submission")

	result, err := c.submissionService.SubmitTest(ctx.Request.Context(), testID, req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to submit test")
		return
	}
	ctx.JSON(http.StatusCreated, result)
}

// GetSubmissionResult godoc
// @Summary (User) Get the result of a submission
// @Description Band score, per-question review and, for writing, both human and AI assessments.
// @Tags User - Tests & Submissions
// @Produce json
// @Param submission_id path int true "Submission ID"
// @Success 200 {object} dto.SubmissionResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Submission ID format"
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Router /submissions/{submission_id} [get]
func (c *UserTestController) GetSubmissionResult(ctx *gin.Context) {
	submissionID, ok := controller.ParseIDParam(ctx, "submission_id", "Submission ID")
	if !ok {
		return
	}
	result, err := c.submissionService.GetSubmissionResult(ctx.Request.Context(), submissionID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve submission")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetUserSubmissions godoc
// @Summary (User) List a user's submissions
// @Tags User - Tests & Submissions
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {array} dto.SubmissionSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid User ID format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/{user_id}/submissions [get]
func (c *UserTestController) GetUserSubmissions(ctx *gin.Context) {
	userID, ok := controller.ParseIDParam(ctx, "user_id", "User ID")
	if !ok {
		return
	}
	history, err := c.submissionService.GetUserSubmissions(ctx.Request.Context(), userID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve submissions")
		return
	}
	ctx.JSON(http.StatusOK, history)
}
