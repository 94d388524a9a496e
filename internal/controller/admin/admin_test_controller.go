package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/bandwise/internal/controller"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminTestController struct {
	adminTestService service.AdminTestService
	questionService  service.QuestionService
}

func NewAdminTestController(adminTestService service.AdminTestService, questionService service.QuestionService) *AdminTestController {
	return &AdminTestController{adminTestService: adminTestService, questionService: questionService}
}

// CreateTest godoc
// @Summary (Admin) Create a new complete test
// @Description Admin creates a test with its sections and question groups. Each group needs one correct answer per sub-question, or exactly one when it has none. Essays carry no answer key.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param test_data body dto.TestCreateDTO true "Test with sections and questions"
// @Success 201 {object} dto.TestResponseDTO "Test created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateTest: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	testResp, err := c.adminTestService.CreateTest(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to create test")
		return
	}
	ctx.JSON(http.StatusCreated, testResp)
}

// GetTest godoc
// @Summary (Admin) Get a test including its answer key
// @Tags Admin - Tests
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [get]
func (c *AdminTestController) GetTest(ctx *gin.Context) {
	testID, ok := controller.ParseIDParam(ctx, "test_id", "Test ID")
	if !ok {
		return
	}
	testResp, err := c.adminTestService.GetTest(ctx.Request.Context(), testID)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to retrieve test")
		return
	}
	ctx.JSON(http.StatusOK, testResp)
}

// UpdateTest godoc
// @Summary (Admin) Update test metadata
// @Description Only the fields present in the body are changed.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param test_id path int true "Test ID"
// @Param test_data body dto.TestUpdateDTO true "Fields to change"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [put]
func (c *AdminTestController) UpdateTest(ctx *gin.Context) {
	testID, ok := controller.ParseIDParam(ctx, "test_id", "Test ID")
	if !ok {
		return
	}
	var req dto.TestUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	testResp, err := c.adminTestService.UpdateTest(ctx.Request.Context(), testID, req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to update test")
		return
	}
	ctx.JSON(http.StatusOK, testResp)
}

// DeleteTest godoc
// @Summary (Admin) Delete a test
// @Description Soft deletes the test. Existing submissions keep their history.
// @Tags Admin - Tests
// @Param test_id path int true "Test ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [delete]
func (c *AdminTestController) DeleteTest(ctx *gin.Context) {
	testID, ok := controller.ParseIDParam(ctx, "test_id", "Test ID")
	if !ok {
		return
	}
	if err := c.adminTestService.DeleteTest(ctx.Request.Context(), testID); err != nil {
		controller.RespondError(ctx, err, "Failed to delete test")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UpdateQuestion godoc
// @Summary (Admin) Replace the content of a question group
// @Tags Admin - Questions
// @Accept json
// @Produce json
// @Param question_id path int true "Question ID"
// @Param question_data body dto.QuestionUpdateDTO true "New question content"
// @Success 200 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id} [put]
func (c *AdminTestController) UpdateQuestion(ctx *gin.Context) {
	questionID, ok := controller.ParseIDParam(ctx, "question_id", "Question ID")
	if !ok {
		return
	}
	var req dto.QuestionUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.questionService.UpdateQuestion(ctx.Request.Context(), questionID, req)
	if err != nil {
		controller.RespondError(ctx, err, "Failed to update question")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a question group
// @Tags Admin - Questions
// @Param question_id path int true "Question ID"
// @Success 204 "Deleted"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{question_id} [delete]
func (c *AdminTestController) DeleteQuestion(ctx *gin.Context) {
	questionID, ok := controller.ParseIDParam(ctx, "question_id", "Question ID")
	if !ok {
		return
	}
	if err := c.questionService.DeleteQuestion(ctx.Request.Context(), questionID); err != nil {
		controller.RespondError(ctx, err, "Failed to delete question")
		return
	}
	ctx.Status(http.StatusNoContent)
}
