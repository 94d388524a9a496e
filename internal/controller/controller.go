package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/middleware"
	"github.com/lshigami/bandwise/internal/service"
	"github.com/rs/zerolog/log"
)

// ParseIDParam reads a positive integer path parameter. On failure it has
// already written a 400 response.
func ParseIDParam(ctx *gin.Context, name, label string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || val == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + label + " format"})
		return 0, false
	}
	return uint(val), true
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTestNotFound),
		errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateSubmission),
		errors.Is(err, service.ErrSubmissionChanged):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidRubric),
		errors.Is(err, service.ErrInvalidTest),
		errors.Is(err, service.ErrEmptySubmission),
		errors.Is(err, service.ErrNotWritingTest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnsupportedSkill):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrAIGradingDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// RespondError writes the error body. Internal errors are logged and their
// details withheld from the client.
func RespondError(ctx *gin.Context, err error, message string) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.FullPath()).Str("request_id", ctx.GetString(middleware.RequestIDKey)).Msg(message)
		ctx.Error(err)
		ctx.JSON(status, dto.ErrorResponse{Message: message})
		return
	}
	log.Warn().Err(err).Str("path", ctx.FullPath()).Int("status", status).Msg(message)
	ctx.JSON(status, dto.ErrorResponse{Message: message, Details: []string{err.Error()}})
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// Healthz godoc
// @Summary Liveness and database check
// @Tags Ops
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /healthz [get]
func (c *HealthController) Healthz(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()
	if err := c.db.PingContext(pingCtx); err != nil {
		log.Warn().Err(err).Msg("Health check: database ping failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "ok"})
}
