package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/services"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/utils"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

type ErrorResponse struct {
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// BaseHandler carries the logger and request helpers shared by all handlers
type BaseHandler struct {
	logger    utils.Logger
	validator *validator.Validator
}

func NewBaseHandler(logger utils.Logger, v *validator.Validator) BaseHandler {
	if v == nil {
		v = validator.New()
	}
	return BaseHandler{logger: logger, validator: v}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	utils.FromGin(c, h.logger).Debug(msg, args...)
}

// bindJSON decodes and validates the request body, writing 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	if err := h.validator.Validate(req); err != nil {
		h.handleServiceError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) userID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// pagination reads limit and offset; limit is capped at 100
func (h *BaseHandler) pagination(c *gin.Context) (int, int) {
	limit := h.parseIntQuery(c, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := h.parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: services.ValidationErrors{validationError},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment not found"})
		return
	case errors.Is(err, services.ErrAssessmentNotPublished):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment is not available"})
		return
	case errors.Is(err, services.ErrNoQuestions):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assessment has no questions"})
		return
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Submission not found"})
		return
	case errors.Is(err, services.ErrWrongAssessmentKind):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	case errors.Is(err, services.ErrQuestionNotInAssessment):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Question does not belong to this assessment"})
		return
	case errors.Is(err, services.ErrSubmissionReadOnly):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Submission is already submitted"})
		return
	case errors.Is(err, services.ErrPositionMismatch):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Question is ahead of the current position"})
		return
	case errors.Is(err, services.ErrAtFirstQuestion):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Already at the first question"})
		return
	case errors.Is(err, services.ErrQuizAlreadyCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Quiz already completed"})
		return
	case errors.Is(err, services.ErrQuizWindowClosed):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Quiz is not available at this time"})
		return
	}

	var loadError *services.CatalogLoadError
	if services.IsRetryable(err) || errors.As(err, &loadError) {
		utils.FromGin(c, h.logger).Warn("Retryable service error", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message:   "Temporarily unavailable, please retry",
			Retryable: true,
		})
		return
	}

	utils.FromGin(c, h.logger).Error("Unhandled service error", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
	})
}
