package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/services"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/utils"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

// MeHandler serves the caller's own submissions and rewards
type MeHandler struct {
	BaseHandler
	submissions services.SubmissionService
	rewards     services.RewardService
}

func NewMeHandler(submissions services.SubmissionService, rewards services.RewardService, v *validator.Validator, logger utils.Logger) *MeHandler {
	return &MeHandler{
		BaseHandler: NewBaseHandler(logger, v),
		submissions: submissions,
		rewards:     rewards,
	}
}

// GetProfile returns the authenticated user as resolved by the auth middleware
func (h *MeHandler) GetProfile(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListSubmissions
// @Summary List my submissions
// @Tags me
// @Produce json
// @Param state query string false "in_progress or submitted"
// @Success 200 {object} ListResponse
// @Router /me/submissions [get]
func (h *MeHandler) ListSubmissions(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	limit, offset := h.pagination(c)
	filters := repositories.SubmissionFilters{Limit: limit, Offset: offset}
	if state := c.Query("state"); state != "" {
		s := models.SubmissionState(state)
		if s != models.SubmissionInProgress && s != models.SubmissionSubmitted {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid state",
				Details: "must be in_progress or submitted",
			})
			return
		}
		filters.State = &s
	}

	submissions, total, err := h.submissions.ListByUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: submissions, Total: total, Limit: limit, Offset: offset})
}

// ListRewards
// @Summary List my rewards
// @Tags me
// @Produce json
// @Success 200 {object} ListResponse
// @Router /me/rewards [get]
func (h *MeHandler) ListRewards(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	limit, offset := h.pagination(c)
	filters := repositories.RewardFilters{Limit: limit, Offset: offset}
	if category := c.Query("category_id"); category != "" {
		filters.CategoryID = &category
	}

	rewards, total, err := h.rewards.ListForUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: rewards, Total: total, Limit: limit, Offset: offset})
}
