package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/services"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/utils"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

// QuestionnaireHandler drives the one-question-at-a-time flow
type QuestionnaireHandler struct {
	BaseHandler
	navigation services.NavigationService
	answers    services.AnswerService
}

func NewQuestionnaireHandler(
	navigation services.NavigationService,
	answers services.AnswerService,
	v *validator.Validator,
	logger utils.Logger,
) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		BaseHandler: NewBaseHandler(logger, v),
		navigation:  navigation,
		answers:     answers,
	}
}

// Enter opens the questionnaire at the stored position, starting a submission on first entry
// @Summary Enter questionnaire
// @Tags questionnaires
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} services.NavigationView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questionnaires/{id}/enter [post]
func (h *QuestionnaireHandler) Enter(c *gin.Context) {
	h.LogRequest(c, "Entering questionnaire")

	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	view, err := h.navigation.Enter(c.Request.Context(), userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Next saves the answer of the current question and advances; on the last question it submits
// @Summary Next question
// @Tags questionnaires
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param request body validator.NextRequest true "Current question and its answer"
// @Success 200 {object} services.NavigationView
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /questionnaires/{id}/next [post]
func (h *QuestionnaireHandler) Next(c *gin.Context) {
	h.LogRequest(c, "Advancing questionnaire")

	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req validator.NextRequest
	if !h.bindJSON(c, &req) {
		return
	}

	navReq := services.NavigationRequest{QuestionID: req.QuestionID}
	if req.Answer != nil {
		value, err := req.Answer.ToAnswerValue()
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		navReq.Answer = value
	}

	view, err := h.navigation.Next(c.Request.Context(), userID, id, navReq)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Back moves to the previous question
// @Summary Previous question
// @Tags questionnaires
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param request body validator.BackRequest true "Current question and optional answer"
// @Success 200 {object} services.NavigationView
// @Failure 409 {object} ErrorResponse
// @Router /questionnaires/{id}/back [post]
func (h *QuestionnaireHandler) Back(c *gin.Context) {
	h.LogRequest(c, "Moving back in questionnaire")

	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req validator.BackRequest
	if !h.bindJSON(c, &req) {
		return
	}

	navReq := services.NavigationRequest{QuestionID: req.QuestionID}
	if req.Answer != nil {
		value, err := req.Answer.ToAnswerValue()
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		navReq.Answer = value
	}

	view, err := h.navigation.Back(c.Request.Context(), userID, id, navReq)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveAnswer stores an answer without moving
func (h *QuestionnaireHandler) SaveAnswer(c *gin.Context) {
	h.LogRequest(c, "Saving answer")

	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req validator.SaveAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	value, err := req.Answer.ToAnswerValue()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	answer, err := h.answers.Save(c.Request.Context(), userID, id, questionID, value)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *QuestionnaireHandler) ListAnswers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	answers, err := h.answers.List(c.Request.Context(), userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answers": answers})
}
