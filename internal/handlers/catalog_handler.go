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

type CatalogHandler struct {
	BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService, v *validator.Validator, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger, v),
		catalogService: catalogService,
	}
}

// ListAssessments lists assessments; members only see published ones
// @Summary List assessments
// @Tags assessments
// @Produce json
// @Param kind query string false "questionnaire or quiz"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse
// @Router /assessments [get]
func (h *CatalogHandler) ListAssessments(c *gin.Context) {
	h.LogRequest(c, "Listing assessments")

	limit, offset := h.pagination(c)
	filters := repositories.AssessmentFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if kind := c.Query("kind"); kind != "" {
		k := models.AssessmentKind(kind)
		if k != models.KindQuestionnaire && k != models.KindQuiz {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid kind",
				Details: "must be questionnaire or quiz",
			})
			return
		}
		filters.Kind = &k
	}

	if role, _ := GetUserRoleFromContext(c); role != models.RoleAdmin {
		published := models.StatusPublished
		filters.Status = &published
	}

	assessments, total, err := h.catalogService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:  assessments,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// GetCatalog returns the ordered questions of an assessment without correct answers
// @Summary Get assessment catalog
// @Tags assessments
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} services.Catalog
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/catalog [get]
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	catalog, err := h.catalogService.Load(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if role, _ := GetUserRoleFromContext(c); role != models.RoleAdmin && !catalog.Assessment.IsPublished() {
		h.handleServiceError(c, services.ErrAssessmentNotPublished)
		return
	}

	c.JSON(http.StatusOK, catalog.PublicView())
}
