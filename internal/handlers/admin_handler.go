package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/services"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/utils"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize   = 10 << 20
)

// AdminHandler covers catalog import and result reporting
type AdminHandler struct {
	BaseHandler
	importExport services.ImportExportService
	submissions  services.SubmissionService
}

func NewAdminHandler(
	importExport services.ImportExportService,
	submissions services.SubmissionService,
	v *validator.Validator,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  NewBaseHandler(logger, v),
		importExport: importExport,
		submissions:  submissions,
	}
}

// ImportCatalog creates an assessment from an uploaded workbook
// @Summary Import assessment catalog
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook with Assessment and Questions sheets"
// @Success 201 {object} SuccessResponse{data=models.Assessment}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/catalog/import [post]
func (h *AdminHandler) ImportCatalog(c *gin.Context) {
	h.LogRequest(c, "Importing catalog")

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "File is required",
			Details: err.Error(),
		})
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Only .xlsx files are supported"})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "File too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unable to read file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	assessment, err := h.importExport.ImportCatalog(c.Request.Context(), file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Catalog imported",
		Data:    assessment,
	})
}

func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	limit, offset := h.pagination(c)
	summaries, total, err := h.submissions.Summaries(c.Request.Context(), id, repositories.SubmissionFilters{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: summaries, Total: total, Limit: limit, Offset: offset})
}

// ExportResults downloads every submission of an assessment as a workbook
// @Summary Export results
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Assessment ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /admin/assessments/{id}/results/export [get]
func (h *AdminHandler) ExportResults(c *gin.Context) {
	h.LogRequest(c, "Exporting results")

	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	// buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.importExport.ExportResults(c.Request.Context(), id, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("assessment_%d_results_%s.xlsx", id, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
