package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

const (
	AssessmentSheet = "Assessment"
	QuestionsSheet  = "Questions"
	ResultsSheet    = "Results"

	exportPageSize = 500
)

var (
	AssessmentColumns = []string{"title", "description", "kind", "point_value", "status", "available_from", "available_until"}
	QuestionColumns   = []string{"question_order", "prompt", "type", "correct_option_index", "option_label", "option_order", "rating_value", "option_index"}
	resultColumns     = []interface{}{"Submission", "User", "State", "Started", "Submitted", "Score %", "Answers", "Reward issued"}
)

type importExportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.BusinessValidator
	results   SubmissionService
}

func NewImportExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, bv *validator.BusinessValidator, results SubmissionService) ImportExportService {
	return &importExportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: bv,
		results:   results,
	}
}

func (s *importExportService) ImportCatalog(ctx context.Context, r io.Reader, userID string) (*models.Assessment, error) {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check user role: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(userID, "catalog", "import", "admin role required")
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ValidationErrors{NewValidationError("file", "not a readable xlsx workbook", nil)}
	}
	defer f.Close()

	req, err := parseCatalogWorkbook(f)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateImport(req); err != nil {
		return nil, err
	}

	assessment := req.ToModel(userID)
	if err := s.repo.Assessment().Create(ctx, s.db, assessment); err != nil {
		s.logger.Error("Failed to import catalog", "title", req.Title, "user_id", userID, "error", err)
		return nil, &PersistenceError{Op: "import catalog", Err: err}
	}
	s.repo.Assessment().InvalidateCatalog(ctx, assessment.ID)

	s.logger.Info("Catalog imported",
		"assessment_id", assessment.ID,
		"kind", assessment.Kind,
		"questions", len(assessment.Questions),
		"user_id", userID)
	return assessment, nil
}

func (s *importExportService) ExportResults(ctx context.Context, assessmentID uint, w io.Writer) error {
	if _, err := s.repo.Assessment().GetByID(ctx, s.db, assessmentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return &CatalogLoadError{AssessmentID: assessmentID, Err: ErrAssessmentNotFound}
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(ResultsSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	if err := sw.SetRow("A1", resultColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	filters := repositories.SubmissionFilters{Limit: exportPageSize, SortBy: "id", SortOrder: "asc"}
	for {
		page, total, err := s.results.Summaries(ctx, assessmentID, filters)
		if err != nil {
			return err
		}
		for _, sum := range page {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := sw.SetRow(cell, summaryRow(sum)); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
		filters.Offset += len(page)
		if len(page) == 0 || int64(filters.Offset) >= total {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush results sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Results exported", "assessment_id", assessmentID, "rows", row-2)
	return nil
}

func summaryRow(sum models.SubmissionSummary) []interface{} {
	submitted := ""
	if sum.SubmittedAt != nil {
		submitted = sum.SubmittedAt.UTC().Format(time.RFC3339)
	}
	score := ""
	if sum.ScorePercent != nil {
		score = strconv.Itoa(*sum.ScorePercent)
	}
	reward := "no"
	if sum.RewardIssued {
		reward = "yes"
	}
	return []interface{}{
		sum.SubmissionID,
		sanitizeForExcel(sum.UserID),
		string(sum.State),
		sum.StartedAt.UTC().Format(time.RFC3339),
		submitted,
		score,
		sum.AnswerCount,
		reward,
	}
}

// sanitizeForExcel escapes values a spreadsheet would evaluate as a formula
func sanitizeForExcel(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// ===== WORKBOOK PARSING =====

type sheetRow struct {
	num    int
	cells  []string
	header map[string]int
}

func (r sheetRow) get(col string) string {
	i, ok := r.header[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r sheetRow) field(sheet, col string) string {
	return fmt.Sprintf("%s!%s%d", sheet, col, r.num)
}

func readSheet(f *excelize.File, sheet string, required []string) ([]sheetRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, ValidationErrors{NewValidationError(sheet, "sheet is missing", nil)}
	}
	if len(rows) < 2 {
		return nil, ValidationErrors{NewValidationError(sheet, "sheet has no data rows", nil)}
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var errs ValidationErrors
	for _, col := range required {
		if _, ok := header[col]; !ok {
			errs = append(errs, NewValidationError(sheet, "missing column "+col, nil))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	out := make([]sheetRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if isBlankRow(cells) {
			continue
		}
		out = append(out, sheetRow{num: i + 2, cells: cells, header: header})
	}
	return out, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseCatalogWorkbook reads one assessment row and one row per question option.
// Rows of the same question_order form one question; text questions use a single row without option cells.
func parseCatalogWorkbook(f *excelize.File) (*validator.AssessmentImportRequest, error) {
	meta, err := readSheet(f, AssessmentSheet, []string{"title", "kind"})
	if err != nil {
		return nil, err
	}
	qrows, err := readSheet(f, QuestionsSheet, []string{"question_order", "prompt", "type"})
	if err != nil {
		return nil, err
	}

	var errs ValidationErrors
	row := meta[0]
	req := &validator.AssessmentImportRequest{
		Title:  row.get("title"),
		Kind:   models.AssessmentKind(strings.ToLower(row.get("kind"))),
		Status: models.AssessmentStatus(strings.ToLower(row.get("status"))),
	}
	if d := row.get("description"); d != "" {
		req.Description = &d
	}
	if v := row.get("point_value"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, NewValidationError(row.field(AssessmentSheet, "point_value"), "must be a whole number", v))
		}
		req.PointValue = n
	}
	for col, dst := range map[string]**time.Time{"available_from": &req.AvailableFrom, "available_until": &req.AvailableUntil} {
		v := row.get(col)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, NewValidationError(row.field(AssessmentSheet, col), "must be an RFC3339 timestamp", v))
			continue
		}
		*dst = &t
	}

	byOrder := make(map[int]int)
	for _, r := range qrows {
		order, err := strconv.Atoi(r.get("question_order"))
		if err != nil {
			errs = append(errs, NewValidationError(r.field(QuestionsSheet, "question_order"), "must be a whole number", r.get("question_order")))
			continue
		}

		qi, seen := byOrder[order]
		if !seen {
			q := validator.QuestionImportRequest{
				OrderIndex: order,
				Prompt:     r.get("prompt"),
				Type:       models.QuestionType(strings.ToLower(r.get("type"))),
			}
			if v := r.get("correct_option_index"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					errs = append(errs, NewValidationError(r.field(QuestionsSheet, "correct_option_index"), "must be a whole number", v))
				} else {
					q.CorrectOptionIndex = &n
				}
			}
			req.Questions = append(req.Questions, q)
			qi = len(req.Questions) - 1
			byOrder[order] = qi
		}

		label := r.get("option_label")
		if label == "" {
			continue
		}
		opt := validator.OptionImportRequest{Label: label, OrderIndex: len(req.Questions[qi].Options)}
		if v := r.get("option_order"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, NewValidationError(r.field(QuestionsSheet, "option_order"), "must be a whole number", v))
			} else {
				opt.OrderIndex = n
			}
		}
		for col, dst := range map[string]**int{"rating_value": &opt.RatingValue, "option_index": &opt.OptionIndex} {
			v := r.get(col)
			if v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, NewValidationError(r.field(QuestionsSheet, col), "must be a whole number", v))
				continue
			}
			*dst = &n
		}
		req.Questions[qi].Options = append(req.Questions[qi].Options, opt)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return req, nil
}
