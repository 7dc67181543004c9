package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

type catalogService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewCatalogService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) CatalogService {
	return &catalogService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *catalogService) Load(ctx context.Context, assessmentID uint) (*Catalog, error) {
	assessment, err := s.repo.Assessment().GetCatalog(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, &CatalogLoadError{AssessmentID: assessmentID, Err: ErrAssessmentNotFound}
		}
		s.logger.Error("Failed to load catalog", "assessment_id", assessmentID, "error", err)
		return nil, &CatalogLoadError{AssessmentID: assessmentID, Err: err}
	}

	if len(assessment.Questions) == 0 {
		return nil, &CatalogLoadError{AssessmentID: assessmentID, Err: ErrNoQuestions}
	}

	questions := assessment.Questions
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].OrderIndex < questions[j].OrderIndex
	})
	for i := range questions {
		opts := questions[i].Options
		sort.SliceStable(opts, func(a, b int) bool {
			return opts[a].OrderIndex < opts[b].OrderIndex
		})
	}

	return &Catalog{Assessment: assessment, Questions: questions}, nil
}

func (s *catalogService) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	assessments, total, err := s.repo.Assessment().List(ctx, s.db, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, total, nil
}
