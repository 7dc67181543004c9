package postgres

import (
	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
)

var (
	assessmentSortColumns = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
	}

	submissionSortColumns = map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"id":           true,
		"started_at":   true,
		"submitted_at": true,
	}
)

// SharedHelpers contains common query building used by several repositories
type SharedHelpers struct{}

func NewSharedHelpers() *SharedHelpers {
	return &SharedHelpers{}
}

// ApplyAssessmentFilters applies common filters to assessment queries
func (h *SharedHelpers) ApplyAssessmentFilters(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

// ApplySubmissionFilters applies common filters to submission queries, prefix qualifies the column names
func (h *SharedHelpers) ApplySubmissionFilters(query *gorm.DB, prefix string, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.State != nil {
		query = query.Where(prefix+"state = ?", *filters.State)
	}
	if filters.DateFrom != nil {
		query = query.Where(prefix+"started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where(prefix+"started_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with a column whitelist
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, allowed map[string]bool, prefix, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(prefix + sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
