package repositories

import "context"

// Repository aggregates every repository used by the services
type Repository interface {
	// Catalog
	Assessment() AssessmentRepository

	// Progress
	Submission() SubmissionRepository
	Answer() AnswerRepository

	// Rewards
	Reward() RewardRepository

	// Reporting
	Results() ResultsRepository

	// User domain (read-only, backed by Casdoor)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
