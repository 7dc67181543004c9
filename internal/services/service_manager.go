package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/config"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/events"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/metrics"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/repositories"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Reward config.RewardConfig
}

// Dependencies shared by the services; Publisher and Metrics may be nil
type Dependencies struct {
	DB        *gorm.DB
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Publisher events.EventPublisher
	Metrics   *metrics.Metrics
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	publisher events.EventPublisher
	metrics   *metrics.Metrics
	config    ServiceManagerConfig

	// Service instances
	catalogService      CatalogService
	submissionService   SubmissionService
	answerService       AnswerService
	navigationService   NavigationService
	finalizationService FinalizationService
	rewardService       RewardService
	quizService         QuizService
	importExportService ImportExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, cfg ServiceManagerConfig) ServiceManager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceManager{
		db:        deps.DB,
		repo:      deps.Repo,
		logger:    logger,
		validator: validator.NewBusinessValidator(deps.Validator),
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		config:    cfg,
	}
}

// NewDefaultServiceManager uses the default reward category and passing score
func NewDefaultServiceManager(deps Dependencies) ServiceManager {
	return NewServiceManager(deps, ServiceManagerConfig{
		Reward: config.RewardConfig{
			CategoryID:       "assessment_completion",
			QuizPassingScore: 70,
		},
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.config.Validate(); err != nil {
		return err
	}
	if sm.repo == nil {
		return fmt.Errorf("failed to initialize services: repository is required")
	}

	sm.initializeServices()

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	sm.catalogService = NewCatalogService(sm.repo, sm.db, sm.logger)
	sm.submissionService = NewSubmissionService(sm.repo, sm.db, sm.logger, sm.config.Reward)
	sm.answerService = NewAnswerService(sm.repo, sm.db, sm.logger, sm.catalogService, sm.validator)
	sm.rewardService = NewRewardService(sm.repo, sm.db, sm.logger, sm.config.Reward, sm.publisher, sm.metrics)
	sm.finalizationService = NewFinalizationService(sm.repo, sm.db, sm.logger, sm.rewardService, sm.publisher, sm.metrics)
	sm.navigationService = NewNavigationService(sm.repo, sm.db, sm.logger,
		sm.catalogService, sm.submissionService, sm.answerService, sm.finalizationService)
	sm.quizService = NewQuizService(sm.repo, sm.db, sm.logger, sm.config.Reward,
		sm.catalogService, sm.rewardService, sm.validator, sm.publisher, sm.metrics)
	sm.importExportService = NewImportExportService(sm.repo, sm.db, sm.logger, sm.validator, sm.submissionService)

	sm.logger.Info("Services initialized",
		"reward_category", sm.config.Reward.CategoryID,
		"quiz_passing_score", sm.config.Reward.QuizPassingScore,
		"events", sm.publisher != nil)
}

// Service getters

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

func (sm *serviceManager) Catalog() CatalogService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.catalogService
}

func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.submissionService
}

func (sm *serviceManager) Answer() AnswerService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.answerService
}

func (sm *serviceManager) Navigation() NavigationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.navigationService
}

func (sm *serviceManager) Finalization() FinalizationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.finalizationService
}

func (sm *serviceManager) Reward() RewardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.rewardService
}

func (sm *serviceManager) Quiz() QuizService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.quizService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.importExportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// Validate validates the service manager configuration
func (c *ServiceManagerConfig) Validate() error {
	var errors []string

	if c.Reward.CategoryID == "" {
		errors = append(errors, "reward category is required")
	}
	if c.Reward.QuizPassingScore < 0 || c.Reward.QuizPassingScore > 100 {
		errors = append(errors, "quiz passing score must be between 0 and 100")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}
