package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/metrics"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/models"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/services"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/utils"
	"github.com/dfarmer-bit/find-the-good-challenge-sub000/internal/validator"
)

type HandlerManager struct {
	catalogHandler       *CatalogHandler
	questionnaireHandler *QuestionnaireHandler
	quizHandler          *QuizHandler
	meHandler            *MeHandler
	adminHandler         *AdminHandler
	authMiddleware       *CasdoorAuthMiddleware
	serviceManager       services.ServiceManager
	metrics              *metrics.Metrics
	logger               utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	authMiddleware *CasdoorAuthMiddleware,
	m *metrics.Metrics,
) *HandlerManager {
	return &HandlerManager{
		catalogHandler:       NewCatalogHandler(serviceManager.Catalog(), validator, logger),
		questionnaireHandler: NewQuestionnaireHandler(serviceManager.Navigation(), serviceManager.Answer(), validator, logger),
		quizHandler:          NewQuizHandler(serviceManager.Quiz(), validator, logger),
		meHandler:            NewMeHandler(serviceManager.Submission(), serviceManager.Reward(), validator, logger),
		adminHandler:         NewAdminHandler(serviceManager.ImportExport(), serviceManager.Submission(), validator, logger),
		authMiddleware:       authMiddleware,
		serviceManager:       serviceManager,
		metrics:              m,
		logger:               logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		assessments := v1.Group("/assessments")
		{
			assessments.GET("", hm.catalogHandler.ListAssessments)
			assessments.GET("/:id/catalog", hm.catalogHandler.GetCatalog)
		}

		questionnaires := v1.Group("/questionnaires")
		{
			questionnaires.POST("/:id/enter", hm.questionnaireHandler.Enter)
			questionnaires.POST("/:id/next", hm.questionnaireHandler.Next)
			questionnaires.POST("/:id/back", hm.questionnaireHandler.Back)
			questionnaires.GET("/:id/answers", hm.questionnaireHandler.ListAnswers)
			questionnaires.PUT("/:id/answers/:question_id", hm.questionnaireHandler.SaveAnswer)
		}

		quizzes := v1.Group("/quizzes")
		{
			quizzes.GET("/:id", hm.quizHandler.OpenQuiz)
			quizzes.POST("/:id/submit", hm.quizHandler.SubmitQuiz)
			quizzes.GET("/:id/result", hm.quizHandler.GetResult)
		}

		me := v1.Group("/me")
		{
			me.GET("", hm.meHandler.GetProfile)
			me.GET("/submissions", hm.meHandler.ListSubmissions)
			me.GET("/rewards", hm.meHandler.ListRewards)
		}

		// Admin routes - Admins only
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.POST("/catalog/import", hm.adminHandler.ImportCatalog)
			admin.GET("/assessments/:id/submissions", hm.adminHandler.ListSubmissions)
			admin.GET("/assessments/:id/results/export", hm.adminHandler.ExportResults)
		}
	}

	router.GET("/health", hm.health)

	if hm.metrics != nil {
		router.GET("/metrics", hm.metrics.Handler())
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.FromGin(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "challenge-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "challenge-service",
	})
}
