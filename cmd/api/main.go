package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"expenseflow/internal/config"
	"expenseflow/internal/database"
	"expenseflow/internal/dispatch"
	"expenseflow/internal/handlers"
	"expenseflow/internal/logger"
	"expenseflow/internal/middleware"
	"expenseflow/internal/models"
	"expenseflow/internal/services"
	"expenseflow/internal/storage"
	"expenseflow/internal/validator"

	_ "expenseflow/internal/docs" // Import swagger docs
)

// @title           Expenseflow API
// @version         1.0
// @description     Expenseflow is an expense reporting backend with a role-based approval workflow, receipt attachments, and finance reporting.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Attachment storage
	store, err := storage.NewLocalStore(appConfig.StorageDir)
	if err != nil {
		return fmt.Errorf("failed to initialize attachment storage: %w", err)
	}

	// Side-effect dispatcher, drained on shutdown
	dispatcher := dispatch.New(256, 4)
	defer dispatcher.Close()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	auditService := services.NewAuditService(db)
	notifier := services.NewNotificationService(appConfig)
	expenseService := services.NewExpenseService(db, userService, store, auditService, notifier, dispatcher)
	approvalService := services.NewApprovalService(db, userService, auditService, notifier, dispatcher)
	reportService := services.NewReportService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	adminHandler := handlers.NewAdminHandler(userService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Expense routes
	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetMyExpenses)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)
	expenses.GET("/:id/history", approvalHandler.GetApprovalHistory)

	// Approval workflow routes
	decisions := expenses.Group("")
	decisions.Use(middleware.RequireRoles(models.RoleManager, models.RoleFinance, models.RoleAdmin))
	decisions.POST("/:id/approve", approvalHandler.ApproveExpense)
	decisions.POST("/:id/reject", approvalHandler.RejectExpense)

	approvals := protected.Group("/approvals")
	approvals.Use(middleware.RequireRoles(models.RoleManager, models.RoleFinance, models.RoleAdmin))
	approvals.GET("/pending", approvalHandler.GetPendingApprovals)

	// Category routes
	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categoryAdmin := categories.Group("")
	categoryAdmin.Use(middleware.RequireRoles(models.RoleAdmin))
	categoryAdmin.POST("", categoryHandler.CreateCategory)
	categoryAdmin.PUT("/:id", categoryHandler.UpdateCategory)
	categoryAdmin.DELETE("/:id", categoryHandler.DeleteCategory)

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id/roles", adminHandler.AssignRoles)
	admin.PUT("/users/:id/manager", adminHandler.SetManager)
	admin.GET("/expenses", expenseHandler.GetAllExpenses)
	admin.GET("/audit-logs", adminHandler.ListAuditLogs)

	// Report routes
	reports := protected.Group("/reports")
	reports.Use(middleware.RequireRoles(models.RoleFinance, models.RoleAdmin))
	reports.GET("/by-category", reportHandler.GetCategoryTotals)
	reports.GET("/monthly", reportHandler.GetMonthlyTrend)
	reports.GET("/export", reportHandler.ExportExpenses)

	log.Infof("Starting Expenseflow backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
