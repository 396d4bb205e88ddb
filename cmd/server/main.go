package main

import (
	"log"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldvantageai/fieldvantage/internal/config"
	"github.com/fieldvantageai/fieldvantage/internal/constants"
	"github.com/fieldvantageai/fieldvantage/internal/database"
	"github.com/fieldvantageai/fieldvantage/internal/handlers"
	"github.com/fieldvantageai/fieldvantage/internal/logger"
	"github.com/fieldvantageai/fieldvantage/internal/middleware"
	"github.com/fieldvantageai/fieldvantage/internal/repository"
	"github.com/fieldvantageai/fieldvantage/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		logger.Logger().Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Logger().Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		logger.Logger().Fatal("failed to create Redis store", zap.Error(err))
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	// Two named sessions share the store: one carries authentication,
	// the other carries the sticky company hint.
	r.Use(sessions.SessionsMany([]string{constants.SessionAuth, constants.SessionCompany}, store))

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	contextService := services.NewContextService(companyRepo, userRepo)
	companyService := services.NewCompanyService(companyRepo, employeeRepo)
	inviteService := services.NewInviteService(
		inviteRepo, employeeRepo, userRepo, notificationRepo,
		services.WithInviteExpiry(time.Duration(cfg.InviteExpiryHours)*time.Hour),
	)
	notificationService := services.NewNotificationService(notificationRepo, inviteRepo, inviteService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	companyHandler := handlers.NewCompanyHandler(companyService, contextService)
	inviteHandler := handlers.NewInviteHandler(inviteService, authService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "FieldVantage API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Company routes (protected)
		companies := api.Group("/companies")
		companies.Use(middleware.RequireAuth())
		{
			companies.POST("", companyHandler.RegisterCompany)
			companies.GET("", companyHandler.ListCompanies)
			companies.POST("/select", companyHandler.SelectCompany)
			companies.GET("/current", companyHandler.GetActiveContext)
			companies.GET("/:id/members", middleware.RequireCompanyAccess(), companyHandler.ListMembers)
			companies.DELETE("/:id/members/:user_id", middleware.RequireCompanyAccess(), middleware.RequireCompanyManager(), companyHandler.RemoveMember)
			companies.POST("/:id/employees", middleware.RequireCompanyAccess(), middleware.RequireCompanyManager(), companyHandler.CreateEmployee)
			companies.GET("/:id/employees", middleware.RequireCompanyAccess(), companyHandler.ListEmployees)
		}

		// Invite routes
		invites := api.Group("/invites")
		{
			// Token resolution is public: the link lands before login.
			invites.POST("/resolve", inviteHandler.ResolveByToken)

			invites.POST("", middleware.RequireAuth(), middleware.RequireActiveContext(contextService), inviteHandler.CreateInvite)
			invites.POST("/:id/accept", middleware.RequireAuth(), inviteHandler.AcceptInvite)
			invites.POST("/:id/revoke", middleware.RequireAuth(), middleware.RequireActiveContext(contextService), inviteHandler.RevokeInvite)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.ListInbox)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/:id/decline", notificationHandler.Decline)
		}
	}

	// Start server
	logger.Logger().Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Logger().Fatal("failed to start server", zap.Error(err))
	}
}
