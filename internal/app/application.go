package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/authorization"
	"depanku-backend/internal/config"
	"depanku-backend/internal/handlers"
	"depanku-backend/internal/middleware"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/internal/service"
	"depanku-backend/pkg/cache"
	"depanku-backend/pkg/logger"
	"depanku-backend/pkg/validator"
)

type Application struct {
	cfg *config.Config

	db    *gorm.DB
	cache *cache.Cache

	rateLimits *middleware.RateLimitManager

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	router *gin.Engine
	server *http.Server
}

type repositoryContainer struct {
	User        repository.UserRepository
	Opportunity repository.OpportunityRepository
	Bookmark    repository.BookmarkRepository
	Application repository.ApplicationRepository
	Search      repository.SearchRepository
	Setting     repository.SettingRepository
}

type serviceContainer struct {
	Auth        *service.AuthService
	Email       *service.EmailService
	Opportunity *service.OpportunityService
	Moderation  *service.ModerationService
	Form        *service.FormService
	Bookmark    *service.BookmarkService
	Application *service.ApplicationService
	Profile     *service.ProfileService
	Upload      *service.UploadService
	Search      *service.SearchService
	AI          *service.AIService
	Algolia     *service.AlgoliaService
}

type handlerContainer struct {
	Auth        *handlers.AuthHandler
	Opportunity *handlers.OpportunityHandler
	Form        *handlers.FormHandler
	Bookmark    *handlers.BookmarkHandler
	Application *handlers.ApplicationHandler
	Settings    *handlers.SettingsHandler
	Search      *handlers.SearchHandler
	AI          *handlers.AIHandler
	Admin       *handlers.AdminHandler
}

func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &Application{cfg: cfg}

	validator.Init()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.runMigrations(); err != nil {
		return nil, err
	}
	if err := app.createIndexes(); err != nil {
		return nil, err
	}

	app.initCache()
	app.rateLimits = middleware.NewRateLimitManager(ctx)

	app.initRepositories()
	app.initServices()
	app.initHandlers()
	app.initRouter()

	app.startViewFlusher(ctx)

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

const viewFlushInterval = 5 * time.Minute

// startViewFlusher periodically folds Redis-buffered view counters into
// the database. A final flush happens in Shutdown.
func (a *Application) startViewFlusher(ctx context.Context) {
	if !a.cache.Enabled() {
		return
	}
	go func() {
		ticker := time.NewTicker(viewFlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.services.Opportunity.FlushViews()
			}
		}
	}()
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.rateLimits != nil {
		a.rateLimits.Shutdown()
	}

	if a.services.Opportunity != nil {
		a.services.Opportunity.FlushViews()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(
		&models.User{},
		&models.Opportunity{},
		&models.Bookmark{},
		&models.Application{},
		&models.Setting{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database migration completed", nil)
	return nil
}

func (a *Application) createIndexes() error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_opportunities_status_published_at ON opportunities(status, published_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_opportunities_type_status ON opportunities(type, status)",
		"CREATE INDEX IF NOT EXISTS idx_opportunities_tags ON opportunities USING GIN (tags)",
		"CREATE INDEX IF NOT EXISTS idx_opportunities_views ON opportunities(views DESC) WHERE status = 'published'",
		"CREATE INDEX IF NOT EXISTS idx_applications_opportunity_status ON applications(opportunity_id, status)",
	}

	for _, stmt := range statements {
		if err := a.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (a *Application) initCache() {
	c, err := cache.NewCache(a.cfg.RedisURL, a.cfg.EnableCache)
	if err != nil {
		// The cache is an accelerator, never a dependency.
		logger.Warn("Redis unavailable, running without cache", map[string]interface{}{
			"error": err.Error(),
		})
		c, _ = cache.NewCache("", false)
	}
	a.cache = c
}

func (a *Application) initRepositories() {
	a.repositories = repositoryContainer{
		User:        repository.NewUserRepository(a.db),
		Opportunity: repository.NewOpportunityRepository(a.db),
		Bookmark:    repository.NewBookmarkRepository(a.db),
		Application: repository.NewApplicationRepository(a.db),
		Search:      repository.NewSearchRepository(a.db),
		Setting:     repository.NewSettingRepository(a.db),
	}
}

func (a *Application) initServices() {
	email := service.NewEmailService(a.cfg)
	moderation := service.NewModerationService()
	algolia := service.NewAlgoliaService(a.cfg, a.repositories.Opportunity, a.repositories.Setting)
	upload := service.NewUploadService(a.cfg)
	forms := service.NewFormService(a.repositories.Opportunity, a.cache)

	a.services = serviceContainer{
		Auth:        service.NewAuthService(a.repositories.User, email, a.cfg.JWTSecret),
		Email:       email,
		Moderation:  moderation,
		Algolia:     algolia,
		Upload:      upload,
		Form:        forms,
		Opportunity: service.NewOpportunityService(a.repositories.Opportunity, moderation, algolia, a.cache),
		Bookmark:    service.NewBookmarkService(a.repositories.Bookmark, a.repositories.Opportunity),
		Application: service.NewApplicationService(a.repositories.Application, a.repositories.Opportunity, forms),
		Profile:     service.NewProfileService(a.repositories.User, upload),
		Search:      service.NewSearchService(a.repositories.Search),
		AI:          service.NewAIService(a.cfg, a.repositories.Opportunity, a.cache),
	}
}

func (a *Application) initHandlers() {
	a.handlers = handlerContainer{
		Auth:        handlers.NewAuthHandler(a.services.Auth),
		Opportunity: handlers.NewOpportunityHandler(a.services.Opportunity, a.services.Bookmark, a.services.Search),
		Form:        handlers.NewFormHandler(a.services.Form, a.services.Opportunity),
		Bookmark:    handlers.NewBookmarkHandler(a.services.Bookmark),
		Application: handlers.NewApplicationHandler(a.services.Application),
		Settings:    handlers.NewSettingsHandler(a.services.Auth, a.services.Profile),
		Search:      handlers.NewSearchHandler(a.services.Search),
		AI:          handlers.NewAIHandler(a.services.AI),
		Admin: handlers.NewAdminHandler(
			a.services.Auth,
			a.services.Opportunity,
			a.services.Application,
			a.services.Algolia,
			a.repositories.Opportunity,
			a.repositories.Bookmark,
			a.repositories.User,
		),
	}
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(middleware.RateLimitMiddleware(a.rateLimits, a.cfg))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Request-Generation"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.Static("/uploads", a.cfg.UploadDir)

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(middleware.OptionalAuthMiddleware(a.cfg.JWTSecret))
		{
			auth := public.Group("/auth")
			auth.Use(middleware.AuthRateLimitMiddleware(a.rateLimits))
			{
				auth.POST("/signup", a.handlers.Auth.Signup)
				auth.POST("/signin", a.handlers.Auth.Signin)
				auth.POST("/signout", a.handlers.Auth.Signout)
				auth.POST("/verify-email", a.handlers.Auth.VerifyEmail)
			}

			public.GET("/opportunities", a.handlers.Opportunity.List)
			public.GET("/opportunities/:id", a.handlers.Opportunity.Get)
			public.GET("/opportunities/slug/:slug", a.handlers.Opportunity.GetBySlug)
			public.GET("/opportunities/:id/form", a.handlers.Form.Get)

			public.GET("/search", a.handlers.Search.Search)

			public.GET("/opportunities/presets/tags", a.handlers.Opportunity.TagPresets)
			public.GET("/opportunities/templates", a.handlers.Opportunity.Templates)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))
		{
			protected.GET("/auth/me", a.handlers.Auth.Me)

			protected.POST("/opportunities", a.handlers.Opportunity.Create)
			protected.PUT("/opportunities/:id", a.handlers.Opportunity.Update)
			protected.DELETE("/opportunities/:id", a.handlers.Opportunity.Delete)
			protected.POST("/opportunities/:id/publish", a.handlers.Opportunity.Publish)
			protected.POST("/opportunities/:id/unpublish", a.handlers.Opportunity.Unpublish)
			protected.GET("/opportunities/my-opportunities", a.handlers.Opportunity.Mine)

			protected.PUT("/opportunities/:id/form", a.handlers.Form.Save)
			protected.POST("/opportunities/:id/form/validate-page", a.handlers.Form.ValidatePage)

			protected.POST("/opportunities/:id/applications", a.handlers.Application.Submit)
			protected.GET("/opportunities/:id/applications", a.handlers.Application.ListForOpportunity)
			protected.GET("/applications/mine", a.handlers.Application.Mine)
			protected.PUT("/applications/:id/status", a.handlers.Application.UpdateStatus)

			protected.GET("/bookmarks", a.handlers.Bookmark.List)
			protected.POST("/bookmarks", a.handlers.Bookmark.Create)
			protected.DELETE("/bookmarks/:opportunity_id", a.handlers.Bookmark.Delete)

			protected.GET("/settings/profile", a.handlers.Settings.GetProfile)
			protected.PUT("/settings/profile", a.handlers.Settings.UpdateProfile)
			protected.GET("/profile/completion", a.handlers.Settings.Completion)
			protected.POST("/profile/picture", a.handlers.Settings.UpdatePicture)
			protected.DELETE("/profile/picture", a.handlers.Settings.DeletePicture)
			protected.PUT("/profile/password", a.handlers.Settings.ChangePassword)
			protected.GET("/settings/notifications", a.handlers.Settings.GetNotifications)
			protected.PUT("/settings/notifications", a.handlers.Settings.UpdateNotifications)
			protected.GET("/settings/privacy", a.handlers.Settings.GetPrivacy)
			protected.PUT("/settings/privacy", a.handlers.Settings.UpdatePrivacy)

			ai := protected.Group("/ai")
			ai.Use(middleware.AIRateLimitMiddleware(a.rateLimits))
			{
				ai.POST("/chat", a.handlers.AI.Chat)
				ai.POST("/discovery/start", a.handlers.AI.StartDiscovery)
				ai.POST("/discovery/continue", a.handlers.AI.ContinueDiscovery)
				ai.POST("/discovery/opportunities", a.handlers.AI.DiscoveryOpportunities)
				ai.POST("/discovery/analyze", a.handlers.AI.AnalyzeOpportunity)
			}
		}

		v1.POST("/sync/algolia",
			middleware.AuthMiddleware(a.cfg.JWTSecret),
			middleware.RequirePermission(authorization.PermissionManageSearchIndex),
			a.handlers.Admin.SyncAlgolia)

		// Moderation routes are open to moderators; account management and
		// index administration stay admin-only.
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))
		{
			admin.GET("/stats",
				middleware.RequirePermission(authorization.PermissionViewStatistics),
				a.handlers.Admin.Stats)
			admin.GET("/opportunities",
				middleware.RequirePermission(authorization.PermissionModerateListings),
				a.handlers.Admin.ListOpportunities)
			admin.PUT("/opportunities/:id/moderate",
				middleware.RequirePermission(authorization.PermissionModerateListings),
				a.handlers.Admin.ModerateOpportunity)

			users := admin.Group("/users")
			users.Use(middleware.RequirePermission(authorization.PermissionManageUsers))
			{
				users.GET("", a.handlers.Admin.ListUsers)
				users.PUT("/:id/role", a.handlers.Admin.UpdateUserRole)
				users.PUT("/:id/status", a.handlers.Admin.UpdateUserStatus)
				users.DELETE("/:id", a.handlers.Admin.DeleteUser)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		appErr := apperrors.New(apperrors.NotFoundRoute)
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(appErr.StatusCode, gin.H{"error": gin.H{
				"code":     appErr.Code,
				"category": appErr.Category,
				"message":  appErr.UserMessage,
				"path":     c.Request.URL.Path,
			}})
			return
		}
		c.JSON(appErr.StatusCode, gin.H{"error": appErr.UserMessage})
	})

	a.router = router
}
