package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/analytics"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/config"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/database"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/flow"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/handlers"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/middleware"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/monitoring"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/repositories"
	"github.com/MisterKayCodes/MisterTodo/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm/logger"
)

// Application holds all application dependencies and state. Everything is
// constructed once here and passed by reference; there are no package-level
// service singletons.
type Application struct {
	Config *config.Config
	DB     *database.Database
	Router *gin.Engine
	Server *http.Server

	TaskService services.TaskService
	FlowManager *flow.Manager
	Analytics   *analytics.Engine
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize application: %v", err)
	}

	app.setupRoutes()
	app.startServer()
}

func initializeApplication(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	log.Println("🚀 Initializing Mister Todo Backend...")
	log.Printf("📋 Environment: %s", cfg.Server.Environment)

	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	db, err := database.New(&database.Config{
		Path:            cfg.Database.Path,
		BusyTimeout:     cfg.Database.BusyTimeout,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	app.DB = db
	log.Println("✅ Database connected and configured")

	if err := repositories.EnsureSchema(db.DB, repositories.DefaultMigrationConfig()); err != nil {
		return nil, fmt.Errorf("database schema check failed: %w", err)
	}

	taskRepo := repositories.NewTaskRepository(db.DB)
	app.TaskService = services.NewTaskService(taskRepo)
	app.FlowManager = flow.NewManager(app.TaskService)
	app.Analytics = analytics.NewEngine(app.TaskService).WithFetchLimit(cfg.Tracker.RecentFetchLimit)

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return db.Health()
	})

	log.Println("✅ All services initialized")

	return app, nil
}

func (app *Application) setupRoutes() {
	r := gin.New()

	// Global middleware stack (order matters!)
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(monitoring.MetricsMiddleware())
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.SecureHeader())
	r.Use(middleware.RequestID())

	rateLimit := rate.Limit(float64(app.Config.RateLimit.RequestsPerMin) / 60.0)
	r.Use(middleware.RateLimiter(rateLimit, app.Config.RateLimit.BurstSize))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.OwnerIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health and monitoring endpoints (no owner scoping required)
	r.GET("/health", monitoring.HealthHandler())
	r.GET("/ready", monitoring.ReadinessHandler())
	r.GET("/live", monitoring.LivenessHandler())
	r.GET("/metrics", monitoring.MetricsHandler())

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequireOwner())
	{
		taskHandler := handlers.NewTaskHandler(app.TaskService)
		taskRoutes := v1.Group("/tasks")
		{
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.GET("", taskHandler.GetActiveTasks)
			taskRoutes.GET("/completed", taskHandler.GetCompletedTasks)
			taskRoutes.GET("/period/:period", taskHandler.GetTasksByPeriod)
			taskRoutes.POST("/:id/done", taskHandler.MarkTaskDone)
			taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
		}

		exportHandler := handlers.NewExportHandler(app.TaskService)
		v1.GET("/tasks/export", exportHandler.ExportCSV)

		flowHandler := handlers.NewFlowHandler(app.FlowManager)
		flowRoutes := v1.Group("/flow")
		{
			flowRoutes.POST("/start", flowHandler.Start)
			flowRoutes.POST("/message", flowHandler.Message)
			flowRoutes.POST("/cancel", flowHandler.Cancel)
		}

		statsHandler := handlers.NewStatsHandler(app.Analytics, app.Config.Tracker.DailyGoal, app.Config.Tracker.ArchivePageSize)
		statsRoutes := v1.Group("/stats")
		{
			statsRoutes.GET("/streak", statsHandler.GetStreak)
			statsRoutes.GET("/streak/details", statsHandler.GetStreakDetails)
			statsRoutes.GET("/consistency", statsHandler.GetConsistency)
			statsRoutes.GET("/progress", statsHandler.GetProgress)
			statsRoutes.GET("/archive", statsHandler.GetArchive)
			statsRoutes.GET("/daily", statsHandler.GetDailyCounts)
		}
	}

	app.Router = r
}

func (app *Application) startServer() {
	addr := app.Config.GetServerAddr()

	app.Server = &http.Server{
		Addr:         addr,
		Handler:      app.Router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}

		app.cleanup()
		log.Println("✅ Server stopped gracefully")
	}()

	log.Printf("🚀 Server starting on %s", addr)
	log.Printf("📊 Metrics available at http://%s/metrics", addr)
	log.Printf("💚 Health check at http://%s/health", addr)

	if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}

func (app *Application) cleanup() {
	log.Println("🧹 Cleaning up resources...")

	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			log.Printf("⚠️  Error closing database: %v", err)
		}
	}

	log.Println("✅ Cleanup complete")
}
