package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/chronos-io/chronos-ce/internal/api"
	"github.com/chronos-io/chronos-ce/internal/config"
	"github.com/chronos-io/chronos-ce/internal/database"
	"github.com/chronos-io/chronos-ce/internal/lookups"
	"github.com/chronos-io/chronos-ce/internal/middleware"
	"github.com/chronos-io/chronos-ce/internal/repository"
	"github.com/chronos-io/chronos-ce/internal/runner"
	"github.com/chronos-io/chronos-ce/internal/runner/tasks"
	"github.com/chronos-io/chronos-ce/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	config.MustLoad(configPath)
	cfg := config.Get()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Lookup cache: redis when configured, in-process otherwise.
	var cache lookups.Cache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis unavailable, falling back to local cache: %v", err)
		} else {
			cache = lookups.NewRedisCache(client, cfg.Redis.Cache.Prefix+":")
			defer client.Close()
		}
	}

	entryRepo := repository.NewSQLTimeEntryRepository(db)
	templateRepo := repository.NewSQLTemplateRepository(db)
	lookupRepo := repository.NewSQLLookupRepository(db)
	timesheetRepo := repository.NewSQLTimesheetRepository(db)

	guard := service.NewLockGuard(timesheetRepo)
	resolver := lookups.NewResolver(lookupRepo, cache)

	templateSvc := service.NewTemplateService(templateRepo, entryRepo, resolver)
	templateSvc.StrictReferences = cfg.Tracking.StrictReferences
	if cfg.Tracking.ApplyWindow > 0 {
		templateSvc.ApplyWindow = cfg.Tracking.ApplyWindow
	}

	handlers := api.New(
		service.NewTimerService(entryRepo),
		service.NewDayService(entryRepo, guard),
		service.NewEntryService(entryRepo, guard),
		templateSvc,
		resolver,
	)

	jwtSecret := cfg.Auth.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}
	if jwtSecret == "" {
		log.Fatal("JWT secret is not configured (auth.jwt.secret or JWT_SECRET)")
	}
	auth := middleware.NewAuthMiddleware(jwtSecret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.Audience)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics())
		router.GET(cfg.Metrics.Path, middleware.MetricsHandler())
	}
	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})

	handlers.RegisterRoutes(router, auth.RequireAuth())

	// Background jobs.
	registry := runner.NewTaskRegistry()
	registry.Register(tasks.NewStaleEntriesTask(entryRepo, cfg.Tracking.AutoCloseAfter, cfg.Tracking.AutoCloseSchedule))

	runnerCtx, cancelRunner := context.WithCancel(context.Background())
	defer cancelRunner()
	jobs := runner.NewRunner(registry)
	if err := jobs.Start(runnerCtx); err != nil {
		log.Fatalf("Failed to start task runner: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	jobs.Stop()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
