package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipcoach/internal/core/services"
	httphandlers "clipcoach/internal/handlers/http"
	"clipcoach/internal/infrastructure/events"
	"clipcoach/internal/infrastructure/middleware"
	"clipcoach/internal/infrastructure/monitoring"
	"clipcoach/internal/infrastructure/notify"
	repositories "clipcoach/internal/infrastructure/repositories"
	"clipcoach/pkg/config"
	"clipcoach/pkg/logger"
	"clipcoach/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/clipcoach/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Tracing
	if cfg.Tracing.Enabled {
		tracerProvider, err := tracing.Init(tracing.Config{
			Enabled:     true,
			ServiceName: "clipcoach",
			JaegerURL:   cfg.Tracing.JaegerURL,
			Environment: "production",
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Warnw("failed to initialize tracing", "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				tracerProvider.Shutdown(ctx)
			}()
		}
	}

	// Repositories
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	videoRepo := repoFactory.CreateVideoRepository()
	grantRepo := repoFactory.CreateGrantRepository()
	requestRepo := repoFactory.CreateRequestRepository()
	coachRepo := repoFactory.CreateCoachRepository()
	locker := repoFactory.CreateResourceLocker()

	// Monitoring
	collector := monitoring.NewPrometheusCollector()
	metricsService := services.NewMetricsService(collector)

	healthChecker := monitoring.NewHealthChecker(2 * time.Second)
	healthChecker.AddCheck("repositories", repoFactory.HealthCheck)

	// Event fan-out for dashboards
	eventsHub := events.NewHub(log)
	defer eventsHub.Close()

	// Services
	accessService := services.NewAccessService(videoRepo, grantRepo, locker, eventsHub, metricsService, log)
	coachDirectory := services.NewCoachDirectory(coachRepo, cfg.Requests.CoachCacheTTL)
	defer coachDirectory.Close()

	notifier := notify.NewLogNotifier(cfg.Notifications.FromName, cfg.Notifications.DashboardURL, log)
	requestService := services.NewRequestService(requestRepo, coachDirectory, accessService, notifier, log, cfg.Requests.CostHourFraction)
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	// Handlers
	authHandler := httphandlers.NewAuthHandler(authService)
	videoHandler := httphandlers.NewVideoHandler(accessService)
	requestHandler := httphandlers.NewRequestHandler(requestService, coachDirectory)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.RequestLoggerMiddleware(logger.NewContextLogger(zapLogger)))
	router.Use(middleware.MetricsMiddleware(collector))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	// Public routes
	authHandler.SetupRoutes(router)

	// Authenticated API
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	videoHandler.SetupRoutes(api)
	requestHandler.SetupRoutes(api)

	// Dashboard event stream
	api.GET("/events", func(c *gin.Context) {
		actorID, ok := middleware.ActorFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		eventsHub.HandleWebSocket(c.Writer, c.Request, actorID)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
			"clients":   eventsHub.ClientCount(),
			"engine":    metricsService.Snapshot(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting ClipCoach API server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down ClipCoach API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	log.Info("ClipCoach API server stopped")
}
