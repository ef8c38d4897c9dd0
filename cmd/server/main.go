package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/debate-draw/brackets"
	"github.com/Dosada05/debate-draw/config"
	"github.com/Dosada05/debate-draw/db"
	"github.com/Dosada05/debate-draw/handlers"
	"github.com/Dosada05/debate-draw/metrics"
	"github.com/Dosada05/debate-draw/middleware"
	"github.com/Dosada05/debate-draw/repositories"
	api "github.com/Dosada05/debate-draw/routes"
	"github.com/Dosada05/debate-draw/services"
	"github.com/Dosada05/debate-draw/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("schedule_timezone", cfg.ScheduleLocation.String()),
	)

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(migrateCtx, dbConn)
		cancel()
		if err != nil {
			logger.Error("failed to apply schema", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema applied")
	}

	// Cloudflare R2 нужен только для публикации снимков жеребьёвки
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
		Endpoint:        cfg.R2Endpoint,
	}
	if r2Config.Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("Cloudflare R2 is not configured, draw snapshots will not be uploaded")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()
	logger.Info("WebSocket Hub started")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Инициализация репозиториев
	tx := repositories.NewSQLTransactor(dbConn, logger)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	debateRepo := repositories.NewPostgresDebateRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	divisionRepo := repositories.NewPostgresDivisionRepository(dbConn)
	venueRepo := repositories.NewPostgresVenueRepository(dbConn)
	sideAllocRepo := repositories.NewPostgresSideAllocationRepository(dbConn)
	actionLogRepo := repositories.NewPostgresActionLogRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	publisher := services.NewDrawPublisher(uploader, wsHub, logger)
	allocator := services.NewPriorityVenueAllocator(venueRepo, debateRepo, divisionRepo, logger)
	drawService := services.NewDrawService(
		tx,
		roundRepo,
		debateRepo,
		teamRepo,
		venueRepo,
		sideAllocRepo,
		actionLogRepo,
		tournamentRepo,
		brackets.NewFoldGenerator(),
		allocator,
		publisher,
		m,
		logger,
	)
	matchupService := services.NewMatchupService(tx, roundRepo, debateRepo, teamRepo, actionLogRepo, m, logger)
	scheduleService := services.NewScheduleService(tx, roundRepo, debateRepo, divisionRepo, actionLogRepo, cfg.ScheduleLocation, m, logger)
	divisionService := services.NewDivisionService(divisionRepo, teamRepo, actionLogRepo, logger)
	sideService := services.NewSideAllocationService(tournamentRepo, roundRepo, teamRepo, sideAllocRepo)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	drawHandler := handlers.NewDrawHandler(drawService, matchupService, scheduleService)
	publicHandler := handlers.NewPublicDrawHandler(drawService, sideService)
	divisionHandler := handlers.NewDivisionHandler(divisionService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger)
	logger.Info("HTTP handlers initialized")

	var limiter *middleware.IPRateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			JWTSecret:      cfg.JWTSecretKey,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Limiter:        limiter,
		},
		drawHandler,
		publicHandler,
		divisionHandler,
		webSocketHandler,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
