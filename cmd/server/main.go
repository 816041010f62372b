package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/forecastsight/forecastsight-go/internal/cache"
	"github.com/forecastsight/forecastsight-go/internal/config"
	"github.com/forecastsight/forecastsight-go/internal/database"
	"github.com/forecastsight/forecastsight-go/internal/decomposition"
	"github.com/forecastsight/forecastsight-go/internal/scheduler"
	"github.com/forecastsight/forecastsight-go/internal/services"
	"github.com/forecastsight/forecastsight-go/internal/telemetry"
)

func main() {
	// Load .env if present; real deployments configure via environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Database health check failed")
	}
	if err := redisClient.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Redis health check failed")
	}

	resultCache := cache.NewResultCache(redisClient.Client, logger,
		cfg.Evaluation.ReportTTLDuration(), cfg.Decomposition.ResultTTLDuration())
	repository := database.NewPredictionRepository(db.Pool)
	notifier := services.NewLogNotifier(logger)

	evaluationService := services.NewEvaluationService(repository, resultCache, notifier, logger, services.EvaluationConfig{
		RecentWindow:     cfg.Evaluation.RecentWindowDuration(),
		BaselineWindow:   cfg.Evaluation.BaselineWindowDuration(),
		MinHistoryPoints: cfg.Evaluation.MinHistoryPoints,
		MaxConcurrent:    cfg.Evaluation.MaxConcurrentModels,
	})

	calendar := services.NewStaticCalendar(cfg.Calendar)
	engine := decomposition.NewEngine(logger, calendar)
	decompositionService := services.NewDecompositionService(repository, repository, resultCache, engine, logger, services.DecompositionSweepConfig{
		Algorithm: decomposition.AlgorithmSTL,
		Params: decomposition.Params{
			Period:            cfg.Decomposition.DefaultPeriod,
			MaxFrequencies:    cfg.Decomposition.MaxFrequencies,
			Levels:            cfg.Decomposition.WaveletLevels,
			SeasonalSpan:      cfg.Decomposition.SeasonalSpan,
			Robust:            &cfg.Decomposition.Robust,
			AROrder:           cfg.Decomposition.AROrder,
			AdjustTradingDays: cfg.Decomposition.AdjustTradingDays,
			AdjustHolidays:    cfg.Decomposition.AdjustHolidays,
		},
		Lookback: cfg.Decomposition.LookbackDuration(),
	})

	retention := services.NewRetentionService(repository, logger, services.RetentionConfig{
		PredictionRetention:  cfg.Retention.PredictionRetentionDuration(),
		ObservationRetention: cfg.Retention.ObservationRetentionDuration(),
		Interval:             cfg.Retention.CleanupIntervalDuration(),
	})
	retention.Start(ctx)

	var monitor *telemetry.RuntimeMonitor
	if cfg.Monitor.Enabled {
		monitor = telemetry.NewRuntimeMonitor(logger, cfg.Monitor.IntervalDuration())
		go monitor.Start(ctx)
	}

	sched := scheduler.NewScheduler(ctx, evaluationService, logger)
	if err := sched.Register(cfg.Evaluation.SweepSchedule); err != nil {
		logger.WithError(err).Fatal("Failed to register evaluation sweep")
	}
	if err := sched.RegisterRefresh(cfg.Decomposition.RefreshSchedule, decompositionService); err != nil {
		logger.WithError(err).Fatal("Failed to register decomposition refresh")
	}
	sched.Start()
	logger.WithFields(logrus.Fields{
		"sweep_schedule":   cfg.Evaluation.SweepSchedule,
		"refresh_schedule": cfg.Decomposition.RefreshSchedule,
	}).Info("evaluation sweep and decomposition refresh scheduled")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	sched.Stop()
	retention.Stop()
	if monitor != nil {
		monitor.Stop()
	}
	cancel()
	logger.Info("Shutdown complete")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Environment != "development" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
