package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/veritas/internal/api"
	"github.com/RishiKendai/veritas/internal/config"
	"github.com/RishiKendai/veritas/internal/configs/env"
	"github.com/RishiKendai/veritas/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/veritas/internal/infra/redis"
	"github.com/RishiKendai/veritas/internal/ingest"
	"github.com/RishiKendai/veritas/internal/logger"
	"github.com/RishiKendai/veritas/internal/metrics"
	"github.com/RishiKendai/veritas/internal/plagiarism"
	"github.com/RishiKendai/veritas/internal/repository"
	"github.com/RishiKendai/veritas/internal/stream"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	envErr := env.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "veritas",
	})
	if envErr != nil {
		log.Debug().Err(envErr).Msg("No .env file loaded, using process environment")
	}
	log.Info().Msg("Starting Veritas similarity service")

	metrics.InitPrometheus()
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := api.StartServer(metricsMux, cfg.MetricsPort, "metrics")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(context.Background())

	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	mongoRepo := repository.NewMongoRepository(mongoClient.Database)
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure MongoDB indexes")
	}
	submissionsRepo := repository.NewSubmissionsRepository(mongoRepo)
	reportsRepo := repository.NewReportsRepository(mongoRepo)

	workerPool := plagiarism.NewWorkerPool(ctx, cfg.ScoringWorkers)
	defer workerPool.Close()

	engine := plagiarism.NewEngine(workerPool)
	statusTracker := plagiarism.NewStatusTracker(redisClient, cfg.StatusTTL)
	computeSvc := plagiarism.NewComputeService(
		submissionsRepo,
		reportsRepo,
		statusTracker,
		engine,
		cfg.DetectionOptions(),
	)

	ingestSvc := ingest.NewService(submissionsRepo)
	retryHandler := stream.NewRetryHandler(redisClient, cfg.RedisDeadLetterKey, 3, time.Second)

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	consumerName := fmt.Sprintf("consumer-%s-%d-%s", hostname, os.Getpid(), uuid.NewString()[:8])
	consumer := stream.NewConsumer(
		redisClient,
		cfg.RedisStreamKey,
		cfg.RedisConsumerGroup,
		consumerName,
		ingestSvc,
		retryHandler,
		cfg.StreamRetentionDuration,
	)

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Submission consumer stopped")
		}
	}()

	handler := api.NewHandler(api.Dependencies{
		Submissions:          submissionsRepo,
		Reports:              reportsRepo,
		Status:               statusTracker,
		Computer:             computeSvc,
		Detector:             engine,
		DefaultOptions:       cfg.DetectionOptions(),
		MaxConcurrentCompute: cfg.MaxConcurrentCompute,
		ComputationTimeout:   cfg.ComputationTimeout,
	})
	router := api.SetupRoutes(api.RouteConfig{
		JWTSecret:    cfg.JWTSecret,
		JWTIssuer:    cfg.JWTIssuer,
		RateLimitRPS: cfg.RateLimitRPS,
	}, handler)
	srv := api.StartServer(router, cfg.ServerPort, "api")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down API server")
	}

	// running computations finish under their own timeout before the pool closes
	handler.Wait()

	cancel()
	<-consumerDone

	if err := api.ShutdownServer(metricsServer, 5*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
