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

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	httpAdapter "github.com/5olen-tripshare/accommodation-api/internal/adapter/http"
	natsAdapter "github.com/5olen-tripshare/accommodation-api/internal/adapter/messaging/nats"
	"github.com/5olen-tripshare/accommodation-api/internal/adapter/repository/cache"
	mongoRepo "github.com/5olen-tripshare/accommodation-api/internal/adapter/repository/mongodb"
	"github.com/5olen-tripshare/accommodation-api/internal/adapter/storage/s3"
	"github.com/5olen-tripshare/accommodation-api/internal/config"
	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/usecase"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/logger"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/metrics"
	"github.com/5olen-tripshare/accommodation-api/internal/platform/tracer"
)

const serviceName = "accommodation-api"

func main() {
	// .env is optional, for local development.
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application starting", zap.String("service_name", serviceName))

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Configuration loaded",
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("minio_endpoint", cfg.MinIOEndpoint),
		zap.String("nats_url", cfg.NATSURL),
	)

	var tp *sdktrace.TracerProvider
	if cfg.OTExporterOTLPEndpoint != "" {
		tp = tracer.InitTracer(serviceName, cfg.OTExporterOTLPEndpoint, appLogger)
		defer func() {
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
	}

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err = mongoClient.Ping(ctxPing, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Connected to MongoDB")
	db := mongoClient.Database(cfg.MongoDatabase)

	storageClient, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	var accommodationCache usecase.Cache
	if cfg.RedisAddress != "" {
		redisCache, err := cache.NewAccommodationCache(cfg.RedisAddress)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		accommodationCache = redisCache
		appLogger.Info("Redis cache initialized", zap.String("address", cfg.RedisAddress))
	} else {
		appLogger.Info("Redis cache disabled (REDIS_ADDRESS not set)")
	}

	var events usecase.EventPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
		if err != nil {
			appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
		}
		defer natsPublisher.Close()
		events = natsPublisher
	} else {
		appLogger.Info("NATS publisher disabled (NATS_URL not set)")
	}

	accommodationRepo, err := mongoRepo.NewAccommodationRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AccommodationRepository", zap.Error(err))
	}

	uploader := usecase.NewUploadUsecase(storageClient, appLogger)
	accommodationUsecase := usecase.NewAccommodationUsecase(accommodationRepo, uploader, accommodationCache, events, appLogger)

	var metricsManager *metrics.Manager
	if cfg.PrometheusMetricsPort != "" {
		metricsManager = metrics.NewManager("accommodation_api")
		go func() {
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	}

	handler := httpAdapter.NewAccommodationHandler(accommodationUsecase, metricsManager, appLogger)
	router := httpAdapter.NewRouter(handler, cfg.JWTSecret, metricsManager, appLogger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("Application stopped")
}
