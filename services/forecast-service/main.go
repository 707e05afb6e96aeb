package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/artifacts"
	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
	ddbpkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/dynamodb"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/auth"
	apperrors "github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/errors"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/logger"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/common/middleware"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/controllers"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/repository"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/routes"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/services"
)

func main() {
	// Initialize structured logger
	if err := logger.Initialize(os.Getenv("APP_ENV")); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Log.Sync()

	// Load configuration from environment variables
	cfg, err := LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	// --- 1. Initialization ---
	ctx := context.Background()

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		zap.L().Fatal("Failed to load AWS config", zap.Error(err))
	}
	zap.L().Info("AWS Configuration",
		zap.String("region", awsCfg.Region),
		zap.String("endpoint", awspkg.CustomEndpoint()),
	)

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, services.ServiceName)
	if err != nil {
		zap.L().Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
	} else if cwLogs.IsEnabled() {
		if err := logger.InitializeWithWriter(cfg.AppEnv, cwLogs); err != nil {
			zap.L().Warn("Failed to attach CloudWatch Logs", zap.Error(err))
		}
	}
	log := logger.Log.With(zap.String("service", services.ServiceName))

	metrics := awspkg.NewMetricsClient(awsCfg)
	s3Store := awspkg.NewS3Store(awsCfg)

	// --- 2. Artifacts ---
	var src artifacts.Source = artifacts.DirSource{Dir: cfg.ArtifactDir}
	if cfg.ArtifactSource == "s3" {
		src = artifacts.S3Source{Store: s3Store, Bucket: cfg.ArtifactS3Bucket, Prefix: cfg.ArtifactS3Prefix}
	}
	bundle, err := artifacts.Load(ctx, src)
	if err != nil {
		log.Fatal("Failed to load model artifacts", zap.String("source", src.String()), zap.Error(err))
	}
	log.Info("Model artifacts loaded",
		zap.String("source", src.String()),
		zap.String("model", bundle.Manifest.Name),
		zap.String("version", bundle.Manifest.Version),
		zap.Int("features", bundle.Model.NumFeatures()),
	)

	// --- 3. Dependency Injection (Wiring the layers together) ---
	deps := services.Deps{
		Bundle:  bundle,
		Metrics: metrics,
		Logger:  log,
		MaxRows: cfg.MaxRows,
	}
	if cfg.RunsTable != "" {
		deps.Runs = newRunStore(ctx, awsCfg, cfg.RunsTable, log)
	}
	if cfg.SNSTopicArn != "" {
		deps.Events = services.NewSNSEventPublisher(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicArn)
	}
	forecastService, err := services.NewForecastService(deps)
	if err != nil {
		log.Fatal("Failed to create forecast service", zap.Error(err))
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var rdb *redis.Client
	var jobs controllers.JobQueue
	if cfg.RedisURL != "" {
		rdb, jobs = startWorker(workerCtx, cfg, forecastService, metrics, log)
	} else {
		log.Warn("REDIS_URL not set, async forecasting disabled")
	}

	if cfg.SQSQueueURL != "" {
		consumer := awspkg.NewSQSConsumer(awsCfg, cfg.SQSQueueURL, log)
		batches := services.NewSQSBatchConsumer(consumer, s3Store, forecastService, cfg.OutputBucket, metrics, log)
		go batches.Start(workerCtx)
	}

	var authMW gin.HandlerFunc
	if cfg.JWTSecret != "" {
		validator, err := auth.NewTokenValidator(cfg.JWTSecret)
		if err != nil {
			log.Fatal("Failed to create token validator", zap.Error(err))
		}
		authMW = middleware.JWTAuth(validator)
	} else {
		log.Warn("JWT_SECRET not set, API is unauthenticated")
	}

	forecastController := controllers.NewForecastController(
		forecastService,
		jobs,
		controllers.NewFileValidator(int64(cfg.MaxUploadMB)*1024*1024),
		cfg.RequestTimeout,
	)

	// --- 4. HTTP Server & Middleware ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	rateLimiter := middleware.PerMinute(cfg.RateLimit)
	defer rateLimiter.Close()

	r := gin.New()
	r.Use(gin.Recovery()) // Recover from panics
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.MetricsMiddleware(metrics, services.ServiceName))
	r.Use(middleware.RateLimitMiddleware(rateLimiter))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware())

	// --- 5. Route Registration ---
	routes.RegisterRoutes(r, forecastController, authMW)

	// --- 6. Graceful Shutdown ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Forecast Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down Forecast Service...")

	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}

	log.Info("Forecast Service stopped gracefully")
}

func newRunStore(ctx context.Context, awsCfg sdkaws.Config, table string, log *zap.Logger) repository.RunStore {
	client := ddbpkg.NewClientFromConfig(awsCfg)

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ddbpkg.CheckTable(checkCtx, client, table); err != nil {
		log.Warn("Run history table not ready", zap.String("table", table), zap.Error(err))
	}
	return repository.NewDynamoRunAdapter(client, table)
}

func startWorker(ctx context.Context, cfg *Config, svc services.ForecastService, metrics *awspkg.MetricsClient, log *zap.Logger) (*redis.Client, controllers.JobQueue) {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("Failed to parse REDIS_URL, async forecasting disabled", zap.Error(err))
		return nil, nil
	}
	rdb := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis not reachable yet", zap.Error(err))
	}

	worker, err := services.NewForecastWorker(repository.NewRedisJobStore(rdb, cfg.JobTTL), svc, cfg.StorageDir, metrics, log)
	if err != nil {
		log.Warn("Forecast worker not started", zap.Error(err))
		return rdb, nil
	}
	services.StartForecastWorker(ctx, worker)
	return rdb, worker
}
