package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	awspkg "github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/aws"
)

// Config holds all environment variables for the forecast-service.
type Config struct {
	Port   string `validate:"required,numeric"`
	AppEnv string `validate:"oneof=development production test"`

	ArtifactSource   string `validate:"oneof=file s3"`
	ArtifactDir      string `validate:"required_if=ArtifactSource file"`
	ArtifactS3Bucket string `validate:"required_if=ArtifactSource s3"`
	ArtifactS3Prefix string

	RedisURL       string        `validate:"omitempty,url"`
	StorageDir     string        `validate:"required"`
	JobTTL         time.Duration `validate:"gt=0"`
	MaxUploadMB    int           `validate:"gt=0"`
	MaxRows        int           `validate:"gte=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
	RateLimit      int           `validate:"gte=0"`
	AllowedOrigins []string      `validate:"min=1,dive,eq=*|startswith=http://|startswith=https://"`

	// JWTSecret enables bearer-token auth when set.
	JWTSecret string

	RunsTable    string
	SNSTopicArn  string
	SQSQueueURL  string `validate:"omitempty,url"`
	OutputBucket string
}

// LoadConfig loads environment variables into Config struct and validates them.
// If AWS_USE_SECRETS=true it will attempt to read the JWT secret from
// Secrets Manager and fall back to env vars on failure.
func LoadConfig() (*Config, error) {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8090"),
		AppEnv:           getEnv("APP_ENV", "development"),
		ArtifactSource:   getEnv("ARTIFACT_SOURCE", "file"),
		ArtifactDir:      getEnv("ARTIFACT_DIR", "./artifacts"),
		ArtifactS3Bucket: os.Getenv("ARTIFACT_S3_BUCKET"),
		ArtifactS3Prefix: os.Getenv("ARTIFACT_S3_PREFIX"),
		RedisURL:         os.Getenv("REDIS_URL"),
		StorageDir:       getEnv("FORECAST_STORAGE_DIR", "./data/forecast_jobs"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		RunsTable:        os.Getenv("DDB_TABLE_FORECAST_RUNS"),
		SNSTopicArn:      os.Getenv("FORECAST_SNS_TOPIC_ARN"),
		SQSQueueURL:      os.Getenv("FORECAST_SQS_QUEUE_URL"),
		OutputBucket:     os.Getenv("FORECAST_OUTPUT_BUCKET"),
		AllowedOrigins:   getList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8501"}),
	}

	var err error
	if cfg.JobTTL, err = getDuration("JOB_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = getInt("MAX_UPLOAD_MB", 50); err != nil {
		return nil, err
	}
	if cfg.MaxRows, err = getInt("MAX_ROWS", 1_000_000); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		loadSecrets(cfg)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadSecrets(cfg *Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		zap.L().Warn("Secrets Manager unavailable, using environment", zap.Error(err))
		return
	}
	sm := awspkg.NewSecretsClient(awsCfg)
	if jwt, err := awspkg.SecretField(ctx, sm, "forecast/JWT_SECRET", "JWT_SECRET"); err == nil && jwt != "" {
		cfg.JWTSecret = jwt
	} else if err != nil {
		zap.L().Warn("Failed to read forecast/JWT_SECRET", zap.Error(err))
	}
}

// getEnv returns the variable or fallback when it is unset or empty.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getList splits a comma separated variable, dropping blanks and trailing
// slashes.
func getList(key string, fallback []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSuffix(strings.TrimSpace(v), "/"); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
