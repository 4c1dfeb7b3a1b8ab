package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	TokenTTL          time.Duration
	UploadDir         string
	UploadMaxMB       int
	SubmissionMaxMB   int
	TempFileTTL       time.Duration
	CleanupInterval   time.Duration
	AIBaseURL         string
	AIAPIKey          string
	AIModel           string
	AITimeout         time.Duration
	AIMaxTokens       int
	AITemperature     float32
	GradingWorkers    int
	GradingQueueSize  int
	DashboardCacheTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EVALIA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Evalia API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "720h")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_mb", 20)
	v.SetDefault("submission.max_mb", 10)
	v.SetDefault("temp_file.ttl", "24h")
	v.SetDefault("cleanup.interval", "1h")
	v.SetDefault("ai.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("ai.model", "deepseek-chat")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.max_tokens", 500)
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("grading.workers", 2)
	v.SetDefault("grading.queue_size", 64)
	v.SetDefault("dashboard.cache_ttl", "5m")

	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	tempTTL, err := time.ParseDuration(v.GetString("temp_file.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid temp file ttl: %w", err)
	}

	cleanupInterval, err := time.ParseDuration(v.GetString("cleanup.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid cleanup interval: %w", err)
	}

	aiTimeout, err := time.ParseDuration(v.GetString("ai.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("dashboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		TokenTTL:          tokenTTL,
		UploadDir:         v.GetString("upload.dir"),
		UploadMaxMB:       v.GetInt("upload.max_mb"),
		SubmissionMaxMB:   v.GetInt("submission.max_mb"),
		TempFileTTL:       tempTTL,
		CleanupInterval:   cleanupInterval,
		AIBaseURL:         v.GetString("ai.base_url"),
		AIAPIKey:          v.GetString("ai.api_key"),
		AIModel:           v.GetString("ai.model"),
		AITimeout:         aiTimeout,
		AIMaxTokens:       v.GetInt("ai.max_tokens"),
		AITemperature:     float32(v.GetFloat64("ai.temperature")),
		GradingWorkers:    v.GetInt("grading.workers"),
		GradingQueueSize:  v.GetInt("grading.queue_size"),
		DashboardCacheTTL: cacheTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 20
	}

	if cfg.SubmissionMaxMB <= 0 {
		cfg.SubmissionMaxMB = 10
	}

	if cfg.GradingWorkers <= 0 {
		cfg.GradingWorkers = 2
	}

	if cfg.GradingQueueSize <= 0 {
		cfg.GradingQueueSize = 64
	}

	return cfg, nil
}
