package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/veritas/internal/configs/env"
	"github.com/RishiKendai/veritas/internal/plagiarism"
)

// Config holds all configuration for the application
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisDB                 int
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentCompute int
	ScoringWorkers       int

	// Computation
	ComputationTimeout time.Duration
	StatusTTL          time.Duration

	// Detection defaults, overridable per request
	HammingThreshold int
	CandidateCap     int
	KGramSize        int
	WindowSize       int
	ReportThreshold  float64

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = env.GetEnvInt("REDIS_DB", 0)
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "submissions:stream")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "submissions:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "submissions:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_HOURS", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "veritas")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentCompute = env.GetEnvInt("MAX_CONCURRENT_COMPUTE", 5)
	cfg.ScoringWorkers = env.GetEnvInt("SCORING_WORKERS", 0)

	// Computation
	timeoutMinutes := env.GetEnvInt("COMPUTATION_TIMEOUT_MINUTES", 30)
	cfg.ComputationTimeout = time.Duration(timeoutMinutes) * time.Minute
	cfg.StatusTTL = env.GetEnvDuration("STATUS_TTL", 12*time.Hour)

	// Detection
	cfg.HammingThreshold = env.GetEnvInt("HAMMING_THRESHOLD", int(plagiarism.DefaultHammingThreshold))
	cfg.CandidateCap = env.GetEnvInt("CANDIDATE_CAP", int(plagiarism.DefaultCandidateCap))
	cfg.KGramSize = env.GetEnvInt("KGRAM_SIZE", int(plagiarism.DefaultKGramSize))
	cfg.WindowSize = env.GetEnvInt("WINDOW_SIZE", int(plagiarism.DefaultWindowSize))
	cfg.ReportThreshold = env.GetEnvFloat("REPORT_THRESHOLD", plagiarism.DefaultReportThreshold)

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogFormat = env.GetEnv("LOG_FORMAT", "json")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxConcurrentCompute <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_COMPUTE must be greater than 0")
	}
	if c.ScoringWorkers < 0 {
		return fmt.Errorf("SCORING_WORKERS must not be negative")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_HOURS must be greater than 0")
	}
	if c.ComputationTimeout <= 0 {
		return fmt.Errorf("COMPUTATION_TIMEOUT_MINUTES must be greater than 0")
	}
	if c.HammingThreshold < 0 || c.HammingThreshold > plagiarism.FingerprintBits {
		return fmt.Errorf("HAMMING_THRESHOLD must be between 0 and %d", plagiarism.FingerprintBits)
	}
	if c.CandidateCap <= 0 {
		return fmt.Errorf("CANDIDATE_CAP must be greater than 0")
	}
	if err := c.DetectionOptions().Validate(); err != nil {
		return fmt.Errorf("invalid detection settings: %w", err)
	}
	return nil
}

// DetectionOptions returns the configured engine defaults
func (c *Config) DetectionOptions() plagiarism.Options {
	return plagiarism.Options{
		HammingThreshold: uint8(c.HammingThreshold),
		CandidateCap:     uint32(c.CandidateCap),
		KGramSize:        uint32(max(c.KGramSize, 0)),
		WindowSize:       uint32(max(c.WindowSize, 0)),
		ReportThreshold:  c.ReportThreshold,
	}
}
