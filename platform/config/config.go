// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMemory   = "memory"
)

// Intelligence providers accepted by INTELLIGENCE_PROVIDER.
const (
	IntelligenceProviderGemini   = "gemini"
	IntelligenceProviderMoonshot = "moonshot"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// StorageConfig selects the lead store implementation.
type StorageConfig interface {
	DatabaseConfig
	GetStorageDriver() string
	GetSQLitePath() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
	IsAuthEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// IntelligenceConfig provides settings for the context extraction gateway.
type IntelligenceConfig interface {
	GetIntelligenceProvider() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetMoonshotAPIKey() string
	GetMoonshotModel() string
	GetIntelligenceTimeout() time.Duration
}

// EnrichmentConfig provides settings for the company enrichment gateway.
type EnrichmentConfig interface {
	GetApolloAPIKey() string
	GetApolloBaseURL() string
	GetEnrichmentTimeout() time.Duration
	GetEnrichmentCacheTTL() time.Duration
}

// RedisConfig provides the shared Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// LockConfig provides settings for per-lead merge serialization.
type LockConfig interface {
	RedisConfig
	GetLeadLockTTL() time.Duration
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketConversationAudio() string
	GetMinioBucketScanImages() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for follow-up email delivery.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// ScanConfig provides settings for scan parsing.
type ScanConfig interface {
	GetDefaultPhoneRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                          string
	HTTPAddr                     string
	StorageDriver                string
	DatabaseURL                  string
	SQLitePath                   string
	JWTAccessSecret              string
	CORSAllowAll                 bool
	CORSOrigins                  []string
	CORSAllowCreds               bool
	RateLimitRPS                 float64
	RateLimitBurst               int
	IntelligenceProvider         string
	GeminiAPIKey                 string
	GeminiModel                  string
	MoonshotAPIKey               string
	MoonshotModel                string
	IntelligenceTimeout          time.Duration
	ApolloAPIKey                 string
	ApolloBaseURL                string
	EnrichmentTimeout            time.Duration
	EnrichmentCacheTTL           time.Duration
	RedisURL                     string
	RedisTLSInsecure             bool
	AsynqQueueName               string
	AsynqConcurrency             int
	LeadLockTTL                  time.Duration
	MinIOEndpoint                string
	MinIOAccessKey               string
	MinIOSecretKey               string
	MinIOUseSSL                  bool
	MinIOMaxFileSize             int64
	MinioBucketConversationAudio string
	MinioBucketScanImages        string
	SMTPHost                     string
	SMTPPort                     int
	SMTPUsername                 string
	SMTPPassword                 string
	EmailFromName                string
	EmailFromAddress             string
	DefaultPhoneRegion           string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig / StorageConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetStorageDriver() string { return c.StorageDriver }
func (c *Config) GetSQLitePath() string    { return c.SQLitePath }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }
func (c *Config) IsAuthEnabled() bool        { return c.JWTAccessSecret != "" }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// IntelligenceConfig implementation
func (c *Config) GetIntelligenceProvider() string       { return c.IntelligenceProvider }
func (c *Config) GetGeminiAPIKey() string               { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string                { return c.GeminiModel }
func (c *Config) GetMoonshotAPIKey() string             { return c.MoonshotAPIKey }
func (c *Config) GetMoonshotModel() string              { return c.MoonshotModel }
func (c *Config) GetIntelligenceTimeout() time.Duration { return c.IntelligenceTimeout }

// EnrichmentConfig implementation
func (c *Config) GetApolloAPIKey() string              { return c.ApolloAPIKey }
func (c *Config) GetApolloBaseURL() string             { return c.ApolloBaseURL }
func (c *Config) GetEnrichmentTimeout() time.Duration  { return c.EnrichmentTimeout }
func (c *Config) GetEnrichmentCacheTTL() time.Duration { return c.EnrichmentCacheTTL }

// RedisConfig / SchedulerConfig / LockConfig implementation
func (c *Config) GetRedisURL() string           { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool     { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string     { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int      { return c.AsynqConcurrency }
func (c *Config) GetLeadLockTTL() time.Duration { return c.LeadLockTTL }

// IsBackgroundEnrichmentEnabled reports whether a worker process can see the
// leads the API creates. The memory store is private to each process.
func (c *Config) IsBackgroundEnrichmentEnabled() bool {
	return c.RedisURL != "" && c.StorageDriver != StorageDriverMemory
}

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketConversationAudio() string {
	return c.MinioBucketConversationAudio
}
func (c *Config) GetMinioBucketScanImages() string { return c.MinioBucketScanImages }
func (c *Config) IsMinIOEnabled() bool             { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" }

// ScanConfig implementation
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	databaseURL := getEnv("DATABASE_URL", "")
	defaultDriver := StorageDriverMemory
	if databaseURL != "" {
		defaultDriver = StorageDriverPostgres
	}

	cfg := &Config{
		Env:                          getEnv("APP_ENV", "development"),
		HTTPAddr:                     getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:                strings.ToLower(getEnv("STORAGE_DRIVER", defaultDriver)),
		DatabaseURL:                  databaseURL,
		SQLitePath:                   getEnv("SQLITE_PATH", "leads.db"),
		JWTAccessSecret:              getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                 corsAllowAll,
		CORSOrigins:                  corsOrigins,
		CORSAllowCreds:               strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitRPS:                 mustFloat64(getEnv("RATE_LIMIT_RPS", "10")),
		RateLimitBurst:               mustInt(getEnv("RATE_LIMIT_BURST", "20")),
		IntelligenceProvider:         strings.ToLower(getEnv("INTELLIGENCE_PROVIDER", IntelligenceProviderGemini)),
		GeminiAPIKey:                 getEnv("GEMINI_API_KEY", ""),
		GeminiModel:                  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MoonshotAPIKey:               getEnv("MOONSHOT_API_KEY", ""),
		MoonshotModel:                getEnv("MOONSHOT_MODEL", "kimi-k2-turbo-preview"),
		IntelligenceTimeout:          mustDuration(getEnv("INTELLIGENCE_TIMEOUT", "15s")),
		ApolloAPIKey:                 getEnv("APOLLO_API_KEY", ""),
		ApolloBaseURL:                getEnv("APOLLO_BASE_URL", "https://api.apollo.io/v1"),
		EnrichmentTimeout:            mustDuration(getEnv("ENRICHMENT_TIMEOUT", "10s")),
		EnrichmentCacheTTL:           mustDuration(getEnv("ENRICHMENT_CACHE_TTL", "24h")),
		RedisURL:                     getEnv("REDIS_URL", ""),
		RedisTLSInsecure:             strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:               getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:             mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		LeadLockTTL:                  mustDuration(getEnv("LEAD_LOCK_TTL", "30s")),
		MinIOEndpoint:                getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:               getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:               getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                  strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:             mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "52428800")),
		MinioBucketConversationAudio: getEnv("MINIO_BUCKET_CONVERSATION_AUDIO", "conversation-audio"),
		MinioBucketScanImages:        getEnv("MINIO_BUCKET_SCAN_IMAGES", "scan-images"),
		SMTPHost:                     getEnv("SMTP_HOST", ""),
		SMTPPort:                     mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                 getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                 getEnv("SMTP_PASSWORD", ""),
		EmailFromName:                getEnv("EMAIL_FROM_NAME", "Lead Capture"),
		EmailFromAddress:             getEnv("EMAIL_FROM_ADDRESS", ""),
		DefaultPhoneRegion:           strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is postgres")
		}
	case StorageDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_DRIVER is sqlite")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of postgres, sqlite, memory")
	}

	switch c.IntelligenceProvider {
	case IntelligenceProviderGemini, IntelligenceProviderMoonshot:
	default:
		return fmt.Errorf("INTELLIGENCE_PROVIDER must be gemini or moonshot")
	}

	if c.IntelligenceTimeout <= 0 {
		return fmt.Errorf("INTELLIGENCE_TIMEOUT must be a positive duration")
	}
	if c.EnrichmentTimeout <= 0 {
		return fmt.Errorf("ENRICHMENT_TIMEOUT must be a positive duration")
	}
	if c.IsEmailEnabled() && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat64(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
