// Package config provides centralized configuration management for replytune.
// It defines configuration structures for every component and supports
// validation, default values, and environment-based configuration loading.
package config

import (
	"fmt"
	"time"

	"github.com/openeeap/replytune/pkg/errors"
	"github.com/openeeap/replytune/pkg/validator"
)

// ============================================================================
// Main Configuration Structure
// ============================================================================

// Config represents the complete application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Training hyperparameters
	Training TrainingConfig `mapstructure:"training" yaml:"training" json:"training"`

	// Reply generator configuration
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator" json:"generator"`

	// OpenAI backend configuration
	OpenAI OpenAIConfig `mapstructure:"openai" yaml:"openai" json:"openai"`

	// Reward model configuration
	Reward RewardConfig `mapstructure:"reward" yaml:"reward" json:"reward"`

	// Snapshot storage configuration
	Storage StorageConfig `mapstructure:"storage" yaml:"storage" json:"storage"`

	// Kafka progress events configuration
	Kafka KafkaConfig `mapstructure:"kafka" yaml:"kafka" json:"kafka"`

	// Run history database configuration
	Database DatabaseConfig `mapstructure:"database" yaml:"database" json:"database"`

	// Redis score cache configuration
	Redis RedisConfig `mapstructure:"redis" yaml:"redis" json:"redis"`

	// Observability configuration
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability" json:"observability"`
}

// ============================================================================
// Server Configuration
// ============================================================================

// ServerConfig defines HTTP server configuration
type ServerConfig struct {
	// Host to bind to
	Host string `mapstructure:"host" yaml:"host" json:"host"`

	// Port to listen on
	Port int `mapstructure:"port" yaml:"port" json:"port" validate:"gte=1,lte=65535"`

	// Environment (development, staging, production)
	Environment string `mapstructure:"environment" yaml:"environment" json:"environment" validate:"oneof=development staging production test"`

	// Read timeout
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`

	// Write timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Enable CORS
	EnableCORS bool `mapstructure:"enable_cors" yaml:"enable_cors" json:"enable_cors"`

	// CORS allowed origins
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	// Enable gzip responses
	EnableGzip bool `mapstructure:"enable_gzip" yaml:"enable_gzip" json:"enable_gzip"`

	// Per-client request rate (0 disables limiting)
	RateLimitRPS float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps" json:"rate_limit_rps" validate:"gte=0"`

	// Per-client burst
	RateLimitBurst int `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" json:"rate_limit_burst" validate:"gte=0"`
}

// ============================================================================
// Training Configuration
// ============================================================================

// TrainingConfig defines the PPO trainer hyperparameters
type TrainingConfig struct {
	// Adam learning rate
	LearningRate float64 `mapstructure:"learning_rate" yaml:"learning_rate" json:"learning_rate" validate:"gt=0"`

	// PPO clip range
	Epsilon float64 `mapstructure:"epsilon" yaml:"epsilon" json:"epsilon" validate:"gte=0,lt=1"`

	// Discount factor
	Gamma float64 `mapstructure:"gamma" yaml:"gamma" json:"gamma" validate:"gt=0,lte=1"`

	// GAE smoothing factor
	Lambda float64 `mapstructure:"lambda" yaml:"lambda" json:"lambda" validate:"gte=0,lte=1"`

	// Policy updates per generated reply
	IterationsPerSample int `mapstructure:"iterations_per_sample" yaml:"iterations_per_sample" json:"iterations_per_sample" validate:"gte=1"`

	// Passes over the dataset
	Epochs int `mapstructure:"epochs" yaml:"epochs" json:"epochs" validate:"gte=1"`

	// Attribute the reward per token instead of broadcasting it
	PerTokenReward bool `mapstructure:"per_token_reward" yaml:"per_token_reward" json:"per_token_reward"`

	// Hashed prompt feature buckets
	FeatureDim int `mapstructure:"feature_dim" yaml:"feature_dim" json:"feature_dim" validate:"gte=8,lte=65536"`

	// Weight initialisation seed
	Seed int64 `mapstructure:"seed" yaml:"seed" json:"seed"`

	// Name the trained policy is saved under
	SnapshotName string `mapstructure:"snapshot_name" yaml:"snapshot_name" json:"snapshot_name" validate:"required,snapshot_name"`

	// Dataset file (yaml, json or plain text); empty uses the built-in emails
	Dataset string `mapstructure:"dataset" yaml:"dataset" json:"dataset"`
}

// ============================================================================
// Generator Configuration
// ============================================================================

// GeneratorConfig defines reply generation parameters
type GeneratorConfig struct {
	// Chat model name
	Model string `mapstructure:"model" yaml:"model" json:"model" validate:"required"`

	// Sampling temperature
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature" validate:"gte=0,lte=2"`

	// Maximum completion tokens
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens" validate:"gte=1"`

	// Nucleus sampling mass
	TopP float64 `mapstructure:"top_p" yaml:"top_p" json:"top_p" validate:"gt=0,lte=1"`

	// Frequency penalty
	FrequencyPenalty float64 `mapstructure:"frequency_penalty" yaml:"frequency_penalty" json:"frequency_penalty" validate:"gte=-2,lte=2"`

	// Presence penalty
	PresencePenalty float64 `mapstructure:"presence_penalty" yaml:"presence_penalty" json:"presence_penalty" validate:"gte=-2,lte=2"`

	// Per-call timeout; exceeding it produces a fallback reply
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout" validate:"gt=0"`

	// Retries on transport errors and 5xx answers
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries" validate:"gte=0,lte=10"`

	// Client-side request rate
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" json:"requests_per_second" validate:"gte=0"`

	// Client-side burst
	Burst int `mapstructure:"burst" yaml:"burst" json:"burst" validate:"gte=1"`

	// Number of policy phrases appended to the prompt (0 disables)
	StyleHints int `mapstructure:"style_hints" yaml:"style_hints" json:"style_hints" validate:"gte=0,lte=10"`
}

// OpenAIConfig defines OpenAI API configuration
type OpenAIConfig struct {
	// API key
	APIKey string `mapstructure:"api_key" yaml:"api_key" json:"-"`

	// Organization ID
	OrganizationID string `mapstructure:"organization_id" yaml:"organization_id" json:"organization_id"`

	// Base URL (for compatible endpoints)
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url" validate:"required,url"`
}

// ============================================================================
// Reward Configuration
// ============================================================================

// RewardConfig defines reward model options
type RewardConfig struct {
	// Score cache
	Cache ScoreCacheConfig `mapstructure:"cache" yaml:"cache" json:"cache"`
}

// ScoreCacheConfig defines the score cache tiers
type ScoreCacheConfig struct {
	// Enable the Redis-backed shared tier
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Entries in the in-process LRU tier, 0 disables it
	LocalSize int `mapstructure:"local_size" yaml:"local_size" json:"local_size" validate:"gte=0"`

	// Entry lifetime
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl" validate:"gte=0"`

	// Key prefix
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix" json:"key_prefix"`
}

// ============================================================================
// Storage Configuration
// ============================================================================

// StorageConfig defines policy snapshot storage
type StorageConfig struct {
	// Provider (local, minio)
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider" validate:"oneof=local minio"`

	// Local directory configuration
	Local LocalStorageConfig `mapstructure:"local" yaml:"local" json:"local"`

	// MinIO configuration
	MinIO MinIOConfig `mapstructure:"minio" yaml:"minio" json:"minio"`
}

// LocalStorageConfig defines local filesystem storage configuration
type LocalStorageConfig struct {
	// Base directory
	BasePath string `mapstructure:"base_path" yaml:"base_path" json:"base_path"`
}

// MinIOConfig defines S3-compatible storage configuration
type MinIOConfig struct {
	// Endpoint host:port
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Region
	Region string `mapstructure:"region" yaml:"region" json:"region"`

	// Bucket name
	Bucket string `mapstructure:"bucket" yaml:"bucket" json:"bucket"`

	// Access key ID
	AccessKeyID string `mapstructure:"access_key_id" yaml:"access_key_id" json:"access_key_id"`

	// Secret access key
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key" json:"-"`

	// Use SSL
	UseSSL bool `mapstructure:"use_ssl" yaml:"use_ssl" json:"use_ssl"`
}

// ============================================================================
// Kafka Configuration
// ============================================================================

// KafkaConfig defines training progress event publishing
type KafkaConfig struct {
	// Enable publishing
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Broker addresses
	Brokers []string `mapstructure:"brokers" yaml:"brokers" json:"brokers"`

	// Client ID
	ClientID string `mapstructure:"client_id" yaml:"client_id" json:"client_id"`

	// Topic for training events
	Topic string `mapstructure:"topic" yaml:"topic" json:"topic"`

	// Required acks (-1, 0, 1)
	RequiredAcks int `mapstructure:"required_acks" yaml:"required_acks" json:"required_acks" validate:"oneof=-1 0 1"`

	// Compression type (none, gzip, snappy, lz4, zstd)
	Compression string `mapstructure:"compression" yaml:"compression" json:"compression" validate:"oneof=none gzip snappy lz4 zstd"`

	// Producer timeout
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// ============================================================================
// Database Configuration
// ============================================================================

// DatabaseConfig defines PostgreSQL database configuration
type DatabaseConfig struct {
	// Enable run history persistence
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Host address
	Host string `mapstructure:"host" yaml:"host" json:"host"`

	// Port number
	Port int `mapstructure:"port" yaml:"port" json:"port"`

	// Database name
	Database string `mapstructure:"database" yaml:"database" json:"database"`

	// Username
	Username string `mapstructure:"username" yaml:"username" json:"username"`

	// Password
	Password string `mapstructure:"password" yaml:"password" json:"-"`

	// SSL mode (disable, require, verify-ca, verify-full)
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode" json:"ssl_mode"`

	// Maximum open connections
	MaxOpenConns int `mapstructure:"max_open_conns" yaml:"max_open_conns" json:"max_open_conns"`

	// Maximum idle connections
	MaxIdleConns int `mapstructure:"max_idle_conns" yaml:"max_idle_conns" json:"max_idle_conns"`

	// Connection max lifetime
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime" json:"conn_max_lifetime"`

	// Enable auto migration
	AutoMigrate bool `mapstructure:"auto_migrate" yaml:"auto_migrate" json:"auto_migrate"`

	// Log mode (silent, error, warn, info)
	LogMode string `mapstructure:"log_mode" yaml:"log_mode" json:"log_mode" validate:"oneof=silent error warn info"`
}

// DSN returns the PostgreSQL connection string
func (dc *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dc.Host, dc.Port, dc.Username, dc.Password, dc.Database, dc.SSLMode)
}

// ============================================================================
// Redis Configuration
// ============================================================================

// RedisConfig defines Redis cache configuration
type RedisConfig struct {
	// Host address
	Host string `mapstructure:"host" yaml:"host" json:"host"`

	// Port number
	Port int `mapstructure:"port" yaml:"port" json:"port"`

	// Password
	Password string `mapstructure:"password" yaml:"password" json:"-"`

	// Database number
	DB int `mapstructure:"db" yaml:"db" json:"db" validate:"gte=0,lte=15"`

	// Pool size
	PoolSize int `mapstructure:"pool_size" yaml:"pool_size" json:"pool_size"`

	// Dial timeout
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout" json:"dial_timeout"`

	// Read timeout
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`

	// Write timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
}

// Addr returns host:port
func (rc *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", rc.Host, rc.Port)
}

// ============================================================================
// Observability Configuration
// ============================================================================

// ObservabilityConfig defines observability configuration
type ObservabilityConfig struct {
	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// Tracing configuration
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Log level (debug, info, warn, error, fatal)
	Level string `mapstructure:"level" yaml:"level" json:"level" validate:"oneof=debug info warn error fatal"`

	// Log format (json, console)
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=json console"`

	// Output (stdout, stderr, file)
	Output string `mapstructure:"output" yaml:"output" json:"output" validate:"oneof=stdout stderr file"`

	// Log file path (if output is file)
	FilePath string `mapstructure:"file_path" yaml:"file_path" json:"file_path" validate:"required_if=Output file"`

	// Max file size in MB
	MaxSize int `mapstructure:"max_size" yaml:"max_size" json:"max_size"`

	// Max backup files
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups"`

	// Max age in days
	MaxAge int `mapstructure:"max_age" yaml:"max_age" json:"max_age"`

	// Enable compression
	Compress bool `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// MetricsConfig defines metrics configuration
type MetricsConfig struct {
	// Enable metrics collection
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Namespace for metrics
	Namespace string `mapstructure:"namespace" yaml:"namespace" json:"namespace"`

	// Metrics path
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// TracingConfig defines distributed tracing configuration
type TracingConfig struct {
	// Enable tracing
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Provider (jaeger, zipkin, otlp)
	Provider string `mapstructure:"provider" yaml:"provider" json:"provider" validate:"omitempty,oneof=jaeger zipkin otlp"`

	// Endpoint
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Service name
	ServiceName string `mapstructure:"service_name" yaml:"service_name" json:"service_name"`

	// Sampling rate (0.0 - 1.0)
	SamplingRate float64 `mapstructure:"sampling_rate" yaml:"sampling_rate" json:"sampling_rate" validate:"gte=0,lte=1"`
}

// ============================================================================
// Configuration Validation
// ============================================================================

// Validate validates the entire configuration. Training problems are
// reported as TRAIN_001, everything else as SYS_004.
func (c *Config) Validate() error {
	v := validator.New()

	if err := v.Validate(&c.Training); err != nil {
		return errors.WrapFromCode(err, errors.ErrTrainInvalidConfig, err.Error())
	}

	if err := v.Validate(c); err != nil {
		return errors.WrapFromCode(err, errors.ErrSysConfigurationError, err.Error())
	}

	if err := c.validateDependencies(); err != nil {
		return errors.WrapFromCode(err, errors.ErrSysConfigurationError, err.Error())
	}

	return nil
}

// validateDependencies checks settings that only matter when a component is switched on
func (c *Config) validateDependencies() error {
	if c.Storage.Provider == "minio" {
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("storage.minio requires endpoint and bucket")
		}
	}

	if c.Storage.Provider == "local" && c.Storage.Local.BasePath == "" {
		return fmt.Errorf("storage.local.base_path is required")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}

	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.Database == "" || c.Database.Username == "" {
			return fmt.Errorf("database host, name and username are required when database is enabled")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
	}

	if c.Reward.Cache.Enabled {
		if c.Redis.Host == "" {
			return fmt.Errorf("redis.host is required when the score cache is enabled")
		}
		if c.Redis.Port < 1 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis port: %d", c.Redis.Port)
		}
	}

	if c.Observability.Tracing.Enabled && c.Observability.Tracing.Provider == "" {
		return fmt.Errorf("observability.tracing.provider is required when tracing is enabled")
	}

	return nil
}

//Personal.AI order the ending
