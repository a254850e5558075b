// Package config provides configuration loading and management for replytune.
// It supports loading from YAML files and environment variables, with
// hot-reload through Viper's file watcher.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/openeeap/replytune/internal/observability/logging"
)

const (
	// DefaultEnvPrefix is the prefix for environment overrides, e.g. REPLYTUNE_TRAINING_EPOCHS
	DefaultEnvPrefix = "REPLYTUNE"

	// openAIKeyEnv is honoured when openai.api_key is unset
	openAIKeyEnv = "OPENAI_API_KEY"
)

// ============================================================================
// Configuration Loader
// ============================================================================

// Loader manages configuration loading and reloading
type Loader struct {
	viper *viper.Viper

	config *Config
	mu     sync.RWMutex

	watchEnabled    bool
	reloadCallbacks []ReloadCallback

	logger logging.Logger
}

// ReloadCallback is called when configuration is reloaded
type ReloadCallback func(oldConfig, newConfig *Config) error

// LoaderOptions defines options for configuration loader
type LoaderOptions struct {
	// Configuration file path
	ConfigFile string

	// Enable watching for file changes
	EnableWatch bool

	// Environment variable prefix
	EnvPrefix string

	// Additional config paths to search
	ConfigPaths []string

	// Logger (optional)
	Logger logging.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(opts LoaderOptions) *Loader {
	v := viper.New()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/replytune")
		for _, path := range opts.ConfigPaths {
			v.AddConfigPath(path)
		}
	}

	envPrefix := opts.EnvPrefix
	if envPrefix == "" {
		envPrefix = DefaultEnvPrefix
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	return &Loader{
		viper:        v,
		watchEnabled: opts.EnableWatch,
		logger:       logger,
	}
}

// Load loads configuration from all sources
func (l *Loader) Load() (*Config, error) {
	if err := l.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		l.logger.Debug("Configuration file not found, using defaults")
	}

	config, err := l.decode()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.config = config
	l.mu.Unlock()

	l.logger.Info("Configuration loaded", logging.String("file", l.viper.ConfigFileUsed()))

	if l.watchEnabled && l.viper.ConfigFileUsed() != "" {
		l.startWatch()
	}

	return config, nil
}

// Get returns the current configuration
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// OnReload registers a callback to be called when configuration is reloaded
func (l *Loader) OnReload(callback ReloadCallback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reloadCallbacks = append(l.reloadCallbacks, callback)
}

func (l *Loader) decode() (*Config, error) {
	config := &Config{}
	if err := l.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.OpenAI.APIKey == "" {
		config.OpenAI.APIKey = os.Getenv(openAIKeyEnv)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ============================================================================
// Configuration Defaults
// ============================================================================

func applyDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.enable_gzip", true)
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)

	// Training
	v.SetDefault("training.learning_rate", 1e-5)
	v.SetDefault("training.epsilon", 0.2)
	v.SetDefault("training.gamma", 0.99)
	v.SetDefault("training.lambda", 0.95)
	v.SetDefault("training.iterations_per_sample", 5)
	v.SetDefault("training.epochs", 3)
	v.SetDefault("training.per_token_reward", false)
	v.SetDefault("training.feature_dim", 256)
	v.SetDefault("training.seed", 42)
	v.SetDefault("training.snapshot_name", "fine_tuned_email_model")
	v.SetDefault("training.dataset", "")

	// Generator
	v.SetDefault("generator.model", "gpt-3.5-turbo")
	v.SetDefault("generator.temperature", 0.7)
	v.SetDefault("generator.max_tokens", 300)
	v.SetDefault("generator.top_p", 0.9)
	v.SetDefault("generator.frequency_penalty", 0.5)
	v.SetDefault("generator.presence_penalty", 0.5)
	v.SetDefault("generator.timeout", 30*time.Second)
	v.SetDefault("generator.max_retries", 2)
	v.SetDefault("generator.requests_per_second", 3.0)
	v.SetDefault("generator.burst", 1)
	v.SetDefault("generator.style_hints", 0)

	// OpenAI
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.organization_id", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")

	// Reward
	v.SetDefault("reward.cache.enabled", false)
	v.SetDefault("reward.cache.local_size", 0)
	v.SetDefault("reward.cache.ttl", 24*time.Hour)
	v.SetDefault("reward.cache.key_prefix", "replytune:score")

	// Storage
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local.base_path", "./models")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.region", "us-east-1")
	v.SetDefault("storage.minio.bucket", "replytune-models")
	v.SetDefault("storage.minio.access_key_id", "")
	v.SetDefault("storage.minio.secret_access_key", "")
	v.SetDefault("storage.minio.use_ssl", false)

	// Kafka
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "replytune")
	v.SetDefault("kafka.topic", "replytune.training.events")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.compression", "none")
	v.SetDefault("kafka.timeout", 10*time.Second)

	// Database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "replytune")
	v.SetDefault("database.username", "replytune")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_mode", "warn")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	// Observability
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "console")
	v.SetDefault("observability.logging.output", "stderr")
	v.SetDefault("observability.logging.file_path", "")
	v.SetDefault("observability.logging.max_size", 100)
	v.SetDefault("observability.logging.max_backups", 3)
	v.SetDefault("observability.logging.max_age", 28)
	v.SetDefault("observability.logging.compress", true)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.namespace", "replytune")
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.provider", "")
	v.SetDefault("observability.tracing.endpoint", "")
	v.SetDefault("observability.tracing.service_name", "replytune")
	v.SetDefault("observability.tracing.sampling_rate", 1.0)
}

// ============================================================================
// Hot Reload Support
// ============================================================================

func (l *Loader) startWatch() {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		l.logger.Info("Configuration file changed, reloading", logging.String("file", e.Name))

		if err := l.reload(); err != nil {
			l.logger.Error("Failed to reload configuration", logging.Error(err))
		}
	})
	l.viper.WatchConfig()
}

func (l *Loader) reload() error {
	newConfig, err := l.decode()
	if err != nil {
		return err
	}

	l.mu.Lock()
	oldConfig := l.config
	callbacks := append([]ReloadCallback(nil), l.reloadCallbacks...)
	l.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(oldConfig, newConfig); err != nil {
			return fmt.Errorf("reload callback failed: %w", err)
		}
	}

	l.mu.Lock()
	l.config = newConfig
	l.mu.Unlock()

	l.logger.Info("Configuration reloaded")
	return nil
}

// ============================================================================
// Convenience
// ============================================================================

// Load reads configFile (or searches the default paths when empty) and returns the result
func Load(configFile string) (*Config, error) {
	return NewLoader(LoaderOptions{ConfigFile: configFile}).Load()
}

// Default returns the configuration built from defaults and environment only
func Default() (*Config, error) {
	return NewLoader(LoaderOptions{ConfigPaths: []string{}}).decode()
}

//Personal.AI order the ending
