package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Artifact store and model selection.
	ArtifactDir  string
	DefaultModel string

	// Prediction cache.
	CacheBackend string
	CacheSize    int
	CacheTTL     time.Duration
	RedisAddr    string
	RedisDB      int

	// Prediction events. Publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers         []string
	KafkaPredictionTopic string
	KafkaWriteTimeout    time.Duration
}

// PublishEnabled reports whether prediction events go to Kafka.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("ARTIFACT_DIR", "models")
	v.SetDefault("DEFAULT_MODEL", "Ridge Regression")
	v.SetDefault("CACHE_BACKEND", CacheMemory)
	v.SetDefault("CACHE_SIZE", "1000")
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", "0")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_PREDICTION_TOPIC", "fire-weather-predictions")
	v.SetDefault("KAFKA_WRITE_TIMEOUT", "5s")
	return v
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	v := newViper()

	shutdownTimeout, err := positiveDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := positiveDuration(v, "CACHE_TTL")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := positiveDuration(v, "KAFKA_WRITE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	cacheSize, err := integer(v, "CACHE_SIZE")
	if err != nil {
		return nil, err
	}
	redisDB, err := integer(v, "REDIS_DB")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		ShutdownTimeout: shutdownTimeout,

		ArtifactDir:  v.GetString("ARTIFACT_DIR"),
		DefaultModel: v.GetString("DEFAULT_MODEL"),

		CacheBackend: strings.ToLower(v.GetString("CACHE_BACKEND")),
		CacheSize:    cacheSize,
		CacheTTL:     cacheTTL,
		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisDB:      redisDB,

		KafkaBrokers:         parseBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaPredictionTopic: v.GetString("KAFKA_PREDICTION_TOPIC"),
		KafkaWriteTimeout:    writeTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.ArtifactDir == "" {
		return errors.New("ARTIFACT_DIR is required")
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		return errors.New("DEFAULT_MODEL is required")
	}

	switch c.CacheBackend {
	case CacheMemory:
		if c.CacheSize <= 0 {
			return errors.New("CACHE_SIZE must be positive for the memory cache")
		}
	case CacheRedis:
		if c.RedisAddr == "" {
			return errors.New("CACHE_BACKEND is redis but REDIS_ADDR is not set")
		}
		if c.RedisDB < 0 {
			return errors.New("REDIS_DB must not be negative")
		}
	case CacheNone:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (want memory, redis or none)", c.CacheBackend)
	}

	if c.PublishEnabled() && c.KafkaPredictionTopic == "" {
		return errors.New("KAFKA_PREDICTION_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func integer(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
