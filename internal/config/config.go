package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Model backends.
const (
	ModelBackendFile = "file"
	ModelBackendHTTP = "http"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather source.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	WeatherTimeout     time.Duration
	WeatherCache       bool
	WeatherCacheTTL    time.Duration
	WeatherCacheSize   int

	// Classifier and manifest.
	ModelBackend       string
	ModelPath          string
	ManifestPath       string
	ModelServerURL     string
	ModelServerTimeout time.Duration

	// Request stream.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Cache warming and the popular locations list.
	WarmLocations    []string
	WarmInterval     time.Duration
	PopularLocations []string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("WEATHER_CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	modelServerTimeout, err := parsePositiveDuration("MODEL_SERVER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	warmInterval, err := parsePositiveDuration("WARM_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("WEATHER_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
		WeatherTimeout:     weatherTimeout,
		WeatherCache:       sharedcfg.EnvOrDefault("WEATHER_CACHE_ENABLED", "true") == "true",
		WeatherCacheTTL:    cacheTTL,
		WeatherCacheSize:   cacheSize,

		ModelBackend:       strings.ToLower(sharedcfg.EnvOrDefault("MODEL_BACKEND", ModelBackendFile)),
		ModelPath:          sharedcfg.EnvOrDefault("MODEL_PATH", "model/rain_model.json"),
		ManifestPath:       sharedcfg.EnvOrDefault("MANIFEST_PATH", "model/feature_columns.json"),
		ModelServerURL:     os.Getenv("MODEL_SERVER_URL"),
		ModelServerTimeout: modelServerTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "rain-prediction-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "rain-predictions"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "rain-prediction-service"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		WarmLocations:    splitList(os.Getenv("WARM_LOCATIONS")),
		WarmInterval:     warmInterval,
		PopularLocations: splitList(sharedcfg.EnvOrDefault("POPULAR_LOCATIONS", "Delhi,Mumbai,Bangalore,Chennai,Lucknow,Kolkata,Jaipur,Pune,Hyderabad,Ahmedabad")),
	}

	if cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	switch cfg.ModelBackend {
	case ModelBackendFile:
		if cfg.ModelPath == "" || cfg.ManifestPath == "" {
			return nil, errors.New("MODEL_PATH and MANIFEST_PATH are required")
		}
	case ModelBackendHTTP:
		if cfg.ModelServerURL == "" {
			return nil, errors.New("MODEL_BACKEND is http but MODEL_SERVER_URL is not set")
		}
		if cfg.ManifestPath == "" {
			return nil, errors.New("MANIFEST_PATH is required")
		}
	default:
		return nil, fmt.Errorf("invalid MODEL_BACKEND %q", cfg.ModelBackend)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
