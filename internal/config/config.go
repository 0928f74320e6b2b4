package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Simulation defaults applied to every design.
	TargetYear       int
	ClimateScenario  string
	BuildingType     string
	AppendTargetYear bool
	ReferenceDataDir string

	// OpenAI recommendation generator configuration.
	OpenAIAPIKey       string
	OpenAIEnabled      bool
	OpenAIBaseURL      string
	OpenAIModel        string
	GeneratorTimeout   time.Duration
	GeneratorCacheSize int

	// Result publishing. Empty KafkaBrokers disables publishing.
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	generatorTimeout, err := parsePositiveDuration("GENERATOR_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	targetYear, err := parsePositiveInt("TARGET_YEAR", 2055)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("GENERATOR_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	appendTargetYear, err := parseBool("TIMELINE_APPEND_TARGET_YEAR", true)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	openAIEnabled := apiKey != ""
	if v := os.Getenv("OPENAI_ENABLED"); v != "" {
		openAIEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5002"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TargetYear:       targetYear,
		ClimateScenario:  sharedcfg.EnvOrDefault("CLIMATE_SCENARIO", "Intermediate-High"),
		BuildingType:     sharedcfg.EnvOrDefault("BUILDING_TYPE", "residential"),
		AppendTargetYear: appendTargetYear,
		ReferenceDataDir: os.Getenv("REFERENCE_DATA_DIR"),

		OpenAIAPIKey:       apiKey,
		OpenAIEnabled:      openAIEnabled,
		OpenAIBaseURL:      strings.TrimRight(sharedcfg.EnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OpenAIModel:        sharedcfg.EnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		GeneratorTimeout:   generatorTimeout,
		GeneratorCacheSize: cacheSize,

		KafkaBrokers:      brokers,
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "simulation-results"),
	}

	if cfg.OpenAIEnabled && cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_ENABLED is true but OPENAI_API_KEY is not set")
	}
	if cfg.ClimateScenario == "" {
		return nil, errors.New("CLIMATE_SCENARIO is required")
	}
	if cfg.PublishEnabled() && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishEnabled reports whether simulation results are written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
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
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return b, nil
}
