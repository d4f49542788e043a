package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

var (
	ErrMissingDB        = errors.New("DATABASE_URL is required for the postgres backend")
	ErrUnknownBackend   = errors.New("unknown storage backend")
	ErrIncompleteGoogle = errors.New("GOOGLE_SEARCH_KEY and GOOGLE_CSE_ID must be set together")
	ErrInvalidBlacklist = errors.New("BLACKLIST_COOLDOWN_SEC must be positive")
)

type Config struct {
	Search    SearchConfig
	Resolve   ResolveConfig
	Storage   StorageConfig
	Output    OutputConfig
	Metrics   MetricsConfig
	Log       LogConfig
	GoogleCSE GoogleCSEConfig
	// CredentialsFile optionally points at a YAML file with extra API keys,
	// merged on top of the environment.
	CredentialsFile string
}

type SearchConfig struct {
	// MaxResults caps how many deduplicated posts go into resolution.
	MaxResults int
	// MaxConcurrent caps simultaneous provider calls.
	MaxConcurrent int
	// PerCallSleep spaces out calls against the same upstream.
	PerCallSleep time.Duration
	// Timeout bounds the whole discovery run.
	Timeout time.Duration
	// BlacklistCooldown is how long a failed credential slot rests.
	BlacklistCooldown time.Duration
}

type ResolveConfig struct {
	// MaxConcurrent caps simultaneous engagement resolutions.
	MaxConcurrent int
	// MinEngagement is the score at or above which a post counts as viral.
	MinEngagement float64
	// PageFetchEnabled turns on the direct page fetch strategy.
	PageFetchEnabled bool
}

type StorageConfig struct {
	// Backend is one of json, sqlite, postgres.
	Backend string
	// DatabaseURL is the postgres DSN.
	DatabaseURL string
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string
}

type OutputConfig struct {
	// Dir receives the run report.
	Dir string
	// ImagesDir receives downloaded thumbnails.
	ImagesDir string
}

type MetricsConfig struct {
	// Port exposes /metrics; 0 disables the server.
	Port int
}

type LogConfig struct {
	Level string
}

// GoogleCSEConfig pairs the API key with the custom search engine ID.
// The key itself rotates through the credential pool; the engine ID is
// static configuration.
type GoogleCSEConfig struct {
	Key   string
	CSEID string
}

func Load() (*Config, error) {
	cfg := &Config{
		Search: SearchConfig{
			MaxResults:        getEnvIntOrDefault("MAX_RESULTS", 30),
			MaxConcurrent:     getEnvIntOrDefault("MAX_CONCURRENT_SEARCHES", 5),
			PerCallSleep:      time.Duration(getEnvIntOrDefault("PER_CALL_SLEEP_MS", 200)) * time.Millisecond,
			Timeout:           time.Duration(getEnvIntOrDefault("TIMEOUT_SEC", 120)) * time.Second,
			BlacklistCooldown: time.Duration(getEnvIntOrDefault("BLACKLIST_COOLDOWN_SEC", 300)) * time.Second,
		},
		Resolve: ResolveConfig{
			MaxConcurrent:    getEnvIntOrDefault("MAX_CONCURRENT_RESOLVES", 3),
			MinEngagement:    getEnvFloatOrDefault("MIN_ENGAGEMENT", 10),
			PageFetchEnabled: getEnvBoolOrDefault("PAGE_FETCH_ENABLED", false),
		},
		Storage: StorageConfig{
			Backend:     getEnvOrDefault("STORAGE_BACKEND", "json"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			SQLitePath:  getEnvOrDefault("SQLITE_PATH", "viralfinder.db"),
		},
		Output: OutputConfig{
			Dir:       getEnvOrDefault("OUTPUT_DIR", "output"),
			ImagesDir: getEnvOrDefault("IMAGES_DIR", "images"),
		},
		Metrics: MetricsConfig{
			Port: getEnvIntOrDefault("METRICS_PORT", 0),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
		GoogleCSE: GoogleCSEConfig{
			Key:   os.Getenv("GOOGLE_SEARCH_KEY"),
			CSEID: os.Getenv("GOOGLE_CSE_ID"),
		},
		CredentialsFile: os.Getenv("CREDENTIALS_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "json", "sqlite":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return ErrMissingDB
		}
	default:
		return ErrUnknownBackend
	}

	if (c.GoogleCSE.Key == "") != (c.GoogleCSE.CSEID == "") {
		return ErrIncompleteGoogle
	}
	if c.Search.BlacklistCooldown <= 0 {
		return ErrInvalidBlacklist
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
