package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the kbsearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Extract   ExtractConfig   `yaml:"extract"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds cache store settings for extracted content and embeddings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ContentTTLSec    int      `yaml:"content_ttl_sec"` // extracted content freshness window
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RetryConfig holds retry-with-backoff settings for provider calls.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider          string      `yaml:"provider"` // label for logs and metrics
	APIKey            string      `yaml:"api_key"`
	BaseURL           string      `yaml:"base_url"`
	Model             string      `yaml:"model"`
	Dimensions        int         `yaml:"dimensions"`
	BatchSize         int         `yaml:"batch_size"`          // texts embedded concurrently per chunk
	RequestTimeoutSec int         `yaml:"request_timeout_sec"` // client-side cap per provider call
	Retry             RetryConfig `yaml:"retry"`
}

// ExtractConfig holds content extraction settings.
type ExtractConfig struct {
	FetchTimeoutMs  int    `yaml:"fetch_timeout_ms"`  // per-URL fetch deadline
	ExportTimeoutMs int    `yaml:"export_timeout_ms"` // Google Docs export fetch deadline
	MaxContentChars int    `yaml:"max_content_chars"` // truncation cap on the search path
	MaxExtractChars int    `yaml:"max_extract_chars"` // truncation cap for the /extract endpoint
	UserAgent       string `yaml:"user_agent"`
}

// SearchConfig holds hybrid ranking settings.
type SearchConfig struct {
	DefaultThreshold    float64 `yaml:"default_threshold"`
	PrefilterMultiplier float64 `yaml:"prefilter_multiplier"` // stage 1 keeps docs at threshold * multiplier
	DeepBatchSize       int     `yaml:"deep_batch_size"`      // docs per stage-2 batch
	ShortQueryMaxLen    int     `yaml:"short_query_max_len"`
	ShortQueryFloor     float64 `yaml:"short_query_floor"` // minimum similarity for short queries
	MaxDocuments        int     `yaml:"max_documents"`     // request-size guard
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.ContentTTLSec <= 0 {
		c.Cache.ContentTTLSec = 600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 3
	}
	if c.Embedding.RequestTimeoutSec <= 0 {
		c.Embedding.RequestTimeoutSec = 15
	}
	if c.Embedding.Retry.MaxAttempts <= 0 {
		c.Embedding.Retry.MaxAttempts = 3
	}
	if c.Embedding.Retry.BaseDelayMs <= 0 {
		c.Embedding.Retry.BaseDelayMs = 500
	}
	if c.Extract.FetchTimeoutMs <= 0 {
		c.Extract.FetchTimeoutMs = 5000
	}
	if c.Extract.ExportTimeoutMs <= 0 {
		c.Extract.ExportTimeoutMs = 3000
	}
	if c.Extract.MaxContentChars <= 0 {
		c.Extract.MaxContentChars = 4000
	}
	if c.Extract.MaxExtractChars <= 0 {
		c.Extract.MaxExtractChars = 5000
	}
	if c.Extract.UserAgent == "" {
		c.Extract.UserAgent = "Mozilla/5.0 (compatible; kbsearch-bot/1.0)"
	}
	if c.Search.DefaultThreshold <= 0 {
		c.Search.DefaultThreshold = 0.3
	}
	if c.Search.PrefilterMultiplier <= 0 {
		c.Search.PrefilterMultiplier = 0.7
	}
	if c.Search.DeepBatchSize <= 0 {
		c.Search.DeepBatchSize = 3
	}
	if c.Search.ShortQueryMaxLen <= 0 {
		c.Search.ShortQueryMaxLen = 3
	}
	if c.Search.ShortQueryFloor <= 0 {
		c.Search.ShortQueryFloor = 0.7
	}
	if c.Search.MaxDocuments <= 0 {
		c.Search.MaxDocuments = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case "memory":
		// no address needed
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\" or \"redis\", got %q", c.Cache.Driver)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Search.PrefilterMultiplier > 1 {
		return fmt.Errorf(
			"search.prefilter_multiplier must be in (0, 1], got %g", c.Search.PrefilterMultiplier,
		)
	}
	if c.Search.ShortQueryFloor > 1 {
		return fmt.Errorf("search.short_query_floor must be in (0, 1], got %g", c.Search.ShortQueryFloor)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
