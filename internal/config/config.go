package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Upstream  Upstream  `mapstructure:"upstream"`
	Grounding Grounding `mapstructure:"grounding"`
	Cache     Cache     `mapstructure:"cache"`
	Server    Server    `mapstructure:"server"`
	Store     Store     `mapstructure:"store"`
	Logging   Logging   `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// AI holds generation backend configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int32         `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
}

// Upstream holds PR TIMES API configuration
type Upstream struct {
	BaseURL     string        `mapstructure:"base_url"`
	Token       string        `mapstructure:"token"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	PageSize    int           `mapstructure:"page_size"`
	MaxPages    int           `mapstructure:"max_pages"`
}

// Grounding holds context window configuration
type Grounding struct {
	OverfetchFactor int `mapstructure:"overfetch_factor"`
	FetchCeiling    int `mapstructure:"fetch_ceiling"`
}

// Cache holds in-memory cache configuration
type Cache struct {
	CompaniesTTL time.Duration `mapstructure:"companies_ttl"`
}

// Server holds HTTP server configuration
type Server struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORS           CORS          `mapstructure:"cors"`
}

// CORS holds cross-origin configuration
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Store holds analysis history configuration
type Store struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads configuration from file, .env and environment
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".hookscope")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	postProcessConfig(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".hookscope")

	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.max_tokens", 4096)
	viper.SetDefault("ai.gemini.temperature", 0.2)

	viper.SetDefault("upstream.base_url", "https://hackathon.stg-prtimes.net/api")
	viper.SetDefault("upstream.timeout", "30s")
	viper.SetDefault("upstream.min_interval", "100ms")
	viper.SetDefault("upstream.page_size", 100)
	viper.SetDefault("upstream.max_pages", 20)

	viper.SetDefault("grounding.overfetch_factor", 2)
	viper.SetDefault("grounding.fetch_ceiling", 100)

	viper.SetDefault("cache.companies_ttl", "5m")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.request_timeout", "110s")
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})

	viper.SetDefault("store.enabled", true)
	viper.SetDefault("store.directory", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("ai.gemini.model", []string{
		"GEMINI_MODEL",
	})

	bindEnvKeys("upstream.token", []string{
		"PRTIMES_TOKEN",
		"PRTIMES_API_TOKEN",
	})

	bindEnvKeys("upstream.base_url", []string{
		"PRTIMES_BASE_URL",
	})

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		viper.Set("server.cors.allowed_origins", ParseOrigins(origins))
	}

	bindEnvKeys("server.port", []string{
		"PORT",
		"HOOKSCOPE_PORT",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"HOOKSCOPE_DEBUG",
	})

	bindEnvKeys("logging.level", []string{
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// ParseOrigins accepts a JSON array or a comma separated list.
func ParseOrigins(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{"*"}
	}
	if strings.HasPrefix(value, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(value), &arr); err == nil {
			return arr
		}
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) {
	config.App.DataDir = expandPath(config.App.DataDir)
	if config.Store.Directory == "" {
		config.Store.Directory = config.App.DataDir
	}
	config.Store.Directory = expandPath(config.Store.Directory)
	config.Upstream.BaseURL = strings.TrimRight(config.Upstream.BaseURL, "/")
	config.Logging.Level = strings.ToLower(config.Logging.Level)
	config.Logging.Format = strings.ToLower(config.Logging.Format)
	if config.App.Debug {
		config.Logging.Level = "debug"
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig checks value ranges. Missing credentials are not errors:
// without a Gemini key analyses degrade, and without a PR TIMES token the
// upstream calls fail with an authorization hint.
func validateConfig(config *Config) error {
	var errors []string

	if config.AI.Gemini.Timeout <= 0 {
		errors = append(errors, "ai.gemini.timeout must be positive")
	}
	if config.AI.Gemini.MaxTokens <= 0 {
		errors = append(errors, "ai.gemini.max_tokens must be positive")
	}
	if config.AI.Gemini.Temperature < 0 || config.AI.Gemini.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("ai.gemini.temperature must be between 0 and 2, got %v", config.AI.Gemini.Temperature))
	}

	if config.Upstream.BaseURL == "" {
		errors = append(errors, "upstream.base_url is required. Set PRTIMES_BASE_URL or upstream.base_url in config file")
	}
	if config.Upstream.Timeout <= 0 {
		errors = append(errors, "upstream.timeout must be positive")
	}
	if config.Upstream.PageSize < 1 || config.Upstream.PageSize > 999 {
		errors = append(errors, fmt.Sprintf("upstream.page_size must be between 1 and 999, got %d", config.Upstream.PageSize))
	}
	if config.Upstream.MaxPages < 1 {
		errors = append(errors, "upstream.max_pages must be at least 1")
	}

	if config.Grounding.OverfetchFactor < 1 {
		errors = append(errors, "grounding.overfetch_factor must be at least 1")
	}
	if config.Grounding.FetchCeiling < 1 {
		errors = append(errors, "grounding.fetch_ceiling must be at least 1")
	}

	if config.Cache.CompaniesTTL <= 0 {
		errors = append(errors, "cache.companies_ttl must be positive")
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("server.port must be between 1 and 65535, got %d", config.Server.Port))
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("Unknown logging level: %s. Supported: debug, info, warn, error", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "json", "text":
	default:
		errors = append(errors, fmt.Sprintf("Unknown logging format: %s. Supported: json, text", config.Logging.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// HasGemini reports whether a Gemini API key is configured.
func (c *Config) HasGemini() bool {
	return c.AI.Gemini.APIKey != ""
}

// HasUpstreamToken reports whether a PR TIMES token is configured.
func (c *Config) HasUpstreamToken() bool {
	return c.Upstream.Token != ""
}

// Redacted returns a copy safe to expose on diagnostics endpoints.
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"gemini_configured":   c.HasGemini(),
		"gemini_model":        c.AI.Gemini.Model,
		"gemini_timeout":      c.AI.Gemini.Timeout.String(),
		"max_tokens":          c.AI.Gemini.MaxTokens,
		"temperature":         c.AI.Gemini.Temperature,
		"upstream_base_url":   c.Upstream.BaseURL,
		"upstream_token_set":  c.HasUpstreamToken(),
		"upstream_timeout":    c.Upstream.Timeout.String(),
		"page_size":           c.Upstream.PageSize,
		"max_pages":           c.Upstream.MaxPages,
		"overfetch_factor":    c.Grounding.OverfetchFactor,
		"fetch_ceiling":       c.Grounding.FetchCeiling,
		"companies_cache_ttl": c.Cache.CompaniesTTL.String(),
		"cors_origins":        c.Server.CORS.AllowedOrigins,
		"store_enabled":       c.Store.Enabled,
		"log_level":           c.Logging.Level,
	}
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
