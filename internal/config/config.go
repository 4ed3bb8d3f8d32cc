package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultMockURL  = "https://via.placeholder.com/1024x1024.png?text=Z-Image-Turbo+Remote+Render"
	DefaultMockWait = 2 * time.Second
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Static     StaticConfig     `mapstructure:"static"`
	Results    ResultsConfig    `mapstructure:"results"`
	Mock       MockConfig       `mapstructure:"mock"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	RunPod     RunPodConfig     `mapstructure:"runpod"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`

	// DefaultModel is used when a generate request names no model.
	DefaultModel string `mapstructure:"default_model"`
	// Models replaces the built-in model table when non-empty.
	Models []ModelConfig `mapstructure:"models" validate:"dive"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error fatal"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type StaticConfig struct {
	Dir string `mapstructure:"dir"`
}

type ResultsConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// MockConfig controls the placeholder response served when provider credentials are missing.
type MockConfig struct {
	Delay time.Duration `mapstructure:"delay" validate:"gte=0"`
	URL   string        `mapstructure:"url" validate:"required,url"`
}

type CacheConfig struct {
	Driver     string        `mapstructure:"driver" validate:"oneof=none memory redis"`
	RedisURL   string        `mapstructure:"redis_url" validate:"required_if=Driver redis"`
	BalanceTTL time.Duration `mapstructure:"balance_ttl" validate:"gte=0"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type RunPodConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	EndpointID string        `mapstructure:"endpoint_id"`
	BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
	GraphQLURL string        `mapstructure:"graphql_url" validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type OpenRouterConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Model   string        `mapstructure:"model" validate:"required"`
	Referer string        `mapstructure:"referer"`
	Title   string        `mapstructure:"title"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ModelConfig is one row of the model table as written in config.yaml.
type ModelConfig struct {
	ID            string `mapstructure:"id" validate:"required"`
	Provider      string `mapstructure:"provider" validate:"required"`
	EndpointID    string `mapstructure:"endpoint_id"`
	Name          string `mapstructure:"name"`
	ContentRating string `mapstructure:"content_rating"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// Environment Variables: runpod.api_key -> RUNPOD_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("static.dir", "./frontend")
	v.SetDefault("results.path", "./backend/model_test_results.json")

	v.SetDefault("mock.delay", DefaultMockWait)
	v.SetDefault("mock.url", DefaultMockURL)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.balance_ttl", time.Minute)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "studio-relay")

	v.SetDefault("runpod.api_key", "")
	v.SetDefault("runpod.endpoint_id", "")
	v.SetDefault("runpod.base_url", "https://api.runpod.ai/v2")
	v.SetDefault("runpod.graphql_url", "https://api.runpod.io/graphql")
	v.SetDefault("runpod.timeout", time.Duration(0))

	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "black-forest-labs/flux.2-pro")
	v.SetDefault("openrouter.referer", "https://aprils-spielzeugkasten.netlify.app")
	v.SetDefault("openrouter.title", "Uncensored Studio")
	v.SetDefault("openrouter.timeout", time.Duration(0))

	v.SetDefault("default_model", "")
}

// Validate checks the decoded configuration for values the relay cannot start with.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RunPodConfigured reports whether RunPod calls can be authenticated.
func (c *Config) RunPodConfigured() bool {
	return c.RunPod.APIKey != ""
}

func (c *Config) OpenRouterConfigured() bool {
	return c.OpenRouter.APIKey != ""
}
