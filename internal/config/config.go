// Package config loads the relnotes runtime configuration.
//
// Sources, lowest precedence first: built-in defaults, a YAML file,
// environment variables. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvConfigPath = "RELNOTES_CONFIG"
	EnvAddr       = "RELNOTES_ADDR"
	EnvDataDir    = "RELNOTES_DATA_DIR"
	EnvGeminiKey  = "GEMINI_API_KEY"
	EnvAPIKey     = "API_KEY"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

// KV backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config is the full runtime configuration.
type Config struct {
	// Addr is the HTTP listen address for the serve command.
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	// DataDir holds the preference database.
	DataDir string `yaml:"data_dir" validate:"required"`
	// ProductsFile overrides the bundled dataset when set.
	ProductsFile string `yaml:"products_file"`
	// Backend selects the preference KV.
	Backend string `yaml:"backend" validate:"oneof=sqlite badger memory"`

	LogLevel string     `yaml:"log_level" validate:"oneof=debug info warn error"`
	AI       AIConfig   `yaml:"ai"`
	Limits   Limits     `yaml:"limits"`
	Tracing  Tracing    `yaml:"tracing"`
	Shutdown Duration   `yaml:"shutdown_timeout"`
	CORS     CORSConfig `yaml:"cors"`
}

// AIConfig selects the text generation backend.
type AIConfig struct {
	Provider string `yaml:"provider" validate:"oneof=gemini openai"`
	Model    string `yaml:"model"`
	// APIKey is normally supplied through the environment. Empty means
	// fallback answers.
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url" validate:"omitempty,url"`
	Timeout Duration `yaml:"timeout"`
}

// Limits bounds the AI search endpoint.
type Limits struct {
	// AISearchRPS is nil when unset; an explicit 0 disables throttling.
	AISearchRPS   *float64 `yaml:"ai_search_rps" validate:"omitempty,gte=0"`
	AISearchBurst int      `yaml:"ai_search_burst" validate:"gte=0"`
	MaxQueryBytes int      `yaml:"max_query_bytes" validate:"gt=0"`
}

// RPS returns the AI search rate, or 0 when throttling is disabled.
func (l Limits) RPS() float64 {
	if l.AISearchRPS == nil {
		return 0
	}
	return *l.AISearchRPS
}

// Tracing toggles OpenTelemetry spans written to stdout.
type Tracing struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// CORSConfig lists allowed origins; "*" allows all.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins" validate:"min=1"`
}

// Duration is a time.Duration that unmarshals from strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

var validate = validator.New()

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Path returns the config file path from the environment, or the
// default location under the user config directory.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "relnotes.yaml"
	}
	return filepath.Join(dir, "relnotes", "config.yaml")
}

// Load reads path (a missing file means defaults), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks cfg against its field constraints.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:3001"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSQLite
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = Duration(60 * time.Second)
	}
	if cfg.Limits.AISearchRPS == nil {
		rps := 1.0
		cfg.Limits.AISearchRPS = &rps
	}
	if cfg.Limits.AISearchBurst == 0 {
		cfg.Limits.AISearchBurst = 5
	}
	if cfg.Limits.MaxQueryBytes == 0 {
		cfg.Limits.MaxQueryBytes = 2048
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "relnotes"
	}
	if cfg.Shutdown == 0 {
		cfg.Shutdown = Duration(10 * time.Second)
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS.AllowOrigins = []string{"*"}
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if cfg.AI.APIKey != "" {
		return
	}
	switch cfg.AI.Provider {
	case "openai":
		cfg.AI.APIKey = os.Getenv(EnvOpenAIKey)
	default:
		if v := os.Getenv(EnvGeminiKey); v != "" {
			cfg.AI.APIKey = v
		} else {
			cfg.AI.APIKey = os.Getenv(EnvAPIKey)
		}
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".relnotes"
	}
	return filepath.Join(home, ".relnotes")
}
