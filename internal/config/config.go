package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvRunnerURL overrides runner.base_url when set.
const EnvRunnerURL = "FLOWDESK_RUNNER_URL"

// Config holds the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Runner   RunnerConfig   `yaml:"runner"`
	Graph    GraphConfig    `yaml:"graph"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
	// StaticDir serves a built editor frontend when set.
	StaticDir string `yaml:"static_dir"`
}

// RunnerConfig points at the external workflow runner.
type RunnerConfig struct {
	BaseURL string        `yaml:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// Fallback is one of always, transport or never.
	Fallback       string        `yaml:"fallback" validate:"omitempty,oneof=always transport never"`
	SimulatedDelay time.Duration `yaml:"simulated_delay" validate:"gte=0"`
	UploadDelay    time.Duration `yaml:"upload_delay" validate:"gte=0"`
}

// GraphConfig controls how strictly the graph store checks mutations.
type GraphConfig struct {
	StrictIDs   bool `yaml:"strict_ids"`
	StrictEdges bool `yaml:"strict_edges"`
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// execution history in memory.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig sets where uploaded documents are written. An empty Dir
// disables storage.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Runner: RunnerConfig{
			BaseURL:        "http://localhost:8000",
			Fallback:       "always",
			SimulatedDelay: 2 * time.Second,
			UploadDelay:    1500 * time.Millisecond,
		},
		Graph:   GraphConfig{StrictIDs: true},
		Storage: StorageConfig{Dir: "data/uploads"},
		Log:     LogConfig{Level: "info"},
	}
}

// Default returns the built-in configuration with environment overrides
// applied.
func Default() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// Load reads a YAML configuration file at path over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads ".env" if present, then "config.yaml" from the current
// directory. A missing config file yields the defaults; any other error
// (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is LoadDefault with an explicit config path.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvRunnerURL)); v != "" {
		cfg.Runner.BaseURL = v
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
