// Package config loads dexbot configuration from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/cpunion/dexbot/pkg/agent"
	"github.com/cpunion/dexbot/pkg/llm"
	"github.com/cpunion/dexbot/pkg/research"
	"github.com/cpunion/dexbot/pkg/search"
)

// Config holds all dexbot configuration.
type Config struct {
	LLM      LLMConfig       `yaml:"llm"`
	Research research.Config `yaml:"research"`
	Data     DataConfig      `yaml:"data"`
	Search   SearchConfig    `yaml:"search"`
	Log      LogConfig       `yaml:"log"`
	Server   ServerConfig    `yaml:"server"`
}

// LLMConfig configures the Gemini models.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	// PlannerModel drives outline, plan and report; defaults to Model.
	PlannerModel string `yaml:"planner_model"`
	// MaxRequests bounds model requests per executed query.
	MaxRequests int `yaml:"max_requests"`
}

// DataConfig locates the roster and session files.
type DataConfig struct {
	Dir       string `yaml:"dir"`        // sessions are stored under <dir>/sessions
	Roster    string `yaml:"roster"`     // JSON roster file
	SQLite    string `yaml:"sqlite"`     // imported roster database, preferred when set
	TypeChart string `yaml:"type_chart"` // optional chart override
}

// SearchConfig configures criteria search.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Events      string `yaml:"events"` // JSONL research event log, disabled when empty
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       llm.DefaultModel,
			MaxRequests: agent.DefaultMaxRequests,
		},
		Research: research.DefaultConfig(),
		Data: DataConfig{
			Dir:    "./data",
			Roster: "./data/roster.json",
		},
		Search: SearchConfig{DefaultLimit: search.DefaultLimit},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
	}
}

// Load reads configuration from path. A missing file yields the defaults.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GOOGLE_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("DEXBOT_PLANNER_MODEL"); v != "" {
		c.LLM.PlannerModel = v
	}
	if v := os.Getenv("DEXBOT_DATA"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("DEXBOT_ROSTER"); v != "" {
		c.Data.Roster = v
	}
	if v := os.Getenv("DEXBOT_SQLITE"); v != "" {
		c.Data.SQLite = v
	}
	if v := os.Getenv("DEXBOT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DEXBOT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DEXBOT_MAX_TURNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DEXBOT_MAX_TURNS: %w", err)
		}
		c.Research.MaxTurns = n
	}
	return nil
}

// Validate checks the configuration for values the program cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Research.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("research.max_turns must be at least 1, got %d", c.Research.MaxTurns))
	}
	if c.Research.MaxClarifyTurns < 0 {
		errs = append(errs, fmt.Errorf("research.max_clarify_turns must not be negative"))
	}
	if c.Research.ExecuteTimeout < 0 {
		errs = append(errs, fmt.Errorf("research.execute_timeout must not be negative"))
	}
	if c.LLM.MaxRequests < 1 {
		errs = append(errs, fmt.Errorf("llm.max_requests must be at least 1, got %d", c.LLM.MaxRequests))
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > search.MaxLimit {
		errs = append(errs, fmt.Errorf("search.default_limit must be in [1, %d], got %d", search.MaxLimit, c.Search.DefaultLimit))
	}
	if c.Data.Roster == "" && c.Data.SQLite == "" {
		errs = append(errs, errors.New("data.roster or data.sqlite must be set"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// RequireLLM reports an error when no API key is configured.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key not configured (set GOOGLE_API_KEY or llm.api_key)")
	}
	return nil
}

// ExecutorModel returns the Gemini settings for query execution.
func (c *Config) ExecutorModel() llm.GeminiConfig {
	return llm.GeminiConfig{APIKey: c.LLM.APIKey, Model: c.LLM.Model}
}

// PlannerModel returns the Gemini settings for outline, plan, report and
// clarify calls.
func (c *Config) PlannerModel() llm.GeminiConfig {
	model := c.LLM.PlannerModel
	if model == "" {
		model = c.LLM.Model
	}
	return llm.GeminiConfig{APIKey: c.LLM.APIKey, Model: model}
}

// SessionsDir is where research sessions are saved.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Data.Dir, "sessions")
}

// NewLogger builds a zap logger for the configured level.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
