// Package config loads the service configuration from YAML, .env and the
// process environment. The configuration is read once at start-up and is
// treated as read-only afterwards.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"counterparty_analyzer/pkg/core/rating"
)

// DefaultPath is where the binaries look for the config file.
const DefaultPath = "config/analyzer.yaml"

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Inference  InferenceConfig  `yaml:"inference"`
	OCR        OCRConfig        `yaml:"ocr"`
	Processing ProcessingConfig `yaml:"processing"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	BodyLimitMB int    `yaml:"body_limit_mb" validate:"min=1"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"` // empty disables bearer auth
}

type InferenceConfig struct {
	Provider          string  `yaml:"provider" validate:"oneof=ollama gemini anthropic deepseek manual"`
	Model             string  `yaml:"model" validate:"required_unless=Provider manual"`
	BaseURL           string  `yaml:"base_url" validate:"omitempty,url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" validate:"min=1"`
	Temperature       float64 `yaml:"temperature" validate:"min=0,max=2"`
	NumCtx            int     `yaml:"num_ctx" validate:"min=0"`
	NumPredict        int     `yaml:"num_predict" validate:"min=0"`
	RepeatPenalty     float64 `yaml:"repeat_penalty" validate:"min=0"`
	RepeatLastN       int     `yaml:"repeat_last_n"`
	RequestsPerMinute int     `yaml:"requests_per_minute" validate:"min=0"` // 0 disables the limiter

	// Secrets come from the environment only.
	GeminiAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	DeepSeekAPIKey  string `yaml:"-"`
}

// Timeout returns the per-call inference timeout.
func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type OCRConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Model       string `yaml:"model"`
	MinPageText int    `yaml:"min_page_text" validate:"min=0"` // pages with fewer characters count as scanned
}

type ProcessingConfig struct {
	MaxFiles        int    `yaml:"max_files" validate:"min=1"`
	MaxUploadSizeMB int    `yaml:"max_upload_size_mb" validate:"min=1"`
	MaxTotalTokens  int    `yaml:"max_total_tokens" validate:"min=1"`
	PromptsDir      string `yaml:"prompts_dir"`
}

// MaxUploadBytes is the limit on the combined size of one request's files.
func (p ProcessingConfig) MaxUploadBytes() int64 {
	return int64(p.MaxUploadSizeMB) * 1024 * 1024
}

type ValidatorConfig struct {
	MaxUnclosed   int  `yaml:"max_unclosed" validate:"min=0,max=8"`
	LenientRepair bool `yaml:"lenient_repair"`
}

type AnalysisConfig struct {
	AverageFallback bool                   `yaml:"average_fallback"`
	Thresholds      map[string]rating.Rule `yaml:"thresholds"`
}

type StorageConfig struct {
	DatabaseURL string `yaml:"database_url"` // empty disables the audit log
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// NewDefaultConfig returns the configuration used when no file is present.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8015,
			BodyLimitMB: 60,
		},
		Inference: InferenceConfig{
			Provider:          "ollama",
			Model:             "gpt-oss:20b",
			BaseURL:           "http://localhost:11434",
			TimeoutSeconds:    600,
			Temperature:       0.3,
			NumCtx:            65536,
			NumPredict:        4096,
			RepeatPenalty:     1.3,
			RepeatLastN:       256,
			RequestsPerMinute: 0,
		},
		OCR: OCRConfig{
			Enabled:     false,
			Model:       "gemini-1.5-flash",
			MinPageText: 50,
		},
		Processing: ProcessingConfig{
			MaxFiles:        10,
			MaxUploadSizeMB: 50,
			MaxTotalTokens:  60000,
			PromptsDir:      "resources",
		},
		Validator: ValidatorConfig{
			MaxUnclosed: 1,
		},
		Analysis: AnalysisConfig{
			AverageFallback: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path (when it exists) over the defaults, applies .env and
// environment overrides and validates the result. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := NewDefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("CONFIG_PARSE_ERROR: %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("CONFIG_READ_ERROR: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("CONFIG_PARSE_ERROR: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the threshold overrides.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("CONFIG_INVALID: %w", err)
	}
	for id, rule := range c.Analysis.Thresholds {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("CONFIG_INVALID: analysis.thresholds.%s: %w", id, err)
		}
	}
	return nil
}

func applyEnvOverrides(c *Config) {
	if key := os.Getenv("ANALYZER_API_KEY"); key != "" {
		c.Auth.APIKey = key
	}
	if provider := os.Getenv("ANALYZER_PROVIDER"); provider != "" {
		c.Inference.Provider = strings.ToLower(provider)
	}
	if model := os.Getenv("ANALYZER_MODEL"); model != "" {
		c.Inference.Model = model
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		c.Inference.BaseURL = url
	}
	if port := os.Getenv("ANALYZER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("ANALYZER_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Storage.DatabaseURL = dsn
	}

	c.Inference.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.Inference.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.Inference.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
}
