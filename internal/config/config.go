// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Gate      GateConfig      `mapstructure:"gate" yaml:"gate"`
	Optimizer OptimizerConfig `mapstructure:"optimizer" yaml:"optimizer"`
}

// LoggerConfig controls the zap logger bootstrap.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console format.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// GateConfig tunes the safety & syntax gate thresholds.
type GateConfig struct {
	// LargeFunctionThreshold is the statement count above which a function
	// is flagged as a modularization candidate.
	LargeFunctionThreshold int `mapstructure:"large_function_threshold" yaml:"large_function_threshold"`
	// MinConstructLength is the text length above which input with no
	// recognizable top-level construct is rejected as not-Python.
	MinConstructLength int `mapstructure:"min_construct_length" yaml:"min_construct_length"`
}

// BackendConfig describes one generative backend the aggregator fans out to.
type BackendConfig struct {
	ID          string        `mapstructure:"id" yaml:"id"`
	DisplayName string        `mapstructure:"display_name" yaml:"display_name"`
	Provider    string        `mapstructure:"provider" yaml:"provider"` // "openai" (or compatible) | "gemini"
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"` // custom base URL for OpenAI-compatible providers
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// OptimizerConfig holds the fixed scoring configuration and the backend
// list. These values are read-only once loaded; they are the only state
// shared across concurrent requests.
type OptimizerConfig struct {
	WeightConfidence float64 `mapstructure:"weight_confidence" yaml:"weight_confidence"`
	WeightSimilarity float64 `mapstructure:"weight_similarity" yaml:"weight_similarity"`
	WeightRisk       float64 `mapstructure:"weight_risk" yaml:"weight_risk"`
	// SimilarityTarget is the ideal ratio to the original: meaningfully
	// changed, not rewritten.
	SimilarityTarget float64 `mapstructure:"similarity_target" yaml:"similarity_target"`

	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	Backends []BackendConfig `mapstructure:"backends" yaml:"backends"`
}

// SetDefaults registers the default configuration values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "refine-cli")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("gate.large_function_threshold", 15)
	v.SetDefault("gate.min_construct_length", 30)

	v.SetDefault("optimizer.weight_confidence", 0.45)
	v.SetDefault("optimizer.weight_similarity", 0.35)
	v.SetDefault("optimizer.weight_risk", 0.20)
	v.SetDefault("optimizer.similarity_target", 0.72)
	v.SetDefault("optimizer.temperature", 0.15)
	v.SetDefault("optimizer.max_tokens", 4096)
	v.SetDefault("optimizer.backends", []map[string]any{})
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from the optional file path, environment
// variables (prefix REFINE), and defaults, in ascending precedence.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("REFINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars apply.
	}

	return NewConfigFromViper(v)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Gate.LargeFunctionThreshold <= 0 {
		return fmt.Errorf("gate.large_function_threshold must be positive, got %d", c.Gate.LargeFunctionThreshold)
	}
	if c.Gate.MinConstructLength < 0 {
		return fmt.Errorf("gate.min_construct_length must not be negative, got %d", c.Gate.MinConstructLength)
	}
	o := c.Optimizer
	for _, w := range []float64{o.WeightConfidence, o.WeightSimilarity, o.WeightRisk} {
		if w < 0 || w > 1 {
			return fmt.Errorf("optimizer weights must lie in [0,1], got %v", w)
		}
	}
	if o.SimilarityTarget < 0 || o.SimilarityTarget > 1 {
		return fmt.Errorf("optimizer.similarity_target must lie in [0,1], got %v", o.SimilarityTarget)
	}
	seen := make(map[string]struct{}, len(o.Backends))
	for _, b := range o.Backends {
		if b.ID == "" {
			return fmt.Errorf("optimizer backend with empty id")
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate optimizer backend id: %s", b.ID)
		}
		seen[b.ID] = struct{}{}
		switch b.Provider {
		case "openai", "gemini":
		default:
			return fmt.Errorf("backend %s: unsupported provider %q", b.ID, b.Provider)
		}
	}
	return nil
}
