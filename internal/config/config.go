// Package config provides layered loading of review-miner settings from defaults, a YAML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported LLM providers
const (
	ProviderBedrock   = "bedrock"
	ProviderAnthropic = "anthropic"
)

// Settings is the effective configuration of a run
type Settings struct {
	LLM      LLMSettings      `mapstructure:"llm" yaml:"llm"`
	GitHub   GitHubSettings   `mapstructure:"github" yaml:"github"`
	Pipeline PipelineSettings `mapstructure:"pipeline" yaml:"pipeline"`
}

// LLMSettings configures the model gateway
type LLMSettings struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	Region            string        `mapstructure:"region" yaml:"region"`
	Profile           string        `mapstructure:"profile" yaml:"profile,omitempty"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Temperature       float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokensPerCall  int64         `mapstructure:"max_tokens_per_call" yaml:"max_tokens_per_call"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	InitialRetryDelay time.Duration `mapstructure:"initial_retry_delay" yaml:"initial_retry_delay"`
	MaxRetryDelay     time.Duration `mapstructure:"max_retry_delay" yaml:"max_retry_delay"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
}

// GitHubSettings configures the code host client
type GitHubSettings struct {
	Token             string        `mapstructure:"token" yaml:"token,omitempty"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PipelineSettings configures PR selection and analysis
type PipelineSettings struct {
	Workers          int `mapstructure:"workers" yaml:"workers"`
	MaxCommentsPerPR int `mapstructure:"max_comments_per_pr" yaml:"max_comments_per_pr"`
	MaxCandidates    int `mapstructure:"max_candidates" yaml:"max_candidates"`
	EarlyStopFactor  int `mapstructure:"early_stop_factor" yaml:"early_stop_factor"`
}

var defaults = map[string]any{
	"llm.provider":            ProviderBedrock,
	"llm.model":               "us.anthropic.claude-3-5-sonnet-20241022-v2:0",
	"llm.region":              "us-east-1",
	"llm.profile":             "",
	"llm.api_key":             "",
	"llm.temperature":         0.1,
	"llm.max_tokens_per_call": 40000,
	"llm.max_retries":         3,
	"llm.initial_retry_delay": time.Second,
	"llm.max_retry_delay":     60 * time.Second,
	"llm.connect_timeout":     30 * time.Second,
	"llm.read_timeout":        300 * time.Second,

	"github.token":               "",
	"github.requests_per_second": 10.0,
	"github.burst":               5,
	"github.timeout":             300 * time.Second,

	"pipeline.workers":             8,
	"pipeline.max_comments_per_pr": 100,
	"pipeline.max_candidates":      300,
	"pipeline.early_stop_factor":   2,
}

var envBindings = map[string]string{
	"llm.provider":            "LLM_PROVIDER",
	"llm.model":               "BEDROCK_MODEL_ID",
	"llm.region":              "AWS_REGION",
	"llm.profile":             "AWS_PROFILE",
	"llm.api_key":             "ANTHROPIC_API_KEY",
	"llm.temperature":         "BEDROCK_TEMPERATURE",
	"llm.max_tokens_per_call": "MAX_TOKENS_PER_CALL",
	"github.token":            "GITHUB_TOKEN",
	"pipeline.workers":        "REVIEW_MINER_WORKERS",
}

// Load builds the settings. A missing config file or .env file is not an error.
func Load(configFile string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate reports every invalid setting at once
func (s *Settings) Validate() error {
	var errs []error

	switch s.LLM.Provider {
	case ProviderBedrock:
		if s.LLM.Region == "" {
			errs = append(errs, errors.New("llm.region is required for the bedrock provider"))
		}
	case ProviderAnthropic:
		if s.LLM.APIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is invalid (valid values: %s, %s)", s.LLM.Provider, ProviderBedrock, ProviderAnthropic))
	}

	if s.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 1 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 1, got %v", s.LLM.Temperature))
	}
	if s.LLM.MaxTokensPerCall < 1 {
		errs = append(errs, errors.New("llm.max_tokens_per_call must be positive"))
	}
	if s.LLM.MaxRetries < 1 {
		errs = append(errs, errors.New("llm.max_retries must be at least 1"))
	}
	if s.GitHub.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("github.requests_per_second must be positive"))
	}
	if s.Pipeline.Workers < 1 {
		errs = append(errs, errors.New("pipeline.workers must be at least 1"))
	}
	if s.Pipeline.MaxCommentsPerPR < 1 {
		errs = append(errs, errors.New("pipeline.max_comments_per_pr must be at least 1"))
	}
	if s.Pipeline.MaxCandidates < 1 {
		errs = append(errs, errors.New("pipeline.max_candidates must be at least 1"))
	}
	if s.Pipeline.EarlyStopFactor < 0 {
		errs = append(errs, errors.New("pipeline.early_stop_factor must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Redacted returns a copy safe for display
func (s Settings) Redacted() Settings {
	if s.LLM.APIKey != "" {
		s.LLM.APIKey = "<redacted>"
	}
	if s.GitHub.Token != "" {
		s.GitHub.Token = "<redacted>"
	}
	return s
}
