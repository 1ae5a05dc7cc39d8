// Package commands holds the wiring shared by the review-miner subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alan/review-miner/internal/classifier"
	"github.com/alan/review-miner/internal/config"
	"github.com/alan/review-miner/internal/cost"
	"github.com/alan/review-miner/internal/github"
	"github.com/alan/review-miner/internal/guidelines"
	"github.com/alan/review-miner/internal/llm"
	"github.com/alan/review-miner/internal/miner"
)

// GlobalOptions are the persistent root flags
type GlobalOptions struct {
	ConfigFile string
	Token      string
	Quiet      bool
}

// SettingsLoader loads settings from a config file path
type SettingsLoader func(string) (*config.Settings, error)

// TransportFactory builds the LLM transport from settings
type TransportFactory func(context.Context, config.LLMSettings) (llm.Transport, error)

// DefaultTransport builds the Anthropic transport, over Bedrock or the direct API
func DefaultTransport(ctx context.Context, s config.LLMSettings) (llm.Transport, error) {
	return llm.NewAnthropicTransport(ctx, s)
}

// BaseCommand provides common fields and initialization for all commands
type BaseCommand struct {
	Globals      *GlobalOptions
	LoadSettings SettingsLoader
	NewTransport TransportFactory
	Settings     *config.Settings
	GitHubClient *github.Client
}

// LoadConfig loads and validates settings without touching the network
func (bc *BaseCommand) LoadConfig() error {
	settings, err := bc.LoadSettings(bc.Globals.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	bc.Settings = settings
	return nil
}

// Init loads settings and creates the GitHub client
func (bc *BaseCommand) Init(ctx context.Context) error {
	if err := bc.LoadConfig(); err != nil {
		return err
	}

	token, err := getGitHubToken(bc.Globals.Token, bc.Settings.GitHub.Token)
	if err != nil {
		return err
	}

	bc.GitHubClient = github.NewClient(ctx, token,
		github.WithRateLimit(bc.Settings.GitHub.RequestsPerSecond, bc.Settings.GitHub.Burst),
		github.WithTimeout(bc.Settings.GitHub.Timeout),
	)
	return nil
}

// getGitHubToken prefers the --token flag over GITHUB_TOKEN
func getGitHubToken(flagToken, configured string) (string, error) {
	if flagToken != "" {
		return flagToken, nil
	}
	if configured != "" {
		return configured, nil
	}
	return "", fmt.Errorf("GITHUB_TOKEN environment variable is required")
}

// NewGateway builds the LLM gateway and its cost ledger from settings
func (bc *BaseCommand) NewGateway(ctx context.Context) (*llm.Gateway, *cost.Ledger, error) {
	factory := bc.NewTransport
	if factory == nil {
		factory = DefaultTransport
	}

	s := bc.Settings.LLM
	transport, err := factory(ctx, s)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	ledger := cost.NewLedger(s.Model)
	gateway := llm.NewGateway(transport, s.Model, ledger,
		llm.WithRetryPolicy(llm.RetryPolicy{
			MaxAttempts:  s.MaxRetries,
			InitialDelay: s.InitialRetryDelay,
			MaxDelay:     s.MaxRetryDelay,
		}),
		llm.WithTemperature(s.Temperature),
		llm.WithMaxTokensPerCall(s.MaxTokensPerCall),
	)
	return gateway, ledger, nil
}

// NewPipeline wires the mining pipeline with the GitHub client and LLM gateway
func (bc *BaseCommand) NewPipeline(ctx context.Context, checkpointDir string) (*miner.Pipeline, error) {
	gateway, ledger, err := bc.NewGateway(ctx)
	if err != nil {
		return nil, err
	}

	p := bc.Settings.Pipeline
	slog.Debug("LLM gateway ready", "provider", bc.Settings.LLM.Provider, "model", gateway.Model(), "workers", p.Workers)
	return miner.New(miner.Config{
		Host:             bc.GitHubClient,
		Classifier:       classifier.New(gateway),
		Synthesizer:      guidelines.New(gateway),
		Ledger:           ledger,
		CheckpointDir:    checkpointDir,
		Workers:          p.Workers,
		MaxCandidates:    p.MaxCandidates,
		EarlyStopFactor:  p.EarlyStopFactor,
		MaxCommentsPerPR: p.MaxCommentsPerPR,
		Progress:         bc.Progress(),
	}), nil
}

// Progress returns where progress lines go, honoring --quiet
func (bc *BaseCommand) Progress() io.Writer {
	if bc.Globals.Quiet {
		return io.Discard
	}
	return os.Stdout
}
