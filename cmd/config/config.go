// Package config implements the config command for printing the effective review-miner settings.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/config"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates and returns the config command
func NewConfigCmd(globals *commands.GlobalOptions, loadSettings commands.SettingsLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Config loads settings the same way every other command does (defaults, the
config file, .env and the environment) and prints the result with secrets redacted.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfig(os.Stdout, globals.ConfigFile, loadSettings)
		},
	}
}

func runConfig(out io.Writer, configFile string, loadSettings commands.SettingsLoader) error {
	settings, err := loadSettings(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintf(out, "Configuration file: %s\n\n", configFile)
	renderSettings(out, settings.Redacted())
	return nil
}

func renderSettings(out io.Writer, s config.Settings) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Setting", "Value"})
	table.SetAutoWrapText(false)

	rows := [][]string{
		{"llm.provider", s.LLM.Provider},
		{"llm.model", s.LLM.Model},
		{"llm.region", s.LLM.Region},
		{"llm.profile", valueOrUnset(s.LLM.Profile)},
		{"llm.api_key", valueOrUnset(s.LLM.APIKey)},
		{"llm.temperature", strconv.FormatFloat(s.LLM.Temperature, 'f', -1, 64)},
		{"llm.max_tokens_per_call", strconv.FormatInt(s.LLM.MaxTokensPerCall, 10)},
		{"llm.max_retries", strconv.Itoa(s.LLM.MaxRetries)},
		{"llm.initial_retry_delay", s.LLM.InitialRetryDelay.String()},
		{"llm.max_retry_delay", s.LLM.MaxRetryDelay.String()},
		{"llm.connect_timeout", s.LLM.ConnectTimeout.String()},
		{"llm.read_timeout", s.LLM.ReadTimeout.String()},
		{"github.token", valueOrUnset(s.GitHub.Token)},
		{"github.requests_per_second", strconv.FormatFloat(s.GitHub.RequestsPerSecond, 'f', -1, 64)},
		{"github.burst", strconv.Itoa(s.GitHub.Burst)},
		{"github.timeout", s.GitHub.Timeout.String()},
		{"pipeline.workers", strconv.Itoa(s.Pipeline.Workers)},
		{"pipeline.max_comments_per_pr", strconv.Itoa(s.Pipeline.MaxCommentsPerPR)},
		{"pipeline.max_candidates", strconv.Itoa(s.Pipeline.MaxCandidates)},
		{"pipeline.early_stop_factor", strconv.Itoa(s.Pipeline.EarlyStopFactor)},
	}
	table.AppendBulk(rows)
	table.Render()
}

func valueOrUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
