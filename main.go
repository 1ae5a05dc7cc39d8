// package main is the entry point for the review-miner tool
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alan/review-miner/cmd/classify"
	configcmd "github.com/alan/review-miner/cmd/config"
	"github.com/alan/review-miner/cmd/generate"
	"github.com/alan/review-miner/cmd/pr"
	"github.com/alan/review-miner/cmd/status"
	"github.com/alan/review-miner/cmd/top"
	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/config"
	"github.com/alan/review-miner/internal/telemetry"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var globals commands.GlobalOptions
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:   "review-miner",
		Short: "Mine PR review comments into coding guidelines",
		Long: `review-miner is a CLI tool that finds the most discussed merged pull requests
of a GitHub repository, classifies their review comments with an LLM and turns
the recurring code standards into a guidelines document.`,
		Version:       version,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger(logLevel, logFormat)
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&globals.ConfigFile, "config", "c", "review-miner.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globals.Token, "token", "", "GitHub token (overrides GITHUB_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress progress output")

	rootCmd.AddCommand(top.NewTopCmd(&globals, config.Load))
	rootCmd.AddCommand(pr.NewPRCmd(&globals, config.Load))
	rootCmd.AddCommand(generate.NewGenerateCmd(&globals, config.Load))
	rootCmd.AddCommand(classify.NewClassifyCmd(&globals, config.Load))
	rootCmd.AddCommand(status.NewStatusCmd())
	rootCmd.AddCommand(configcmd.NewConfigCmd(&globals, config.Load))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := telemetry.Init(ctx, "review-miner", version); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	err := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	telemetry.Shutdown(shutdownCtx)
	cancel()
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}
