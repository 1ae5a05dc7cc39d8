// Package classify implements the classify command for writing a per-PR review comment analysis.
package classify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/miner"
	"github.com/spf13/cobra"
)

const (
	defaultOutput        = "pr_analysis.txt"
	defaultCheckpointDir = ".checkpoints"
)

// ClassifyCommand encapsulates the classify command with common functionality
type ClassifyCommand struct {
	commands.BaseCommand
	K             int
	Output        string
	Resume        bool
	CheckpointDir string
}

// NewClassifyCmd creates and returns the classify command
func NewClassifyCmd(globals *commands.GlobalOptions, loadSettings commands.SettingsLoader) *cobra.Command {
	classifyCmd := &ClassifyCommand{}
	classifyCmd.Globals = globals
	classifyCmd.LoadSettings = loadSettings

	builder := &commands.CommandBuilder{
		Use:   "classify <repo-url>",
		Short: "Classify PR review comments into a text report",
		Long: `Select the top k most commented merged PRs, classify every review comment
as code_standards, discussions or general and write a per-PR report.

Requires GITHUB_TOKEN environment variable and LLM credentials to be set.`,
		MinArgs: 1,
		MaxArgs: 1,
		ExampleUsage: []string{
			"review-miner classify https://github.com/acme/widgets -k 10",
			"review-miner classify acme/widgets --output widgets_analysis.txt --resume",
		},
	}
	command := builder.BuildCommand(func(cobraCmd *cobra.Command, args []string) error {
		return classifyCmd.Run(cobraCmd.Context(), args[0], os.Stdout)
	})

	command.Flags().IntVarP(&classifyCmd.K, "top-k", "k", 5, "Number of top PRs to analyze")
	command.Flags().StringVarP(&classifyCmd.Output, "output", "o", defaultOutput, "Report file")
	command.Flags().BoolVar(&classifyCmd.Resume, "resume", false, "Resume from the last checkpoint")
	command.Flags().StringVar(&classifyCmd.CheckpointDir, "checkpoint-dir", defaultCheckpointDir, "Directory for checkpoint files")

	return command
}

// Run executes the classify command
func (cc *ClassifyCommand) Run(ctx context.Context, repoURL string, out io.Writer) error {
	ref, err := commands.ParseRepoURL(repoURL)
	if err != nil {
		return err
	}
	if err := commands.ValidateK(cc.K); err != nil {
		return err
	}
	if cc.Output == "" {
		return fmt.Errorf("--output must not be empty")
	}

	if err := cc.Init(ctx); err != nil {
		return err
	}

	pipeline, err := cc.NewPipeline(ctx, cc.CheckpointDir)
	if err != nil {
		return err
	}

	result, err := pipeline.Classify(ctx, miner.Options{
		Owner:  ref.Owner,
		Repo:   ref.Repo,
		K:      cc.K,
		Output: cc.Output,
		Resume: cc.Resume,
	})
	if err != nil {
		return fmt.Errorf("failed to classify comments (rerun with --resume to continue): %w", err)
	}

	commands.PrintSuccess(out, "Analysis written to %s", result.Output)
	if !cc.Globals.Quiet {
		commands.RenderRunReport(out, result)
	}
	return nil
}
