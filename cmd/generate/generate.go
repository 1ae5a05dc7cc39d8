// Package generate implements the generate command for mining review comments into a guidelines document.
package generate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/miner"
	"github.com/spf13/cobra"
)

const defaultCheckpointDir = ".checkpoints"

// GenerateCommand encapsulates the generate command with common functionality
type GenerateCommand struct {
	commands.BaseCommand
	K             int
	Output        string
	Resume        bool
	CheckpointDir string
}

// NewGenerateCmd creates and returns the generate command
func NewGenerateCmd(globals *commands.GlobalOptions, loadSettings commands.SettingsLoader) *cobra.Command {
	generateCmd := &GenerateCommand{}
	generateCmd.Globals = globals
	generateCmd.LoadSettings = loadSettings

	builder := &commands.CommandBuilder{
		Use:   "generate <repo-url>",
		Short: "Generate coding guidelines from PR review comments",
		Long: `Select the top k most commented merged PRs, classify their review comments
with the LLM and merge the inferred code standards into a guidelines document.

Progress is checkpointed after every PR. An interrupted or failed run can be
continued with --resume.

Requires GITHUB_TOKEN environment variable and LLM credentials to be set.`,
		MinArgs: 1,
		MaxArgs: 1,
		ExampleUsage: []string{
			"review-miner generate https://github.com/acme/widgets -k 20",
			"review-miner generate acme/widgets --output CODING_GUIDELINES.md",
			"review-miner generate acme/widgets --resume",
		},
	}
	command := builder.BuildCommand(func(cobraCmd *cobra.Command, args []string) error {
		return generateCmd.Run(cobraCmd.Context(), args[0], os.Stdout)
	})

	command.Flags().IntVarP(&generateCmd.K, "top-k", "k", 5, "Number of top PRs to analyze")
	command.Flags().StringVarP(&generateCmd.Output, "output", "o", "", "Guidelines file (default: <repo>-pr-comments-llm.txt)")
	command.Flags().BoolVar(&generateCmd.Resume, "resume", false, "Resume from the last checkpoint")
	command.Flags().StringVar(&generateCmd.CheckpointDir, "checkpoint-dir", defaultCheckpointDir, "Directory for checkpoint files")

	return command
}

// Run executes the generate command
func (gc *GenerateCommand) Run(ctx context.Context, repoURL string, out io.Writer) error {
	ref, err := commands.ParseRepoURL(repoURL)
	if err != nil {
		return err
	}
	if err := commands.ValidateK(gc.K); err != nil {
		return err
	}
	output := gc.Output
	if output == "" {
		output = commands.DefaultGuidelinesOutput(ref.Repo)
	}

	if err := gc.Init(ctx); err != nil {
		return err
	}

	pipeline, err := gc.NewPipeline(ctx, gc.CheckpointDir)
	if err != nil {
		return err
	}

	result, err := pipeline.Generate(ctx, miner.Options{
		Owner:  ref.Owner,
		Repo:   ref.Repo,
		K:      gc.K,
		Output: output,
		Resume: gc.Resume,
	})
	if err != nil {
		return fmt.Errorf("failed to generate guidelines (rerun with --resume to continue): %w", err)
	}

	if result.Written {
		commands.PrintSuccess(out, "Guidelines written to %s", result.Output)
	} else {
		commands.PrintWarning(out, "Guidelines in %s are already up to date", result.Output)
	}
	if !gc.Globals.Quiet {
		commands.RenderRunReport(out, result)
	}
	return nil
}
