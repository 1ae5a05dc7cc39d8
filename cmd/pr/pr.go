// Package pr implements the pr command for printing one PR with its review comments.
package pr

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/miner"
	"github.com/spf13/cobra"
)

// PRCommand encapsulates the pr command with common functionality
type PRCommand struct {
	commands.BaseCommand
	Format string
}

// NewPRCmd creates and returns the pr command
func NewPRCmd(globals *commands.GlobalOptions, loadSettings commands.SettingsLoader) *cobra.Command {
	prCmd := &PRCommand{}
	prCmd.Globals = globals
	prCmd.LoadSettings = loadSettings

	builder := &commands.CommandBuilder{
		Use:   "pr <pr-url>",
		Short: "Show a PR with its changed files and review comments",
		Long: `Fetch a single pull request with its metadata, changed files and inline
review comments, including the diff hunk each comment is attached to.

Requires GITHUB_TOKEN environment variable to be set.`,
		MinArgs: 1,
		MaxArgs: 1,
		ExampleUsage: []string{
			"review-miner pr https://github.com/acme/widgets/pull/123",
			"review-miner pr acme/widgets/pull/123 --format json",
		},
	}
	command := builder.BuildCommand(func(cobraCmd *cobra.Command, args []string) error {
		return prCmd.Run(cobraCmd.Context(), args[0], os.Stdout)
	})

	command.Flags().StringVar(&prCmd.Format, "format", commands.FormatText, "Output format (text, json)")

	return command
}

// Run executes the pr command
func (pc *PRCommand) Run(ctx context.Context, prURL string, out io.Writer) error {
	ref, err := commands.ParsePRURL(prURL)
	if err != nil {
		return err
	}
	if err := commands.ValidateFormat(pc.Format); err != nil {
		return err
	}

	if err := pc.Init(ctx); err != nil {
		return err
	}

	extractor := miner.NewExtractor(pc.GitHubClient, pc.Settings.Pipeline.MaxCommentsPerPR, true)
	pr, err := extractor.ExtractContext(ctx, ref.Owner, ref.Repo, ref.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch PR context: %w", err)
	}

	if pc.Format == commands.FormatJSON {
		return commands.WriteJSON(out, pr)
	}

	fmt.Fprint(out, commands.FormatPRContext(pr))
	return nil
}
