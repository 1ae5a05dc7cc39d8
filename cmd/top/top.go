// Package top implements the top command for listing the most commented merged PRs.
package top

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/miner"
	"github.com/spf13/cobra"
)

// TopCommand encapsulates the top command with common functionality
type TopCommand struct {
	commands.BaseCommand
	K      int
	Format string
}

// NewTopCmd creates and returns the top command
func NewTopCmd(globals *commands.GlobalOptions, loadSettings commands.SettingsLoader) *cobra.Command {
	topCmd := &TopCommand{}
	topCmd.Globals = globals
	topCmd.LoadSettings = loadSettings

	builder := &commands.CommandBuilder{
		Use:   "top <repo-url>",
		Short: "List the most commented merged PRs of a repository",
		Long: `Search the repository's merged PRs, rank them by issue plus review comment
count and print the top k.

Requires GITHUB_TOKEN environment variable to be set.`,
		MinArgs: 1,
		MaxArgs: 1,
		ExampleUsage: []string{
			"review-miner top https://github.com/acme/widgets -k 10",
			"review-miner top acme/widgets --format json",
		},
	}
	command := builder.BuildCommand(func(cobraCmd *cobra.Command, args []string) error {
		return topCmd.Run(cobraCmd.Context(), args[0], os.Stdout)
	})

	command.Flags().IntVarP(&topCmd.K, "top-k", "k", 5, "Number of top PRs to fetch")
	command.Flags().StringVar(&topCmd.Format, "format", commands.FormatText, "Output format (text, json)")

	return command
}

// Run executes the top command
func (tc *TopCommand) Run(ctx context.Context, repoURL string, out io.Writer) error {
	ref, err := commands.ParseRepoURL(repoURL)
	if err != nil {
		return err
	}
	if err := commands.ValidateK(tc.K); err != nil {
		return err
	}
	if err := commands.ValidateFormat(tc.Format); err != nil {
		return err
	}

	if err := tc.Init(ctx); err != nil {
		return err
	}

	if !tc.Globals.Quiet && tc.Format == commands.FormatText {
		fmt.Fprintf(out, "Fetching top %d PRs from %s...\n", tc.K, ref)
	}

	p := tc.Settings.Pipeline
	selector := miner.NewSelector(tc.GitHubClient, p.MaxCandidates, p.EarlyStopFactor)
	prs, err := selector.SelectTopK(ctx, ref.Owner, ref.Repo, tc.K)
	if err != nil {
		return fmt.Errorf("failed to fetch top PRs: %w", err)
	}

	if tc.Format == commands.FormatJSON {
		return commands.WriteJSON(out, prs)
	}

	commands.RenderTopPRs(out, ref, prs)
	commands.RenderTopPRDetails(out, prs)
	return nil
}
