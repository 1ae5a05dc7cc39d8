// Package status implements the status command for inspecting a resumable mining checkpoint.
package status

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alan/review-miner/cmd"
	"github.com/alan/review-miner/internal/checkpoint"
	"github.com/alan/review-miner/internal/commands"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates and returns the status command
func NewStatusCmd() *cobra.Command {
	var checkpointDir string
	var kind string

	builder := &commands.CommandBuilder{
		Use:   "status <repo-url>",
		Short: "Show the progress recorded in a checkpoint",
		Long: `Display the checkpoint left behind by an interrupted or failed generate or
classify run: its stage, comment counts and which selected PRs are still pending.`,
		MinArgs: 1,
		MaxArgs: 1,
		ExampleUsage: []string{
			"review-miner status acme/widgets",
			"review-miner status acme/widgets --kind analysis",
		},
	}
	statusCmd := builder.BuildCommand(func(_ *cobra.Command, args []string) error {
		return runStatus(os.Stdout, args[0], checkpointDir, kind)
	})

	statusCmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", ".checkpoints", "Directory for checkpoint files")
	statusCmd.Flags().StringVar(&kind, "kind", checkpoint.KindGuidelines, "Checkpoint kind (llmtxt for generate, analysis for classify)")

	return statusCmd
}

func runStatus(out io.Writer, repoURL, checkpointDir, kind string) error {
	ref, err := commands.ParseRepoURL(repoURL)
	if err != nil {
		return err
	}
	if kind != checkpoint.KindGuidelines && kind != checkpoint.KindAnalysis {
		return fmt.Errorf("invalid kind %q (valid values: %s, %s)", kind, checkpoint.KindGuidelines, checkpoint.KindAnalysis)
	}

	store := checkpoint.NewStore(checkpointDir, kind)
	cp, err := store.Load(ref.Owner, ref.Repo)
	if errors.Is(err, checkpoint.ErrNotFound) {
		fmt.Fprintf(out, "No checkpoint for %s in %s.\n", ref, checkpointDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	displayHeader(out, store.Path(ref.Owner, ref.Repo), cp)
	displayPRTable(out, cp)
	displaySummary(out, cp)
	return nil
}

func stageLabel(stage cmd.Stage) string {
	if stage == cmd.StageNone {
		return "pr_analysis"
	}
	return string(stage)
}

func displayHeader(out io.Writer, path string, cp *cmd.Checkpoint) {
	fmt.Fprintf(out, "Checkpoint: %s\n", path)
	fmt.Fprintf(out, "Repository: %s/%s\n", cp.Owner, cp.Repo)
	if cp.RunID != "" {
		fmt.Fprintf(out, "Run: %s\n", cp.RunID)
	}
	fmt.Fprintf(out, "Schema: %s\n", cp.Version)
	fmt.Fprintf(out, "Stage: %s\n", stageLabel(cp.ProcessingStage))
	if !cp.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "Updated: %s\n", cp.UpdatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintln(out)
}

func displayPRTable(out io.Writer, cp *cmd.Checkpoint) {
	if len(cp.TopPRs) == 0 {
		fmt.Fprintln(out, "No PRs selected yet.")
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"PR", "Title", "Comments", "Status"})
	table.SetAutoWrapText(false)
	for _, pr := range cp.TopPRs {
		title := pr.Title
		if len([]rune(title)) > 60 {
			title = string([]rune(title)[:57]) + "..."
		}
		table.Append([]string{
			"#" + strconv.Itoa(pr.Number),
			title,
			strconv.Itoa(pr.CommentCount),
			formatPRStatus(cp.IsProcessed(pr.Number)),
		})
	}
	table.Render()
}

func formatPRStatus(processed bool) string {
	if processed {
		return color.GreenString("processed")
	}
	return color.YellowString("pending")
}

func displaySummary(out io.Writer, cp *cmd.Checkpoint) {
	pending := len(cp.Pending())
	fmt.Fprintf(out, "\nSummary: %d processed, %d pending of %d selected PRs\n",
		len(cp.TopPRs)-pending, pending, len(cp.TopPRs))
	fmt.Fprintf(out, "Comments: %d analyzed, %d code standards, %d retained\n",
		cp.TotalCommentsCount, cp.CodeStandardsCount, len(cp.AllComments))
	if cp.Guidelines != "" {
		fmt.Fprintf(out, "Synthesized guidelines pending write (%d bytes)\n", len(cp.Guidelines))
	}
	fmt.Fprintln(out, "\nRerun with --resume to continue.")
}
