package classifier

import (
	"fmt"
	"strings"

	"github.com/alan/review-miner/cmd"
)

const instructions = `Analyze the following comments from GitHub pull request reviews.
Determine for each comment if it is:
1. 'code_standards' - specific feedback about code quality, patterns, conventions, best practices, naming conventions, code organization, safe coding practices, formatting issues, stylistic guidelines, code structure suggestions, or any comments about improving code implementation
2. 'discussions' - questions, clarifications, architectural decisions, design discussions, or comments seeking information
3. 'general' - other types of comments not fitting the above categories

Each response must have exactly two parts:
1. Classification: only 'code_standards', 'discussions', or 'general'
2. Inference: ONLY if the classification is 'code_standards', on a new line add an inference about the underlying coding standard or best practice in 1-2 concise sentences. Extract the core principle, explain why it matters, and make it reusable for similar situations.

For example:
code_standards
Functions that don't depend on instance variables should be defined in the companion object to improve code organization and reduce unnecessary instantiation.

Or if not a code standard:
discussions`

// BuildPrompt renders the batch classification prompt for the given comments
func BuildPrompt(comments []cmd.ReviewComment) string {
	n := len(comments)

	var b strings.Builder
	b.WriteString(instructions)
	fmt.Fprintf(&b, "\n\nI have %d comments to classify. Please provide exactly %d responses.\n\n", n, n)
	b.WriteString("For each comment, provide the classification on one line. If it's a code_standards comment, add the inference on the next line.\n")
	b.WriteString("Then leave a blank line before the next comment's classification.\n\n")
	b.WriteString("Comments to classify:\n")
	b.WriteString(FormatComments(comments))
	fmt.Fprintf(&b, "\nPlease provide exactly %d responses with the format described above:\n", n)
	return b.String()
}

// FormatComments renders one block per comment, joined by newlines
func FormatComments(comments []cmd.ReviewComment) string {
	blocks := make([]string, 0, len(comments))
	for _, c := range comments {
		var b strings.Builder
		fmt.Fprintf(&b, "File: %s\nComment: %s\n", c.Path, c.Body)
		if c.DiffHunk != "" {
			fmt.Fprintf(&b, "Code Block:\n%s\n", c.DiffHunk)
		}
		b.WriteString("---\n")
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
