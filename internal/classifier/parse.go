package classifier

import (
	"strings"

	"github.com/alan/review-miner/cmd"
)

// Parse reads a batch response into exactly n classifications.
// Missing responses become general and extra ones are dropped.
func Parse(text string, n int) []cmd.Classification {
	if n <= 0 {
		return []cmd.Classification{}
	}

	results := make([]cmd.Classification, 0, n)
	for _, block := range strings.Split(strings.TrimSpace(text), "\n\n") {
		if len(results) == n {
			break
		}
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		results = append(results, parseBlock(block))
	}

	for len(results) < n {
		results = append(results, cmd.Classification{Category: cmd.CategoryGeneral})
	}
	return results
}

func parseBlock(block string) cmd.Classification {
	lines := strings.Split(block, "\n")
	first := strings.ToLower(strings.TrimSpace(lines[0]))

	switch {
	case strings.Contains(first, string(cmd.CategoryCodeStandards)):
		c := cmd.Classification{Category: cmd.CategoryCodeStandards}
		if len(lines) > 1 {
			c.InferredStandard = strings.TrimSpace(lines[1])
		}
		return c
	case strings.Contains(first, string(cmd.CategoryDiscussions)):
		return cmd.Classification{Category: cmd.CategoryDiscussions}
	default:
		return cmd.Classification{Category: cmd.CategoryGeneral}
	}
}

// Fallback returns n general classifications
func Fallback(n int) []cmd.Classification {
	if n < 0 {
		n = 0
	}
	results := make([]cmd.Classification, n)
	for i := range results {
		results[i].Category = cmd.CategoryGeneral
	}
	return results
}
