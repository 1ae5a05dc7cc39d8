package guidelines

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alan/review-miner/cmd"
)

const (
	groupThreshold  = 30
	commentsPerFile = 5

	compactThreshold = 20000
	compactHead      = 10000
	compactTail      = 5000
	truncationMarker = "\n\n...\n[Content truncated for efficiency]\n\n"
	tocHeading       = "## Table of Contents"
)

const generationPrompt = `Create concise yet comprehensive coding guidelines from these PR comments with this structure:

# [Repository Name] Coding Guidelines
## Table of Contents
1. [Code Standards](#code-standards)
2. [Asynchronous Programming](#asynchronous-programming)
3. [Error Handling](#error-handling)
4. [Naming Conventions](#naming-conventions)
5. [Performance Considerations](#performance-considerations)
6. [Code Organization](#code-organization)

## Code Standards
### Formatting and Style
- Use bullet points for each guideline
- Format code examples with backticks like ` + "`example_code`" + `

### Best Practices
- Use bullet points with specific, actionable advice
- Refer to specific methods, classes or patterns when relevant

## Asynchronous Programming
- Use bullet points with concrete examples
- Reference specific libraries and functions (e.g., ` + "`Future`, `AsyncStream`" + `)

## Error Handling
- Use bullet points focused on specific patterns
- Include common error handling methods like ` + "`Option`" + `, pattern matching

## Naming Conventions
- Use bullet points with clear examples
- Reference actual naming patterns used in the codebase

## Performance Considerations
- Use bullet points with performance impact specified
- Include specific performance optimization techniques

## Code Organization
- Use bullet points with concrete structural advice
- Include principles like Single Responsibility, dependency injection

### High-Priority Issues
- List exactly 5 most important guidelines
- Focus on critical issues with specific examples

Make each point concise and focused on one concept.
Eliminate redundancy between guidelines.
Reference specific code patterns and examples from the codebase.
Preserve important technical references for development context.

Comments:
%s
`

const updatePrompt = `Existing guidelines document:

%s

New PR comments to integrate:

%s

Update the guidelines efficiently:
1. Maintain the exact structure and formatting (title, TOC, sections)
2. Only add new guidelines not already covered
3. Keep the same table of contents format with numbered links
4. Focus on extracting unique insights from new comments
5. Make each point concise and focused on one specific concept
6. Make guidelines specific and actionable, not general
7. Eliminate redundancy between guidelines
8. Reference specific code patterns and examples from the codebase
9. Preserve important technical references and methods
10. Ensure the High-Priority Issues section contains exactly 5 most important items

Output only the updated guidelines document, no explanations.
`

var nextHeading = regexp.MustCompile(`##\s+\w+`)

// BuildPrompt picks the generation prompt for a blank document and the update prompt otherwise
func BuildPrompt(comments []cmd.CommentDatum, existing string) string {
	text := FormatComments(comments)
	if strings.TrimSpace(existing) == "" {
		return fmt.Sprintf(generationPrompt, text)
	}
	return fmt.Sprintf(updatePrompt, CompactExisting(existing), text)
}

// FormatComments renders classified comments for the synthesis prompt.
// Large sets are grouped by file and reduced to the comments with the longest inferred standards.
func FormatComments(comments []cmd.CommentDatum) string {
	var b strings.Builder

	if len(comments) <= groupThreshold {
		for _, c := range comments {
			fmt.Fprintf(&b, "File: %s\nComment: %s\nClassification: %s\n", c.File, c.Comment, c.Category)
			if c.InferredStandard != "" {
				fmt.Fprintf(&b, "Inferred: %s\n", c.InferredStandard)
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	var files []string
	byFile := make(map[string][]cmd.CommentDatum)
	for _, c := range comments {
		if _, ok := byFile[c.File]; !ok {
			files = append(files, c.File)
		}
		byFile[c.File] = append(byFile[c.File], c)
	}

	for _, file := range files {
		selected := byFile[file]
		sort.SliceStable(selected, func(i, j int) bool {
			return len(selected[i].InferredStandard) > len(selected[j].InferredStandard)
		})
		if len(selected) > commentsPerFile {
			selected = selected[:commentsPerFile]
		}

		fmt.Fprintf(&b, "File: %s\n", file)
		for i, c := range selected {
			fmt.Fprintf(&b, "Comment %d: %s\n", i+1, c.Comment)
			if c.InferredStandard != "" {
				fmt.Fprintf(&b, "Inferred Standard: %s\n", c.InferredStandard)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CompactExisting shortens a large guidelines document to its table of contents, head and tail
func CompactExisting(existing string) string {
	runes := []rune(existing)
	if len(runes) <= compactThreshold {
		return existing
	}

	head := string(runes[:compactHead])
	tail := string(runes[len(runes)-compactTail:])
	return tableOfContents(existing) + "\n\n" + head + truncationMarker + tail
}

// tableOfContents returns the text from the TOC heading up to the next section heading
func tableOfContents(text string) string {
	start := strings.Index(text, tocHeading)
	if start < 0 {
		return ""
	}

	rest := text[start+len(tocHeading):]
	if loc := nextHeading.FindStringIndex(rest); loc != nil {
		return text[start : start+len(tocHeading)+loc[0]]
	}
	return strings.TrimSuffix(text[start:], "\n")
}
