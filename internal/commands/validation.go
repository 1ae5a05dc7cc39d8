package commands

import "fmt"

// Output formats accepted by --format
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidateFormat checks the --format flag
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format %q (valid values: %s, %s)", format, FormatText, FormatJSON)
	}
}

// ValidateK checks the -k flag
func ValidateK(k int) error {
	if k < 1 {
		return fmt.Errorf("-k must be at least 1, got %d", k)
	}
	return nil
}
