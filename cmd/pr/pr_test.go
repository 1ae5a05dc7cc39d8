package pr

import (
	"bytes"
	"context"
	"testing"

	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noTokenSettings(string) (*config.Settings, error) {
	s := &config.Settings{}
	s.GitHub.RequestsPerSecond = 10
	s.GitHub.Burst = 5
	return s, nil
}

func TestNewPRCmd(t *testing.T) {
	prCmd := NewPRCmd(&commands.GlobalOptions{}, noTokenSettings)

	assert.Equal(t, "pr <pr-url>", prCmd.Use)
	assert.True(t, prCmd.SilenceUsage)
	assert.NotNil(t, prCmd.Flags().Lookup("format"))
	assert.Error(t, prCmd.Args(prCmd, []string{}))
}

func TestPRCommand_Run_Validation(t *testing.T) {
	tests := []struct {
		name    string
		prURL   string
		format  string
		wantErr string
	}{
		{name: "repo url without pull", prURL: "https://github.com/acme/widgets", format: commands.FormatText, wantErr: "invalid PR URL"},
		{name: "zero PR number", prURL: "acme/widgets/pull/0", format: commands.FormatText, wantErr: "invalid PR number"},
		{name: "bad format", prURL: "acme/widgets/pull/42", format: "xml", wantErr: `invalid format "xml"`},
		{name: "missing token", prURL: "https://github.com/acme/widgets/pull/42", format: commands.FormatText, wantErr: "GITHUB_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := &PRCommand{Format: tt.format}
			pc.Globals = &commands.GlobalOptions{}
			pc.LoadSettings = noTokenSettings

			err := pc.Run(context.Background(), tt.prURL, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
