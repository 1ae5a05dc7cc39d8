package classify

import (
	"bytes"
	"context"
	"testing"

	"github.com/alan/review-miner/internal/commands"
	"github.com/alan/review-miner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClassifyCmd(t *testing.T) {
	classifyCmd := NewClassifyCmd(&commands.GlobalOptions{}, config.Load)

	assert.Equal(t, "classify <repo-url>", classifyCmd.Use)

	output := classifyCmd.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "pr_analysis.txt", output.DefValue)

	k := classifyCmd.Flags().ShorthandLookup("k")
	require.NotNil(t, k)
	assert.Equal(t, "5", k.DefValue)

	assert.NotNil(t, classifyCmd.Flags().Lookup("resume"))
	assert.NotNil(t, classifyCmd.Flags().Lookup("checkpoint-dir"))
}

func TestClassifyCommand_Run_Errors(t *testing.T) {
	noToken := func(string) (*config.Settings, error) {
		s := &config.Settings{}
		s.GitHub.RequestsPerSecond = 10
		return s, nil
	}

	tests := []struct {
		name    string
		repoURL string
		k       int
		output  string
		wantErr string
	}{
		{name: "invalid repo", repoURL: "", k: 5, output: defaultOutput, wantErr: "invalid repository URL"},
		{name: "k too small", repoURL: "acme/widgets", k: 0, output: defaultOutput, wantErr: "-k must be at least 1"},
		{name: "empty output", repoURL: "acme/widgets", k: 5, output: "", wantErr: "--output must not be empty"},
		{name: "missing token", repoURL: "acme/widgets", k: 5, output: defaultOutput, wantErr: "GITHUB_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := &ClassifyCommand{K: tt.k, Output: tt.output, CheckpointDir: t.TempDir()}
			cc.Globals = &commands.GlobalOptions{}
			cc.LoadSettings = noToken

			err := cc.Run(context.Background(), tt.repoURL, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
