package miner

import (
	"context"
	"errors"
	"testing"

	"github.com/alan/review-miner/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(prs []cmd.PullRequest) []int {
	out := make([]int, len(prs))
	for i, pr := range prs {
		out[i] = pr.Number
	}
	return out
}

func TestSelectTopK(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *fakeHost)
		k        int
		factor   int
		expected []int
		wantGets int
	}{
		{
			name: "ties broken by newer PR number",
			setup: func(h *fakeHost) {
				h.addPR(10, 40)
				h.addPR(11, 15)
				h.addPR(12, 15)
				h.addPR(13, 5)
			},
			k:        3,
			factor:   2,
			expected: []int{10, 12, 11},
			wantGets: 4,
		},
		{
			name: "stops early after factor times k confirmations",
			setup: func(h *fakeHost) {
				h.addPR(1, 3)
				h.addPR(2, 9)
				h.addPR(3, 50)
				h.addPR(4, 99)
			},
			k:        1,
			factor:   2,
			expected: []int{2},
			wantGets: 2,
		},
		{
			name: "factor zero confirms every candidate",
			setup: func(h *fakeHost) {
				h.addPR(1, 3)
				h.addPR(2, 9)
				h.addPR(3, 50)
			},
			k:        1,
			factor:   0,
			expected: []int{3},
			wantGets: 3,
		},
		{
			name: "failed candidates are skipped",
			setup: func(h *fakeHost) {
				h.addPR(1, 30)
				h.addPR(2, 20)
				h.addPR(3, 10)
				h.failGet[1] = true
			},
			k:        2,
			factor:   0,
			expected: []int{2, 3},
			wantGets: 3,
		},
		{
			name: "fewer candidates than k",
			setup: func(h *fakeHost) {
				h.addPR(7, 1)
			},
			k:        5,
			factor:   2,
			expected: []int{7},
			wantGets: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newFakeHost()
			tt.setup(host)

			prs, err := NewSelector(host, 300, tt.factor).SelectTopK(context.Background(), "acme", "widgets", tt.k)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, numbers(prs))
			assert.Len(t, host.gets, tt.wantGets)
		})
	}
}

func TestSelectTopK_RespectsMaxCandidates(t *testing.T) {
	host := newFakeHost()
	host.addPR(1, 1)
	host.addPR(2, 2)
	host.addPR(3, 3)

	prs, err := NewSelector(host, 2, 0).SelectTopK(context.Background(), "acme", "widgets", 5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, numbers(prs))
}

func TestSelectTopK_Errors(t *testing.T) {
	t.Run("no candidates", func(t *testing.T) {
		_, err := NewSelector(newFakeHost(), 300, 2).SelectTopK(context.Background(), "acme", "widgets", 3)
		assert.ErrorIs(t, err, ErrNoPRsFound)
	})

	t.Run("all candidates fail", func(t *testing.T) {
		host := newFakeHost()
		host.addPR(1, 1)
		host.failGet[1] = true

		_, err := NewSelector(host, 300, 2).SelectTopK(context.Background(), "acme", "widgets", 3)
		assert.ErrorIs(t, err, ErrNoPRsFound)
	})

	t.Run("search failure is wrapped", func(t *testing.T) {
		host := newFakeHost()
		host.searchErr = errors.New("rate limited")

		_, err := NewSelector(host, 300, 2).SelectTopK(context.Background(), "acme", "widgets", 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, host.searchErr)
		assert.Contains(t, err.Error(), "failed to search merged PRs")
	})

	t.Run("non-positive k", func(t *testing.T) {
		_, err := NewSelector(newFakeHost(), 300, 2).SelectTopK(context.Background(), "acme", "widgets", 0)
		assert.Error(t, err)
	})
}

func TestSortByComments(t *testing.T) {
	prs := []cmd.PullRequest{
		{Number: 1, CommentCount: 5},
		{Number: 3, CommentCount: 5},
		{Number: 2, CommentCount: 9},
	}
	SortByComments(prs)
	assert.Equal(t, []int{2, 3, 1}, numbers(prs))
}

func TestExtractContext(t *testing.T) {
	host := newFakeHost()
	host.addPR(42, 3, "std:Use early returns", "Why?", "nit")

	t.Run("caps review comments", func(t *testing.T) {
		pr, err := NewExtractor(host, 2, false).ExtractContext(context.Background(), "acme", "widgets", 42)
		require.NoError(t, err)

		assert.Equal(t, "PR 42", pr.Title)
		assert.Len(t, pr.ReviewComments, 2)
		assert.Empty(t, pr.Files)
	})

	t.Run("includes files when enabled", func(t *testing.T) {
		pr, err := NewExtractor(host, 100, true).ExtractContext(context.Background(), "acme", "widgets", 42)
		require.NoError(t, err)

		assert.Len(t, pr.ReviewComments, 3)
		require.Len(t, pr.Files, 1)
		assert.Equal(t, "main.go", pr.Files[0].Filename)
	})

	t.Run("metadata failure", func(t *testing.T) {
		_, err := NewExtractor(host, 100, false).ExtractContext(context.Background(), "acme", "widgets", 404)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to extract PR #404")
	})
}
