// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTags(t *testing.T) {
	in := []string{"b", "", "a", "b"}
	assert.Equal(t, []string{"a", "b"}, NormalizeTags(in))
	assert.Equal(t, []string{"b", "", "a", "b"}, in)
	assert.Empty(t, NormalizeTags(nil))
}

func TestPair(t *testing.T) {
	p := NewPair("notes.md", []string{"todo", "draft", "todo"})
	assert.Equal(t, []string{"draft", "todo"}, p.Tags)
	assert.True(t, p.HasTag("draft"))
	assert.False(t, p.HasTag("dra"))

	file, tags := p.FileTagPair()
	assert.Equal(t, "notes.md", file)
	assert.Equal(t, p.Tags, tags)
}

func TestParseSearchMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SearchMode
		wantErr bool
	}{
		{"", ModeAll, false},
		{"all", ModeAll, false},
		{"AND", ModeAll, false},
		{"any", ModeAny, false},
		{" or ", ModeAny, false},
		{"some", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSearchMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchParamsValidate(t *testing.T) {
	require.NoError(t, SearchParams{}.Validate())
	require.NoError(t, SearchParams{Query: "x"}.Validate())
	require.ErrorIs(t, SearchParams{Query: "x", VirtualTags: []string{"size:large"}}.Validate(), ErrConflictingCriteria)
	require.ErrorIs(t, SearchParams{Query: "x", Tags: []string{"a"}}.Validate(), ErrConflictingCriteria)
	require.ErrorIs(t, SearchParams{Query: "x", FilePatterns: []string{"*.go"}}.Validate(), ErrConflictingCriteria)
	require.ErrorIs(t, SearchParams{Query: "x", ExcludeTags: []string{"a"}}.Validate(), ErrConflictingCriteria)
}

func TestSearchParamsMerge(t *testing.T) {
	saved := SearchParams{
		Tags:        []string{"rust", "cli"},
		TagMode:     ModeAny,
		ExcludeTags: []string{"old"},
		RegexFile:   true,
	}
	got := saved.Merge(SearchParams{
		Tags:         []string{"cli", "async"},
		FilePatterns: []string{"src/*"},
		FileMode:     ModeAny,
		NoHierarchy:  true,
	})
	assert.Equal(t, SearchParams{
		Tags:         []string{"rust", "cli", "async"},
		TagMode:      ModeAny,
		FilePatterns: []string{"src/*"},
		FileMode:     ModeAny,
		ExcludeTags:  []string{"old"},
		RegexFile:    true,
		NoHierarchy:  true,
	}, got)

	// The receiver is not modified.
	assert.Equal(t, []string{"rust", "cli"}, saved.Tags)
	assert.Equal(t, saved, saved.Merge(SearchParams{}))
}
