// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tagindex/internal/filters"
	"github.com/pdiddy/tagindex/internal/schema"
	"github.com/pdiddy/tagindex/pkg/types"
)

// parsedSearchCmd returns a fresh command carrying the search flags, parsed
// from args.
func parsedSearchCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "search"}
	addSearchFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestSearchParamsFromFlags(t *testing.T) {
	tests := []struct {
		name  string
		cfg   types.SearchConfig
		flags []string
		args  []string
		want  types.SearchParams
	}{
		{
			name:  "defaults",
			flags: []string{"-t", "rust", "-t", "cli"},
			want: types.SearchParams{
				Tags:        []string{"rust", "cli"},
				TagMode:     types.ModeAll,
				FileMode:    types.ModeAll,
				VirtualMode: types.ModeAll,
			},
		},
		{
			name:  "any modes and patterns",
			flags: []string{"-t", "a,b", "--any-tag", "-f", "*.rs", "--any-file", "-x", "old", "--regex-file"},
			want: types.SearchParams{
				Tags:         []string{"a", "b"},
				TagMode:      types.ModeAny,
				FilePatterns: []string{"*.rs"},
				FileMode:     types.ModeAny,
				ExcludeTags:  []string{"old"},
				RegexFile:    true,
				VirtualMode:  types.ModeAll,
			},
		},
		{
			name: "config defaults",
			cfg:  types.SearchConfig{TagMode: "any", NoHierarchy: true},
			args: []string{"notes"},
			want: types.SearchParams{
				Query:       "notes",
				TagMode:     types.ModeAny,
				FileMode:    types.ModeAll,
				VirtualMode: types.ModeAll,
				NoHierarchy: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := cfg
			t.Cleanup(func() { cfg = saved })
			cfg.Search = tt.cfg

			got, err := searchParamsFromFlags(parsedSearchCmd(t, tt.flags...), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchParamsWithFilter(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg.Search = types.SearchConfig{}
	cfg.Filters.Path = filepath.Join(t.TempDir(), "filters.yaml")

	_, err := filters.New(cfg.Filters.Path).Create("rust", "", types.SearchParams{
		Tags:        []string{"lang:rust"},
		TagMode:     types.ModeAny,
		ExcludeTags: []string{"tests"},
	})
	require.NoError(t, err)

	got, err := searchParamsFromFlags(parsedSearchCmd(t, "--filter", "rust", "-t", "cli", "--any-file", "-f", "*.rs"), nil)
	require.NoError(t, err)
	assert.Equal(t, types.SearchParams{
		Tags:         []string{"lang:rust", "cli"},
		TagMode:      types.ModeAny,
		FilePatterns: []string{"*.rs"},
		FileMode:     types.ModeAny,
		ExcludeTags:  []string{"tests"},
		VirtualMode:  types.ModeAll,
	}, got)

	_, err = searchParamsFromFlags(parsedSearchCmd(t, "--filter", "missing"), nil)
	require.ErrorIs(t, err, filters.ErrNotFound)
}

func TestSearchParamsBadTagMode(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })
	cfg.Search.TagMode = "some"

	_, err := searchParamsFromFlags(parsedSearchCmd(t), nil)
	require.Error(t, err)
}

func TestCanonicalizeAll(t *testing.T) {
	s := schema.New()
	require.NoError(t, s.AddAlias("js", "javascript"))
	assert.Equal(t, []string{"javascript", "lang:javascript", "go"},
		canonicalizeAll(s, []string{"js", "lang:js", "go"}))
}
