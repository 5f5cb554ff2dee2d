// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAlias(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("js", "javascript"))

	assert.Equal(t, "javascript", s.Canonicalize("js"))
	assert.Equal(t, "javascript", s.Canonicalize("javascript"))
	assert.Equal(t, "rust", s.Canonicalize("rust"))
}

func TestAddAliasConflict(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("js", "javascript"))

	// Identical mapping is idempotent.
	require.NoError(t, s.AddAlias("js", "javascript"))
	assert.Equal(t, []string{"js"}, s.Aliases("javascript"))
	assert.Equal(t, 1, s.Len())

	err := s.AddAlias("js", "ecmascript")
	require.ErrorIs(t, err, ErrAliasExists)

	var exists *AliasExistsError
	require.True(t, errors.As(err, &exists))
	assert.Equal(t, "js", exists.Alias)
	assert.Equal(t, "javascript", exists.Existing)
}

func TestAddAliasCycles(t *testing.T) {
	tests := []struct {
		name    string
		setup   [][2]string
		alias   string
		target  string
		wantErr error
	}{
		{
			name:    "direct",
			setup:   [][2]string{{"a", "b"}},
			alias:   "b",
			target:  "a",
			wantErr: ErrCircularAlias,
		},
		{
			name:    "indirect",
			setup:   [][2]string{{"a", "b"}, {"b", "c"}},
			alias:   "c",
			target:  "a",
			wantErr: ErrCircularAlias,
		},
		{
			name:    "self",
			alias:   "a",
			target:  "a",
			wantErr: ErrCircularAlias,
		},
		{
			name:   "chain without cycle",
			setup:  [][2]string{{"a", "b"}},
			alias:  "c",
			target: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for _, m := range tt.setup {
				require.NoError(t, s.AddAlias(m[0], m[1]))
			}
			err := s.AddAlias(tt.alias, tt.target)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWouldCycleRevisitedNode(t *testing.T) {
	// A loop that does not pass through the new alias must still
	// terminate the walk.
	s := New()
	s.aliases["x"] = "y"
	s.aliases["y"] = "x"

	require.ErrorIs(t, s.AddAlias("z", "x"), ErrCircularAlias)
}

func TestReservedDelimiter(t *testing.T) {
	s := New()
	require.ErrorIs(t, s.AddAlias("lang:js", "javascript"), ErrInvalidTag)
	require.NoError(t, s.AddAlias("js", "lang:javascript"))
	assert.Equal(t, "lang:javascript", s.Canonicalize("js"))
}

func TestRemoveAlias(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("js", "javascript"))
	require.NoError(t, s.AddAlias("es", "javascript"))

	require.NoError(t, s.RemoveAlias("js"))
	assert.Equal(t, "js", s.Canonicalize("js"))
	assert.Equal(t, "javascript", s.Canonicalize("es"))
	assert.Equal(t, []string{"es"}, s.Aliases("javascript"))

	require.NoError(t, s.RemoveAlias("es"))
	assert.Empty(t, s.Aliases("javascript"))

	require.ErrorIs(t, s.RemoveAlias("es"), ErrTagNotFound)
}

func TestCanonicalizeHierarchical(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("language", "lang"))
	require.NoError(t, s.AddAlias("rs", "rust"))

	assert.Equal(t, "lang:rust:async", s.Canonicalize("language:rs:async"))
	assert.Equal(t, "lang:rust:", s.HierarchyPrefix("language:rs"))
}

func TestExpandSynonyms(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("js", "javascript"))
	require.NoError(t, s.AddAlias("es", "javascript"))

	assert.Equal(t, []string{"javascript", "es", "js"}, s.ExpandSynonyms("js"))
	assert.Equal(t, []string{"python"}, s.ExpandSynonyms("python"))
}

func TestExpandWithHierarchy(t *testing.T) {
	t.Run("ancestors", func(t *testing.T) {
		got := New().ExpandWithHierarchy("lang:rust:async")
		assert.Equal(t, []string{"lang", "lang:rust", "lang:rust:async"}, got)
	})

	t.Run("aliases on segments", func(t *testing.T) {
		s := New()
		require.NoError(t, s.AddAlias("language", "lang"))

		got := s.ExpandWithHierarchy("language:rust")
		assert.ElementsMatch(t,
			[]string{"lang", "lang:rust", "language", "language:rust", "rust"}, got)
	})
}

func TestListAliasesSorted(t *testing.T) {
	s := New()
	require.NoError(t, s.AddAlias("py", "python"))
	require.NoError(t, s.AddAlias("js", "javascript"))

	assert.Equal(t, []Alias{
		{Alias: "js", Canonical: "javascript"},
		{Alias: "py", Canonical: "python"},
	}, s.ListAliases())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "schema.yaml")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, s.Len())

	require.NoError(t, s.AddAlias("js", "javascript"))
	require.NoError(t, s.AddAlias("py", "python"))
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "aliases:")
	assert.Contains(t, string(data), "js: javascript")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "javascript", loaded.Canonicalize("js"))
	assert.Equal(t, []string{"py"}, loaded.Aliases("python"))
	assert.Equal(t, path, loaded.Path())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing schema")
}

func TestLoadRejectsInvalidAliases(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"delimiter in alias", "aliases:\n  lang:js: javascript\n", ErrInvalidTag},
		{"direct cycle", "aliases:\n  a: b\n  b: a\n", ErrCircularAlias},
		{"indirect cycle", "aliases:\n  a: b\n  b: c\n  c: a\n", ErrCircularAlias},
		{"self alias", "aliases:\n  a: a\n", ErrCircularAlias},
		{"empty canonical", "aliases:\n  a: \"\"\n", ErrInvalidTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "schema.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			_, err := Load(path)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "loading schema")
		})
	}
}

func TestLoadChainedAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  js: ecmascript\n  ecmascript: javascript\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"js"}, s.Aliases("ecmascript"))
}

func TestSaveWithoutPath(t *testing.T) {
	require.Error(t, New().Save())
}
