// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filters

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tagindex/pkg/types"
)

var epoch = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

// newManager returns a Manager over a temp file with a clock that advances
// one minute per call.
func newManager(t *testing.T) *Manager {
	t.Helper()
	m := New(filepath.Join(t.TempDir(), "nested", "filters.yaml"))
	ticks := 0
	m.now = func() time.Time {
		ticks++
		return epoch.Add(time.Duration(ticks-1) * time.Minute)
	}
	return m
}

var rustWork = types.SearchParams{
	Tags:        []string{"lang:rust"},
	TagMode:     types.ModeAny,
	ExcludeTags: []string{"tests"},
}

func TestCreateAndGet(t *testing.T) {
	m := newManager(t)

	created, err := m.Create("rust-work", "Rust outside tests", rustWork)
	require.NoError(t, err)
	assert.Equal(t, epoch, created.Created)
	assert.Equal(t, epoch, created.LastUsed)
	assert.Zero(t, created.UseCount)

	got, err := m.Get("rust-work")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// A fresh manager reads the same document.
	got, err = New(m.Path()).Get("rust-work")
	require.NoError(t, err)
	assert.Equal(t, rustWork, got.Criteria)
	assert.True(t, epoch.Equal(got.Created))

	data, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "filters:")
	assert.Contains(t, string(data), "name: rust-work")

	_, err = m.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateErrors(t *testing.T) {
	m := newManager(t)
	_, err := m.Create("taken", "", rustWork)
	require.NoError(t, err)

	tests := []struct {
		name     string
		filter   string
		criteria types.SearchParams
		wantErr  error
	}{
		{"duplicate", "taken", rustWork, ErrExists},
		{"bad name", "has space", rustWork, ErrInvalidName},
		{"no criteria", "empty", types.SearchParams{ExcludeTags: []string{"x"}}, ErrInvalidCriteria},
		{"bad tag regex", "re", types.SearchParams{Tags: []string{"("}, RegexTag: true}, ErrInvalidCriteria},
		{"bad file regex", "re", types.SearchParams{FilePatterns: []string{"("}, RegexFile: true}, ErrInvalidCriteria},
		{"bad glob", "glob", types.SearchParams{FilePatterns: []string{"["}}, ErrInvalidCriteria},
		{"query with tags", "mixed", types.SearchParams{Query: "x", Tags: []string{"a"}}, ErrInvalidCriteria},
		{"bad query", "q", types.SearchParams{Query: "("}, ErrInvalidCriteria},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(tt.filter, "", tt.criteria)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	list, err := m.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"valid-name", "valid_name_123", "ValidName", "données"} {
		assert.NoError(t, ValidateName(name), name)
	}
	for _, name := range []string{"", "has space", "slash/name", "dot.name", strings.Repeat("a", 65)} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
}

func TestRenameDeleteList(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"b", "a", "c"} {
		_, err := m.Create(name, "", rustWork)
		require.NoError(t, err)
	}

	require.NoError(t, m.Rename("c", "z"))
	require.ErrorIs(t, m.Rename("a", "b"), ErrExists)
	require.ErrorIs(t, m.Rename("missing", "y"), ErrNotFound)
	require.ErrorIs(t, m.Rename("a", "bad name"), ErrInvalidName)

	deleted, err := m.Delete("b")
	require.NoError(t, err)
	assert.Equal(t, "b", deleted.Name)
	_, err = m.Delete("b")
	require.ErrorIs(t, err, ErrNotFound)

	list, err := m.List()
	require.NoError(t, err)
	names := make([]string, len(list))
	for i, f := range list {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"a", "z"}, names)
}

func TestUpdate(t *testing.T) {
	m := newManager(t)
	f, err := m.Create("rust-work", "", rustWork)
	require.NoError(t, err)

	f.Description = "changed"
	f.Criteria.Tags = append(f.Criteria.Tags, "cli")
	require.NoError(t, m.Update(f))

	got, err := m.Get("rust-work")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Description)
	assert.Equal(t, []string{"lang:rust", "cli"}, got.Criteria.Tags)

	f.Name = "other"
	require.ErrorIs(t, m.Update(f), ErrNotFound)
}

func TestRecordUse(t *testing.T) {
	m := newManager(t)
	_, err := m.Create("rust-work", "", rustWork)
	require.NoError(t, err)

	require.NoError(t, m.RecordUse("rust-work"))
	require.NoError(t, m.RecordUse("rust-work"))

	got, err := m.Get("rust-work")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UseCount)
	assert.Equal(t, epoch, got.Created)
	assert.Equal(t, epoch.Add(2*time.Minute), got.LastUsed)

	require.ErrorIs(t, m.RecordUse("missing"), ErrNotFound)
}

func TestSaveKeepsBackup(t *testing.T) {
	m := newManager(t)
	_, err := m.Create("first", "", rustWork)
	require.NoError(t, err)
	before, err := os.ReadFile(m.Path())
	require.NoError(t, err)

	_, err = m.Create("second", "", rustWork)
	require.NoError(t, err)

	backup, err := os.ReadFile(m.Path() + ".backup")
	require.NoError(t, err)
	assert.Equal(t, before, backup)
}

func TestExportImport(t *testing.T) {
	src := newManager(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := src.Create(name, "from src", rustWork)
		require.NoError(t, err)
	}

	var out bytes.Buffer
	require.NoError(t, src.Export(&out, "a", "c"))
	assert.NotContains(t, out.String(), "name: b")
	require.ErrorIs(t, src.Export(&bytes.Buffer{}, "missing"), ErrNotFound)

	t.Run("into empty", func(t *testing.T) {
		dst := newManager(t)
		summary, err := dst.Import(strings.NewReader(out.String()), false, false)
		require.NoError(t, err)
		assert.Equal(t, ImportSummary{Imported: 2}, summary)

		want, err := src.Get("c")
		require.NoError(t, err)
		got, err := dst.Get("c")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("conflicts", func(t *testing.T) {
		dst := newManager(t)
		_, err := dst.Create("a", "local", types.SearchParams{Tags: []string{"local"}})
		require.NoError(t, err)

		_, err = dst.Import(strings.NewReader(out.String()), false, false)
		require.ErrorIs(t, err, ErrExists)
		list, err := dst.List()
		require.NoError(t, err)
		assert.Len(t, list, 1, "failed import writes nothing")

		summary, err := dst.Import(strings.NewReader(out.String()), false, true)
		require.NoError(t, err)
		assert.Equal(t, ImportSummary{Imported: 1, Skipped: 1}, summary)
		got, err := dst.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "local", got.Description)

		summary, err = dst.Import(strings.NewReader(out.String()), true, false)
		require.NoError(t, err)
		assert.Equal(t, ImportSummary{Imported: 2}, summary)
		got, err = dst.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "from src", got.Description)
	})

	t.Run("invalid document", func(t *testing.T) {
		_, err := newManager(t).Import(strings.NewReader("filters: [unterminated"), false, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing filters")
	})
}
