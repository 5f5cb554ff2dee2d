// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameTag(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		paths := touch(t, "a.txt", "b.txt", "c.txt")
		require.NoError(t, s.Insert(paths[0], []string{"draft", "keep"}))
		require.NoError(t, s.Insert(paths[1], []string{"draft", "final"}))
		require.NoError(t, s.Insert(paths[2], []string{"keep"}))

		n, err := s.RenameTag("draft", "final")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		tags, _, err := s.GetTags(paths[0])
		require.NoError(t, err)
		assert.Equal(t, []string{"final", "keep"}, tags)
		tags, _, err = s.GetTags(paths[1])
		require.NoError(t, err)
		assert.Equal(t, []string{"final"}, tags)

		files, err := s.FindByTag("draft")
		require.NoError(t, err)
		assert.Empty(t, files)
		files, err = s.FindByTag("final")
		require.NoError(t, err)
		assert.Equal(t, paths[:2], files)

		n, err = s.RenameTag("draft", "final")
		require.NoError(t, err)
		assert.Zero(t, n)
		requireConsistent(t, s)
	})
}

func TestRenameTagErrors(t *testing.T) {
	s := OpenMemory()
	_, err := s.RenameTag("a", "a")
	require.ErrorIs(t, err, ErrInvalidRetag)
	_, err = s.RenameTag("a", "")
	require.ErrorIs(t, err, ErrInvalidRetag)
	_, err = s.RenameTag("a", "\xff")
	require.ErrorIs(t, err, ErrInvalidTag)
}

func TestMergeTags(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		paths := touch(t, "a.js", "b.js", "c.js", "d.py")
		require.NoError(t, s.Insert(paths[0], []string{"js"}))
		require.NoError(t, s.Insert(paths[1], []string{"ecmascript", "web"}))
		require.NoError(t, s.Insert(paths[2], []string{"javascript", "js"}))
		require.NoError(t, s.Insert(paths[3], []string{"python"}))

		n, err := s.MergeTags([]string{"js", "ecmascript"}, "javascript")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		files, err := s.FindByTag("javascript")
		require.NoError(t, err)
		assert.Equal(t, paths[:3], files)

		all, err := s.ListAllTags()
		require.NoError(t, err)
		assert.Equal(t, []string{"javascript", "python", "web"}, all)
		requireConsistent(t, s)
	})
}

func TestMergeTagsErrors(t *testing.T) {
	s := OpenMemory()
	_, err := s.MergeTags(nil, "x")
	require.ErrorIs(t, err, ErrInvalidRetag)
	_, err = s.MergeTags([]string{"a", "x"}, "x")
	require.ErrorIs(t, err, ErrInvalidRetag)
}

func TestCopyTags(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		paths := touch(t, "src.txt", "t1.txt", "t2.txt")
		src, t1, t2 := paths[0], paths[1], paths[2]
		require.NoError(t, s.Insert(src, []string{"a", "b", "c"}))
		require.NoError(t, s.Insert(t2, []string{"a"}))

		n, err := s.CopyTags(src, []string{t1, t2, src}, nil, []string{"c"})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		tags, _, err := s.GetTags(t1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tags)
		tags, _, err = s.GetTags(t2)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tags)
		tags, _, err = s.GetTags(src)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, tags)

		n, err = s.CopyTags(src, []string{t2}, []string{"a"}, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		requireConsistent(t, s)
	})
}

func TestCopyTagsErrors(t *testing.T) {
	paths := touch(t, "src.txt", "t1.txt")
	s := OpenMemory()

	_, err := s.CopyTags(paths[0], paths[1:], nil, nil)
	require.ErrorIs(t, err, ErrNotIndexed)

	require.NoError(t, s.Insert(paths[0], []string{"a"}))
	missing := filepath.Join(t.TempDir(), "gone.txt")
	_, err = s.CopyTags(paths[0], []string{paths[1], missing}, nil, nil)
	require.ErrorIs(t, err, ErrFileNotFound)

	// Nothing is written when any target is rejected.
	ok, err := s.Contains(paths[1])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImportStopsOnCorruptEntry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		f := touch(t, "a.txt")[0]
		require.NoError(t, s.Insert(f, []string{"a"}))
		require.NoError(t, s.update(func(x txn) error {
			return x.put(filesTree, []byte(f), []byte{0xff, 0x00})
		}))

		var log strings.Builder
		_, err := s.Import(strings.NewReader("- file: "+f+"\n  tags: [b]\n"), &log)
		require.ErrorIs(t, err, ErrCorrupt)
		assert.NotContains(t, log.String(), "failed")
	})
}
