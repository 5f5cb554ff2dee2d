// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the dual file/tag index. The forward tree maps each
// file to its tag set; the reverse tree maps each tag to the files that carry
// it. Every mutation updates both trees in one backend transaction.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"unicode/utf8"

	"github.com/pdiddy/tagindex/pkg/types"
)

// Store is the tag index. It is safe for use by one process at a time.
type Store struct {
	backend backend
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens or creates the SQLite index at cfg.DataDir/index/tags.db.
func Open(cfg types.StoreConfig, opts ...Option) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("opening store: data directory not set")
	}
	b, err := openSQLite(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return newStore(b, opts), nil
}

// OpenMemory returns an index held entirely in memory.
func OpenMemory(opts ...Option) *Store {
	return newStore(newMemoryBackend(), opts)
}

func newStore(b backend, opts []Option) *Store {
	s := &Store{
		backend: b,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.close()
}

// Flush forces committed writes to durable storage.
func (s *Store) Flush() error {
	if err := s.backend.flush(); err != nil {
		return fmt.Errorf("flushing index: %w", err)
	}
	return nil
}

func (s *Store) update(fn func(x txn) error) error {
	x, err := s.backend.begin(true)
	if err != nil {
		return err
	}
	defer x.rollback()
	if err := fn(x); err != nil {
		return err
	}
	return x.commit()
}

func (s *Store) view(fn func(x txn) error) error {
	x, err := s.backend.begin(false)
	if err != nil {
		return err
	}
	defer x.rollback()
	return fn(x)
}

// --- writes ---

// InsertPair replaces the tag set of p.File. The file must exist on disk.
// An empty tag set removes the file from the index.
func (s *Store) InsertPair(p types.Pair) error {
	if err := checkFile(p.File); err != nil {
		return err
	}
	tags, err := validTags(p.Tags)
	if err != nil {
		return err
	}
	err = s.update(func(x txn) error {
		return putFile(x, p.File, tags)
	})
	if err != nil {
		return fmt.Errorf("inserting %s: %w", p.File, err)
	}
	s.logger.Debug("inserted pair", "file", p.File, "tags", len(tags))
	return nil
}

// Insert is InsertPair for a path and tag list.
func (s *Store) Insert(file string, tags []string) error {
	return s.InsertPair(types.Pair{File: file, Tags: tags})
}

// AddTags merges tags into the file's existing set. Like InsertPair it
// requires the file to exist.
func (s *Store) AddTags(file string, tags []string) error {
	if err := checkFile(file); err != nil {
		return err
	}
	add, err := validTags(tags)
	if err != nil {
		return err
	}
	err = s.update(func(x txn) error {
		old, _, err := getList(x, filesTree, []byte(file))
		if err != nil {
			return err
		}
		return putFile(x, file, types.NormalizeTags(append(old, add...)))
	})
	if err != nil {
		return fmt.Errorf("adding tags to %s: %w", file, err)
	}
	s.logger.Debug("added tags", "file", file, "tags", add)
	return nil
}

// RemoveTags drops tags from the file's set. Removing the last tag removes
// the file. Untracked files are ignored.
func (s *Store) RemoveTags(file string, tags []string) error {
	err := s.update(func(x txn) error {
		old, ok, err := getList(x, filesTree, []byte(file))
		if err != nil || !ok {
			return err
		}
		kept := slices.DeleteFunc(slices.Clone(old), func(t string) bool {
			return slices.Contains(tags, t)
		})
		return putFile(x, file, kept)
	})
	if err != nil {
		return fmt.Errorf("removing tags from %s: %w", file, err)
	}
	s.logger.Debug("removed tags", "file", file, "tags", tags)
	return nil
}

// Remove deletes the file and prunes it from every reverse entry. It reports
// whether the file was tracked.
func (s *Store) Remove(file string) (bool, error) {
	var found bool
	err := s.update(func(x txn) error {
		old, ok, err := getList(x, filesTree, []byte(file))
		if err != nil || !ok {
			return err
		}
		found = true
		return replaceFile(x, file, old, nil)
	})
	if err != nil {
		return false, fmt.Errorf("removing %s: %w", file, err)
	}
	if found {
		s.logger.Debug("removed file", "file", file)
	}
	return found, nil
}

// RemoveTagGlobally strips tag from every file that carries it and returns
// the number of files affected. Files left without tags are removed.
func (s *Store) RemoveTagGlobally(tag string) (int, error) {
	var n int
	err := s.update(func(x txn) error {
		files, _, err := getList(x, tagsTree, []byte(tag))
		if err != nil {
			return err
		}
		for _, file := range files {
			old, _, err := getList(x, filesTree, []byte(file))
			if err != nil {
				return err
			}
			kept := slices.DeleteFunc(slices.Clone(old), func(t string) bool { return t == tag })
			if err := putList(x, filesTree, []byte(file), kept); err != nil {
				return err
			}
		}
		if _, err := x.delete(tagsTree, []byte(tag)); err != nil {
			return err
		}
		n = len(files)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing tag %s: %w", tag, err)
	}
	s.logger.Debug("removed tag globally", "tag", tag, "files", n)
	return n, nil
}

// Clear empties both trees.
func (s *Store) Clear() error {
	err := s.update(func(x txn) error {
		if err := x.clear(filesTree); err != nil {
			return err
		}
		return x.clear(tagsTree)
	})
	if err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	s.logger.Debug("cleared index")
	return nil
}

// --- reads ---

// GetTags returns the file's tag set and whether the file is tracked.
func (s *Store) GetTags(file string) ([]string, bool, error) {
	var (
		tags []string
		ok   bool
	)
	err := s.view(func(x txn) error {
		var err error
		tags, ok, err = getList(x, filesTree, []byte(file))
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading tags of %s: %w", file, err)
	}
	return tags, ok, nil
}

// GetPair returns the file and its tags as a Pair.
func (s *Store) GetPair(file string) (types.Pair, bool, error) {
	tags, ok, err := s.GetTags(file)
	if err != nil || !ok {
		return types.Pair{}, ok, err
	}
	return types.Pair{File: file, Tags: tags}, true, nil
}

// Contains reports whether the file is tracked.
func (s *Store) Contains(file string) (bool, error) {
	var ok bool
	err := s.view(func(x txn) error {
		var err error
		_, ok, err = x.get(filesTree, []byte(file))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", file, err)
	}
	return ok, nil
}

// Count returns the number of tracked files.
func (s *Store) Count() (int, error) {
	var n int
	err := s.view(func(x txn) error {
		var err error
		n, err = x.count(filesTree)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return n, nil
}

// ListAll returns every tracked file with its tags, ordered by path bytes.
func (s *Store) ListAll() ([]types.Pair, error) {
	var pairs []types.Pair
	err := s.view(func(x txn) error {
		return x.scan(filesTree, nil, func(k, v []byte) error {
			tags, err := decodeList(filesTree, k, v)
			if err != nil {
				return err
			}
			pairs = append(pairs, types.Pair{File: string(k), Tags: tags})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return pairs, nil
}

// ListAllFiles returns every tracked path without decoding tag sets.
func (s *Store) ListAllFiles() ([]string, error) {
	var files []string
	err := s.view(func(x txn) error {
		return x.scan(filesTree, nil, func(k, _ []byte) error {
			files = append(files, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// ListAllTags returns every tag present in the index, sorted.
func (s *Store) ListAllTags() ([]string, error) {
	return s.ListTagsWithPrefix("")
}

// ListTagsWithPrefix returns the sorted tags starting with prefix.
func (s *Store) ListTagsWithPrefix(prefix string) ([]string, error) {
	var tags []string
	err := s.view(func(x txn) error {
		return x.scan(tagsTree, []byte(prefix), func(k, _ []byte) error {
			tags = append(tags, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// FindByTag returns the files carrying tag exactly.
func (s *Store) FindByTag(tag string) ([]string, error) {
	var files []string
	err := s.view(func(x txn) error {
		var err error
		files, _, err = getList(x, tagsTree, []byte(tag))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding tag %s: %w", tag, err)
	}
	return files, nil
}

// FindByAllTags returns the files carrying every tag. No tags yields no
// files.
func (s *Store) FindByAllTags(tags []string) ([]string, error) {
	tags = types.NormalizeTags(tags)
	if len(tags) == 0 {
		return nil, nil
	}
	var result []string
	err := s.view(func(x txn) error {
		for i, tag := range tags {
			files, _, err := getList(x, tagsTree, []byte(tag))
			if err != nil {
				return err
			}
			if i == 0 {
				result = files
			} else {
				result = intersect(result, files)
			}
			if len(result) == 0 {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding files with all tags: %w", err)
	}
	return result, nil
}

// FindByAnyTag returns the files carrying at least one tag.
func (s *Store) FindByAnyTag(tags []string) ([]string, error) {
	var result []string
	err := s.view(func(x txn) error {
		var err error
		result, err = unionOf(x, types.NormalizeTags(tags))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding files with any tag: %w", err)
	}
	return result, nil
}

// FindByTagRegex returns the files carrying any tag that matches pattern.
func (s *Store) FindByTagRegex(pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling tag pattern %q: %w", pattern, err)
	}
	var result []string
	err = s.view(func(x txn) error {
		var matched []string
		err := x.scan(tagsTree, nil, func(k, _ []byte) error {
			if re.Match(k) {
				matched = append(matched, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		result, err = unionOf(x, matched)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("finding tags matching %q: %w", pattern, err)
	}
	return result, nil
}

// FindExcludingTags returns the files carrying every include tag (or all
// files when include is empty) minus those carrying any exclude tag.
func (s *Store) FindExcludingTags(include, exclude []string) ([]string, error) {
	var (
		included []string
		err      error
	)
	if len(types.NormalizeTags(include)) == 0 {
		included, err = s.ListAllFiles()
	} else {
		included, err = s.FindByAllTags(include)
	}
	if err != nil {
		return nil, err
	}
	if len(exclude) == 0 {
		return included, nil
	}
	excluded, err := s.FindByAnyTag(exclude)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(included, func(f string) bool {
		_, found := slices.BinarySearch(excluded, f)
		return found
	}), nil
}

// --- helpers ---

func checkFile(file string) error {
	if !utf8.ValidString(file) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, file)
	}
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, file)
		}
		return fmt.Errorf("checking %s: %w", file, err)
	}
	return nil
}

func validTags(tags []string) ([]string, error) {
	for _, t := range tags {
		if !utf8.ValidString(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTag, t)
		}
	}
	return types.NormalizeTags(tags), nil
}

// putFile writes the file's new tag set and brings the reverse tree in line.
func putFile(x txn, file string, tags []string) error {
	old, _, err := getList(x, filesTree, []byte(file))
	if err != nil {
		return err
	}
	return replaceFile(x, file, old, tags)
}

func replaceFile(x txn, file string, old, tags []string) error {
	for _, t := range old {
		if !slices.Contains(tags, t) {
			if err := removeFromSet(x, tagsTree, []byte(t), file); err != nil {
				return err
			}
		}
	}
	if err := putList(x, filesTree, []byte(file), tags); err != nil {
		return err
	}
	for _, t := range tags {
		if err := addToSet(x, tagsTree, []byte(t), file); err != nil {
			return err
		}
	}
	return nil
}

func getList(x txn, t tree, key []byte) ([]string, bool, error) {
	data, ok, err := x.get(t, key)
	if err != nil || !ok {
		return nil, false, err
	}
	list, err := decodeList(t, key, data)
	if err != nil {
		return nil, false, err
	}
	return list, true, nil
}

// putList stores list under key, deleting the key when list is empty.
func putList(x txn, t tree, key []byte, list []string) error {
	if len(list) == 0 {
		_, err := x.delete(t, key)
		return err
	}
	data, err := encodeList(list)
	if err != nil {
		return err
	}
	return x.put(t, key, data)
}

func addToSet(x txn, t tree, key []byte, member string) error {
	list, _, err := getList(x, t, key)
	if err != nil {
		return err
	}
	i, found := slices.BinarySearch(list, member)
	if found {
		return nil
	}
	return putList(x, t, key, slices.Insert(list, i, member))
}

func removeFromSet(x txn, t tree, key []byte, member string) error {
	list, ok, err := getList(x, t, key)
	if err != nil || !ok {
		return err
	}
	i, found := slices.BinarySearch(list, member)
	if !found {
		return nil
	}
	return putList(x, t, key, slices.Delete(list, i, i+1))
}

func unionOf(x txn, tags []string) ([]string, error) {
	seen := make(map[string]struct{})
	var result []string
	for _, tag := range tags {
		files, _, err := getList(x, tagsTree, []byte(tag))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				result = append(result, f)
			}
		}
	}
	slices.Sort(result)
	return result, nil
}

// intersect returns the members of both sorted lists.
func intersect(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
