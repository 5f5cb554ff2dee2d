// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"slices"

	"github.com/pdiddy/tagindex/pkg/types"
)

// RenameTag replaces from with to on every file carrying from and returns the
// number of files rewritten. Files that already carry to keep one copy.
func (s *Store) RenameTag(from, to string) (int, error) {
	if from == to {
		return 0, fmt.Errorf("%w: %s renamed to itself", ErrInvalidRetag, from)
	}
	n, err := s.retag([]string{from}, to)
	if err != nil {
		return 0, fmt.Errorf("renaming tag %s: %w", from, err)
	}
	s.logger.Debug("renamed tag", "from", from, "to", to, "files", n)
	return n, nil
}

// MergeTags replaces every source tag with target across the index and
// returns the number of files rewritten. The target may not be a source.
func (s *Store) MergeTags(sources []string, target string) (int, error) {
	sources = types.NormalizeTags(sources)
	if len(sources) == 0 {
		return 0, fmt.Errorf("%w: no source tags", ErrInvalidRetag)
	}
	if slices.Contains(sources, target) {
		return 0, fmt.Errorf("%w: target %s is also a source", ErrInvalidRetag, target)
	}
	n, err := s.retag(sources, target)
	if err != nil {
		return 0, fmt.Errorf("merging tags into %s: %w", target, err)
	}
	s.logger.Debug("merged tags", "sources", sources, "target", target, "files", n)
	return n, nil
}

// retag rewrites sources to target on every file carrying any source, in a
// single transaction.
func (s *Store) retag(sources []string, target string) (int, error) {
	if target == "" {
		return 0, fmt.Errorf("%w: empty target tag", ErrInvalidRetag)
	}
	if _, err := validTags([]string{target}); err != nil {
		return 0, err
	}

	var n int
	err := s.update(func(x txn) error {
		files, err := unionOf(x, sources)
		if err != nil {
			return err
		}
		for _, file := range files {
			old, ok, err := getList(x, filesTree, []byte(file))
			if err != nil {
				return err
			}
			if !ok {
				// Reverse entry without a forward one: drop it.
				for _, src := range sources {
					if err := removeFromSet(x, tagsTree, []byte(src), file); err != nil {
						return err
					}
				}
				continue
			}
			tags := make([]string, len(old))
			for i, t := range old {
				if slices.Contains(sources, t) {
					t = target
				}
				tags[i] = t
			}
			if err := replaceFile(x, file, old, types.NormalizeTags(tags)); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CopyTags adds the tags of source to every target and returns the number of
// targets whose tag set changed. When only is non-empty just those tags are
// copied; tags in skip are never copied. The source itself is ignored as a
// target. Every target must exist on disk, and the copy is all or nothing.
func (s *Store) CopyTags(source string, targets, only, skip []string) (int, error) {
	tags, ok, err := s.GetTags(source)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("copying tags: %w: %s", ErrNotIndexed, source)
	}
	tags = slices.DeleteFunc(tags, func(t string) bool {
		return (len(only) > 0 && !slices.Contains(only, t)) || slices.Contains(skip, t)
	})
	if len(tags) == 0 {
		return 0, nil
	}

	targets = slices.DeleteFunc(slices.Clone(targets), func(f string) bool { return f == source })
	for _, f := range targets {
		if err := checkFile(f); err != nil {
			return 0, err
		}
	}

	var n int
	err = s.update(func(x txn) error {
		for _, file := range targets {
			old, _, err := getList(x, filesTree, []byte(file))
			if err != nil {
				return err
			}
			merged := types.NormalizeTags(append(slices.Clone(old), tags...))
			if slices.Equal(old, merged) {
				continue
			}
			if err := replaceFile(x, file, old, merged); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("copying tags from %s: %w", source, err)
	}
	s.logger.Debug("copied tags", "source", source, "tags", tags, "files", n)
	return n, nil
}
