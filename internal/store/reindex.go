// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"cmp"
	"fmt"
	"slices"
)

// ReindexSummary holds counts from a reverse-tree rebuild.
type ReindexSummary struct {
	Files int
	Tags  int
}

// Reindex rebuilds the reverse tree from the forward tree. The forward tree
// is authoritative; any stale or missing reverse entry is replaced.
func (s *Store) Reindex() (ReindexSummary, error) {
	var summary ReindexSummary
	err := s.update(func(x txn) error {
		expected, files, err := expectedReverse(x)
		if err != nil {
			return err
		}
		if err := x.clear(tagsTree); err != nil {
			return err
		}
		for tag, members := range expected {
			slices.Sort(members)
			if err := putList(x, tagsTree, []byte(tag), members); err != nil {
				return err
			}
		}
		summary = ReindexSummary{Files: files, Tags: len(expected)}
		return nil
	})
	if err != nil {
		return ReindexSummary{}, fmt.Errorf("reindexing: %w", err)
	}
	s.logger.Debug("reindexed", "files", summary.Files, "tags", summary.Tags)
	return summary, nil
}

// ProblemKind classifies a forward/reverse disagreement.
type ProblemKind string

const (
	// MissingReverse means a file carries a tag the reverse tree does not
	// list it under.
	MissingReverse ProblemKind = "missing"
	// StaleReverse means the reverse tree lists a file under a tag the file
	// does not carry.
	StaleReverse ProblemKind = "stale"
)

// Problem is one disagreement found by Verify.
type Problem struct {
	Kind ProblemKind `json:"kind" yaml:"kind"`
	Tag  string      `json:"tag" yaml:"tag"`
	File string      `json:"file" yaml:"file"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s -> %s", p.Kind, p.Tag, p.File)
}

// Verify compares the reverse tree against the forward tree and returns
// every disagreement, ordered by tag then file. Undecodable entries are
// reported as ErrCorrupt.
func (s *Store) Verify() ([]Problem, error) {
	var problems []Problem
	err := s.view(func(x txn) error {
		expected, _, err := expectedReverse(x)
		if err != nil {
			return err
		}
		err = x.scan(tagsTree, nil, func(k, v []byte) error {
			actual, err := decodeList(tagsTree, k, v)
			if err != nil {
				return err
			}
			tag := string(k)
			want := expected[tag]
			for _, f := range actual {
				if !slices.Contains(want, f) {
					problems = append(problems, Problem{Kind: StaleReverse, Tag: tag, File: f})
				}
			}
			for _, f := range want {
				if !slices.Contains(actual, f) {
					problems = append(problems, Problem{Kind: MissingReverse, Tag: tag, File: f})
				}
			}
			delete(expected, tag)
			return nil
		})
		if err != nil {
			return err
		}
		for tag, want := range expected {
			for _, f := range want {
				problems = append(problems, Problem{Kind: MissingReverse, Tag: tag, File: f})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("verifying index: %w", err)
	}
	slices.SortFunc(problems, func(a, b Problem) int {
		return cmp.Or(cmp.Compare(a.Tag, b.Tag), cmp.Compare(a.File, b.File))
	})
	return problems, nil
}

// expectedReverse derives the reverse tree from the forward tree.
func expectedReverse(x txn) (map[string][]string, int, error) {
	expected := make(map[string][]string)
	var files int
	err := x.scan(filesTree, nil, func(k, v []byte) error {
		tags, err := decodeList(filesTree, k, v)
		if err != nil {
			return err
		}
		files++
		for _, t := range tags {
			expected[t] = append(expected[t], string(k))
		}
		return nil
	})
	return expected, files, err
}
