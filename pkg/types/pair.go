// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// Pair associates a file path with its tag set. A file is tracked by the
// index only while its tag set is non-empty.
type Pair struct {
	// File is the path as given by the caller. It is used verbatim as the
	// forward-index key and may contain non-UTF-8 bytes.
	File string `json:"file" yaml:"file"`

	// Tags is the file's tag set. The store keeps it deduplicated and sorted.
	Tags []string `json:"tags" yaml:"tags"`
}

// NewPair returns a Pair with tags normalized by NormalizeTags.
func NewPair(file string, tags []string) Pair {
	return Pair{File: file, Tags: NormalizeTags(tags)}
}

// FileTagPair returns the file path and tags, letting a Pair be filtered
// wherever a (path, tags) view is accepted.
func (p Pair) FileTagPair() (string, []string) {
	return p.File, p.Tags
}

// HasTag reports whether the pair carries tag exactly.
func (p Pair) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NormalizeTags drops empty strings and duplicates and returns the tags
// sorted. The input slice is not modified.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
