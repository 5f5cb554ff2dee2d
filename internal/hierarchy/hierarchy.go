// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hierarchy implements prefix matching over colon-delimited tags.
//
// A pattern matches a tag when it equals the tag or is a whole-segment
// prefix of it: "lang" matches "lang:rust" but not "language". When include
// and exclude patterns both match, the deeper pattern wins and equal depths
// resolve to exclude. An exclude that wins inside one hierarchy root
// excludes the file even if a different root is included.
package hierarchy

import "strings"

// Delimiter separates the segments of a hierarchical tag.
const Delimiter = ":"

// Depth returns the number of segments in tag.
func Depth(tag string) int {
	return strings.Count(tag, Delimiter) + 1
}

// Root returns the first segment of tag, or tag itself when it has none.
func Root(tag string) string {
	if i := strings.Index(tag, Delimiter); i >= 0 {
		return tag[:i]
	}
	return tag
}

// PatternMatches reports whether pattern equals tag or is a prefix of tag
// ending at a segment boundary.
func PatternMatches(pattern, tag string) bool {
	if pattern == tag {
		return true
	}
	return strings.HasPrefix(tag, pattern+Delimiter)
}

// Ancestors returns the proper prefixes of tag from nearest to farthest:
// "a:b:c" yields ["a:b", "a"].
func Ancestors(tag string) []string {
	var out []string
	for {
		i := strings.LastIndex(tag, Delimiter)
		if i < 0 {
			return out
		}
		tag = tag[:i]
		out = append(out, tag)
	}
}

// Signal is the verdict a matching pattern contributes for a tag.
type Signal int

const (
	Include Signal = iota
	Exclude
)

func (s Signal) String() string {
	if s == Exclude {
		return "exclude"
	}
	return "include"
}

// Match is a signal together with the depth of the pattern that produced it.
type Match struct {
	Signal Signal
	Depth  int
}

// beats reports whether m should replace cur as the most specific match.
func (m Match) beats(cur Match) bool {
	if m.Depth != cur.Depth {
		return m.Depth > cur.Depth
	}
	return m.Signal == Exclude && cur.Signal == Include
}

// MostSpecificMatch returns the deepest pattern match for tag across both
// pattern lists. At equal depth an exclude beats an include. ok is false
// when no pattern matches.
func MostSpecificMatch(tag string, include, exclude []string) (best Match, ok bool) {
	consider := func(patterns []string, sig Signal) {
		for _, p := range patterns {
			if !PatternMatches(p, tag) {
				continue
			}
			m := Match{Signal: sig, Depth: Depth(p)}
			if !ok || m.beats(best) {
				best, ok = m, true
			}
		}
	}
	consider(include, Include)
	consider(exclude, Exclude)
	return best, ok
}

// ShouldIncludeFile decides whether a file carrying tags passes the
// include/exclude patterns.
//
// Tags are grouped by hierarchy root and each group is reduced to its most
// specific match. Any group resolving to Exclude rejects the file. When
// include patterns were given, at least one tag must match one of them.
func ShouldIncludeFile(tags, include, exclude []string) bool {
	groups := make(map[string]Match)
	for _, tag := range tags {
		m, ok := MostSpecificMatch(tag, include, exclude)
		if !ok {
			continue
		}
		root := Root(tag)
		if cur, seen := groups[root]; !seen || m.beats(cur) {
			groups[root] = m
		}
	}

	for _, m := range groups {
		if m.Signal == Exclude {
			return false
		}
	}

	if len(include) > 0 && !AnyMatch(include, tags) {
		return false
	}
	return true
}

// AnyMatch reports whether any pattern matches any tag.
func AnyMatch(patterns, tags []string) bool {
	for _, p := range patterns {
		if Matches(p, tags) {
			return true
		}
	}
	return false
}

// AllMatch reports whether every pattern matches at least one tag.
func AllMatch(patterns, tags []string) bool {
	for _, p := range patterns {
		if !Matches(p, tags) {
			return false
		}
	}
	return true
}

// Matches reports whether pattern matches at least one of tags.
func Matches(pattern string, tags []string) bool {
	for _, t := range tags {
		if PatternMatches(pattern, t) {
			return true
		}
	}
	return false
}

// FilterByHierarchy returns the keys of files whose tags pass
// ShouldIncludeFile, preserving input order.
func FilterByHierarchy(files []string, tagsOf func(string) []string, include, exclude []string) []string {
	var out []string
	for _, f := range files {
		if ShouldIncludeFile(tagsOf(f), include, exclude) {
			out = append(out, f)
		}
	}
	return out
}
