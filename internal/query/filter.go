// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/gobwas/glob"

	"github.com/pdiddy/tagindex/internal/hierarchy"
	"github.com/pdiddy/tagindex/pkg/types"
)

// ErrInvalidPattern is returned when a glob or regular expression does not
// compile.
var ErrInvalidPattern = errors.New("invalid pattern")

type matcher interface {
	Match(s string) bool
}

type regexMatcher struct{ re *regexp.Regexp }

func (m regexMatcher) Match(s string) bool { return m.re.MatchString(s) }

func compilePatterns(patterns []string, useRegex bool) ([]matcher, error) {
	out := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		if useRegex {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%w: regex %q: %v", ErrInvalidPattern, p, err)
			}
			out = append(out, regexMatcher{re})
			continue
		}
		// No separators: * matches across path components.
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: glob %q: %v", ErrInvalidPattern, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// ByPatterns keeps the files matching the glob (or regex) patterns. With
// matchAll a file must match every pattern, otherwise at least one. Input
// order is preserved and no patterns keeps every file.
func ByPatterns(files, patterns []string, useRegex, matchAll bool) ([]string, error) {
	if len(patterns) == 0 {
		return files, nil
	}
	matchers, err := compilePatterns(patterns, useRegex)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range files {
		match := func(m matcher) bool { return m.Match(f) }
		var ok bool
		if matchAll {
			ok = !slices.ContainsFunc(matchers, func(m matcher) bool { return !match(m) })
		} else {
			ok = slices.ContainsFunc(matchers, match)
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// Tagged is anything that can be viewed as a file with tags.
type Tagged interface {
	FileTagPair() (file string, tags []string)
}

var _ Tagged = types.Pair{}

// ApplyFilter refines items in memory by the tag and exclude criteria of
// params, without consulting the index. With hierarchy enabled, include tags
// match by prefix at segment boundaries and excludes follow the
// most-specific-match rules; otherwise matching is exact.
func ApplyFilter[T Tagged](items []T, params types.SearchParams) []T {
	if len(params.Tags) == 0 && len(params.ExcludeTags) == 0 {
		return items
	}
	matchAll := params.TagMode != types.ModeAny

	var out []T
	for _, item := range items {
		_, tags := item.FileTagPair()
		if params.NoHierarchy {
			if !exactMatch(params.Tags, tags, matchAll) {
				continue
			}
			if slices.ContainsFunc(params.ExcludeTags, func(x string) bool { return slices.Contains(tags, x) }) {
				continue
			}
		} else {
			if len(params.Tags) > 0 {
				var ok bool
				if matchAll {
					ok = hierarchy.AllMatch(params.Tags, tags)
				} else {
					ok = hierarchy.AnyMatch(params.Tags, tags)
				}
				if !ok {
					continue
				}
			}
			if !hierarchy.ShouldIncludeFile(tags, params.Tags, params.ExcludeTags) {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func exactMatch(want, tags []string, matchAll bool) bool {
	if len(want) == 0 {
		return true
	}
	has := func(t string) bool { return slices.Contains(tags, t) }
	if matchAll {
		return !slices.ContainsFunc(want, func(t string) bool { return !has(t) })
	}
	return slices.ContainsFunc(want, has)
}
