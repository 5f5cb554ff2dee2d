// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines data structures shared by the tagindex store, the
// query engine, and the CLI.
package types

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// SearchMode selects how multiple criteria of one kind combine.
type SearchMode string

const (
	// ModeAll requires every criterion to match (AND).
	ModeAll SearchMode = "all"
	// ModeAny requires at least one criterion to match (OR).
	ModeAny SearchMode = "any"
)

// ParseSearchMode converts a flag or config value into a SearchMode.
// The empty string yields ModeAll.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "and":
		return ModeAll, nil
	case "any", "or":
		return ModeAny, nil
	default:
		return "", fmt.Errorf("unknown search mode %q: use all or any", s)
	}
}

// ErrConflictingCriteria is returned by SearchParams.Validate when a
// free-text query is combined with structured criteria.
var ErrConflictingCriteria = errors.New("free-text query cannot be combined with other criteria")

// SearchParams is the structured search request handed to the query engine.
type SearchParams struct {
	// Query is a free-text term matched as a regex against tag names and as
	// a *Query* glob against file paths. Mutually exclusive with the
	// structured criteria below.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`

	// Tags are include criteria combined according to TagMode.
	Tags    []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	TagMode SearchMode `json:"tag_mode,omitempty" yaml:"tag_mode,omitempty"`

	// FilePatterns are glob (or regex, see RegexFile) patterns over file paths.
	FilePatterns []string   `json:"file_patterns,omitempty" yaml:"file_patterns,omitempty"`
	FileMode     SearchMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`

	// ExcludeTags drop matching files from the result.
	ExcludeTags []string `json:"exclude_tags,omitempty" yaml:"exclude_tags,omitempty"`

	// RegexTag treats Tags as regular expressions over tag names.
	RegexTag bool `json:"regex_tag,omitempty" yaml:"regex_tag,omitempty"`

	// RegexFile treats FilePatterns as regular expressions instead of globs.
	RegexFile bool `json:"regex_file,omitempty" yaml:"regex_file,omitempty"`

	// VirtualTags are computed criteria resolved by a VirtualEvaluator.
	VirtualTags []string   `json:"virtual_tags,omitempty" yaml:"virtual_tags,omitempty"`
	VirtualMode SearchMode `json:"virtual_mode,omitempty" yaml:"virtual_mode,omitempty"`

	// NoHierarchy disables colon-delimited prefix matching.
	NoHierarchy bool `json:"no_hierarchy,omitempty" yaml:"no_hierarchy,omitempty"`
}

// Validate rejects a free-text query mixed with structured criteria.
func (p SearchParams) Validate() error {
	if p.Query == "" {
		return nil
	}
	if len(p.Tags) > 0 || len(p.FilePatterns) > 0 || len(p.ExcludeTags) > 0 || len(p.VirtualTags) > 0 {
		return ErrConflictingCriteria
	}
	return nil
}

// Merge returns p extended by o. List criteria are appended without
// duplicates, flags are ORed, and o's query and modes win when set.
func (p SearchParams) Merge(o SearchParams) SearchParams {
	out := p
	out.Tags = appendUnique(p.Tags, o.Tags)
	out.FilePatterns = appendUnique(p.FilePatterns, o.FilePatterns)
	out.ExcludeTags = appendUnique(p.ExcludeTags, o.ExcludeTags)
	out.VirtualTags = appendUnique(p.VirtualTags, o.VirtualTags)
	out.RegexTag = p.RegexTag || o.RegexTag
	out.RegexFile = p.RegexFile || o.RegexFile
	out.NoHierarchy = p.NoHierarchy || o.NoHierarchy
	if o.Query != "" {
		out.Query = o.Query
	}
	if o.TagMode != "" {
		out.TagMode = o.TagMode
	}
	if o.FileMode != "" {
		out.FileMode = o.FileMode
	}
	if o.VirtualMode != "" {
		out.VirtualMode = o.VirtualMode
	}
	return out
}

func appendUnique(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
