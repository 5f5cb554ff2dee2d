// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query composes tag, file-pattern, exclude, and virtual-tag
// criteria into a sorted list of matching files.
//
// Lookups against the index are exact. When hierarchy is enabled the
// Composer widens each include tag before the lookup to its synonyms and
// every stored descendant (lang matches lang:rust), and applies the
// most-specific-match exclude rules afterwards. It never widens to
// ancestors. ApplyFilter implements the same prefix semantics in memory.
package query

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"

	"github.com/pdiddy/tagindex/internal/hierarchy"
	"github.com/pdiddy/tagindex/internal/schema"
	"github.com/pdiddy/tagindex/pkg/types"
)

// Index is the read side of the tag store used by the Composer.
type Index interface {
	GetTags(file string) ([]string, bool, error)
	FindByAllTags(tags []string) ([]string, error)
	FindByAnyTag(tags []string) ([]string, error)
	FindByTagRegex(pattern string) ([]string, error)
	ListAllFiles() ([]string, error)
	ListTagsWithPrefix(prefix string) ([]string, error)
}

// VirtualEvaluator decides computed tags such as size or age conditions.
type VirtualEvaluator interface {
	Matches(file, vtag string) (bool, error)
}

// Composer runs searches against an Index.
type Composer struct {
	index   Index
	schema  *schema.Schema
	virtual VirtualEvaluator
	logger  *slog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithSchema canonicalizes and expands query tags through s.
func WithSchema(s *schema.Schema) Option {
	return func(c *Composer) { c.schema = s }
}

// WithVirtualEvaluator resolves virtual tags through v. Without one, virtual
// tags are looked up as ordinary tags.
func WithVirtualEvaluator(v VirtualEvaluator) Option {
	return func(c *Composer) { c.virtual = v }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Composer over index.
func New(index Index, opts ...Option) *Composer {
	c := &Composer{
		index:  index,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApplySearchParams returns the sorted, deduplicated files matching params.
func (c *Composer) ApplySearchParams(params types.SearchParams) ([]string, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Query != "" {
		return c.freeText(params.Query)
	}

	files, include, err := c.candidates(params)
	if err != nil {
		return nil, err
	}

	files, err = ByPatterns(files, params.FilePatterns, params.RegexFile, params.FileMode != types.ModeAny)
	if err != nil {
		return nil, err
	}

	if len(params.ExcludeTags) > 0 {
		files, err = c.exclude(files, include, params)
		if err != nil {
			return nil, err
		}
	}

	if len(params.VirtualTags) > 0 {
		files, err = c.applyVirtual(files, params.VirtualTags, params.VirtualMode != types.ModeAny)
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// freeText unions files with a tag matching query as a regex and files
// whose path matches the glob *query*.
func (c *Composer) freeText(q string) ([]string, error) {
	if _, err := regexp.Compile(q); err != nil {
		return nil, fmt.Errorf("%w: regex %q: %v", ErrInvalidPattern, q, err)
	}
	byTag, err := c.index.FindByTagRegex(q)
	if err != nil {
		return nil, err
	}
	all, err := c.index.ListAllFiles()
	if err != nil {
		return nil, err
	}
	byName, err := ByPatterns(all, []string{"*" + q + "*"}, false, false)
	if err != nil {
		return nil, err
	}
	return sortedUnion(byTag, byName), nil
}

// candidates resolves the include tags to a sorted file list. It also
// returns the include patterns used for hierarchical exclusion.
func (c *Composer) candidates(params types.SearchParams) ([]string, []string, error) {
	if len(params.Tags) == 0 {
		files, err := c.index.ListAllFiles()
		return files, nil, err
	}
	matchAll := params.TagMode != types.ModeAny

	if params.RegexTag {
		sets := make([][]string, 0, len(params.Tags))
		for _, p := range params.Tags {
			if _, err := regexp.Compile(p); err != nil {
				return nil, nil, fmt.Errorf("%w: regex %q: %v", ErrInvalidPattern, p, err)
			}
			files, err := c.index.FindByTagRegex(p)
			if err != nil {
				return nil, nil, err
			}
			sets = append(sets, files)
		}
		return combine(sets, matchAll), nil, nil
	}

	var include []string
	sets := make([][]string, 0, len(params.Tags))
	for _, tag := range params.Tags {
		group, err := c.expand(tag, !params.NoHierarchy)
		if err != nil {
			return nil, nil, err
		}
		include = append(include, c.synonyms(tag)...)
		files, err := c.index.FindByAnyTag(group)
		if err != nil {
			return nil, nil, err
		}
		sets = append(sets, files)
	}
	return combine(sets, matchAll), types.NormalizeTags(include), nil
}

// synonyms returns tag, its canonical form, and the aliases of the
// canonical form.
func (c *Composer) synonyms(tag string) []string {
	if c.schema == nil {
		return []string{tag}
	}
	return types.NormalizeTags(append([]string{tag}, c.schema.ExpandSynonyms(tag)...))
}

// expand returns the stored tags a query tag stands for: its synonyms and,
// with hierarchy, every stored descendant of each synonym.
func (c *Composer) expand(tag string, withHierarchy bool) ([]string, error) {
	group := c.synonyms(tag)
	if withHierarchy {
		for _, prefix := range c.prefixes(group) {
			descendants, err := c.index.ListTagsWithPrefix(prefix)
			if err != nil {
				return nil, err
			}
			group = append(group, descendants...)
		}
		group = types.NormalizeTags(group)
	}
	c.logger.Debug("expanded tag", "tag", tag, "group", group)
	return group, nil
}

// prefixes returns the descendant scan prefixes for tags: each tag as
// written and, with a schema, its canonical form.
func (c *Composer) prefixes(tags []string) []string {
	out := make([]string, 0, 2*len(tags))
	for _, t := range tags {
		out = append(out, t+hierarchy.Delimiter)
		if c.schema != nil {
			out = append(out, c.schema.HierarchyPrefix(t))
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (c *Composer) exclude(files, include []string, params types.SearchParams) ([]string, error) {
	var excl []string
	for _, x := range params.ExcludeTags {
		excl = append(excl, c.synonyms(x)...)
	}
	excl = types.NormalizeTags(excl)

	out := files[:0:0]
	for _, f := range files {
		tags, ok, err := c.index.GetTags(f)
		if err != nil {
			return nil, err
		}
		switch {
		case !ok:
			// Files with no recorded tags pass.
		case params.NoHierarchy:
			if slices.ContainsFunc(tags, func(t string) bool { return slices.Contains(excl, t) }) {
				continue
			}
		default:
			if !hierarchy.ShouldIncludeFile(tags, include, excl) {
				continue
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func (c *Composer) applyVirtual(files, vtags []string, matchAll bool) ([]string, error) {
	if c.virtual == nil {
		var (
			matched []string
			err     error
		)
		if matchAll {
			matched, err = c.index.FindByAllTags(vtags)
		} else {
			matched, err = c.index.FindByAnyTag(vtags)
		}
		if err != nil {
			return nil, err
		}
		return slices.DeleteFunc(files, func(f string) bool {
			_, found := slices.BinarySearch(matched, f)
			return !found
		}), nil
	}

	var out []string
	for _, f := range files {
		hits := 0
		for _, v := range vtags {
			ok, err := c.virtual.Matches(f, v)
			if err != nil {
				return nil, fmt.Errorf("evaluating virtual tag %s on %s: %w", v, f, err)
			}
			if ok {
				hits++
			}
		}
		if (matchAll && hits == len(vtags)) || (!matchAll && hits > 0) {
			out = append(out, f)
		}
	}
	return out, nil
}

// combine intersects (matchAll) or unions the sorted sets.
func combine(sets [][]string, matchAll bool) []string {
	if !matchAll {
		return sortedUnion(sets...)
	}
	if len(sets) == 0 {
		return nil
	}
	out := sets[0]
	for _, s := range sets[1:] {
		out = slices.DeleteFunc(slices.Clone(out), func(f string) bool {
			_, found := slices.BinarySearch(s, f)
			return !found
		})
	}
	return out
}

func sortedUnion(sets ...[]string) []string {
	var out []string
	for _, s := range sets {
		out = append(out, s...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
