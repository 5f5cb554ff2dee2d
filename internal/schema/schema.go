// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema manages tag aliases (synonyms) and resolves tags to their
// canonical form, segment by segment for hierarchical tags.
//
// The schema is persisted as a YAML document:
//
//	aliases:
//	  js: javascript
//	  py: lang:python
//
// Callers own the lifecycle: Load once, pass the *Schema to whatever needs
// it, and call Save after mutating it.
package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tagindex/internal/hierarchy"
)

var (
	ErrAliasExists   = errors.New("alias already exists")
	ErrCircularAlias = errors.New("circular alias")
	ErrInvalidTag    = errors.New("invalid tag")
	ErrTagNotFound   = errors.New("tag not found in schema")
)

// AliasExistsError reports an alias already mapped to a different canonical
// tag. It matches ErrAliasExists with errors.Is.
type AliasExistsError struct {
	Alias    string
	Existing string
}

func (e *AliasExistsError) Error() string {
	return fmt.Sprintf("alias %q already exists for %q", e.Alias, e.Existing)
}

func (e *AliasExistsError) Is(target error) bool {
	return target == ErrAliasExists
}

// Alias is one alias -> canonical mapping.
type Alias struct {
	Alias     string `json:"alias" yaml:"alias"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

// Schema maps aliases to canonical tags and keeps the reverse mapping.
type Schema struct {
	aliases map[string]string
	reverse map[string]map[string]struct{}
	path    string
}

// document is the on-disk YAML layout.
type document struct {
	Aliases map[string]string `yaml:"aliases"`
}

// New returns an empty schema with no backing file.
func New() *Schema {
	return &Schema{
		aliases: make(map[string]string),
		reverse: make(map[string]map[string]struct{}),
	}
}

// Load reads the schema from path. A missing file yields an empty schema
// bound to path so that a later Save creates it.
func Load(path string) (*Schema, error) {
	s := New()
	s.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	// Sorted so that a rejected entry is reported deterministically.
	aliases := make([]string, 0, len(doc.Aliases))
	for a := range doc.Aliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	for _, a := range aliases {
		if err := s.AddAlias(a, doc.Aliases[a]); err != nil {
			return nil, fmt.Errorf("loading schema %s: %w", path, err)
		}
	}
	return s, nil
}

// Path returns the file the schema is bound to, or "".
func (s *Schema) Path() string {
	return s.path
}

// Save writes the schema to its bound path, creating parent directories.
func (s *Schema) Save() error {
	if s.path == "" {
		return fmt.Errorf("saving schema: %w", os.ErrNotExist)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating schema directory: %w", err)
	}

	data, err := yaml.Marshal(document{Aliases: s.aliases})
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing schema %s: %w", s.path, err)
	}
	return nil
}

// AddAlias maps alias to canonical. The alias may not contain the hierarchy
// delimiter; the canonical tag may. Re-adding an identical mapping is a
// no-op.
func (s *Schema) AddAlias(alias, canonical string) error {
	if alias == "" || canonical == "" {
		return fmt.Errorf("%w: alias and canonical must be non-empty", ErrInvalidTag)
	}
	if strings.Contains(alias, hierarchy.Delimiter) {
		return fmt.Errorf("%w: alias %q contains reserved delimiter %q",
			ErrInvalidTag, alias, hierarchy.Delimiter)
	}

	if existing, ok := s.aliases[alias]; ok {
		if existing != canonical {
			return &AliasExistsError{Alias: alias, Existing: existing}
		}
		return nil
	}

	if s.wouldCycle(alias, canonical) {
		return fmt.Errorf("%w: adding %q -> %q", ErrCircularAlias, alias, canonical)
	}

	s.aliases[alias] = canonical
	set, ok := s.reverse[canonical]
	if !ok {
		set = make(map[string]struct{})
		s.reverse[canonical] = set
	}
	set[alias] = struct{}{}
	return nil
}

// RemoveAlias deletes alias from the schema.
func (s *Schema) RemoveAlias(alias string) error {
	canonical, ok := s.aliases[alias]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTagNotFound, alias)
	}
	delete(s.aliases, alias)

	if set, ok := s.reverse[canonical]; ok {
		delete(set, alias)
		if len(set) == 0 {
			delete(s.reverse, canonical)
		}
	}
	return nil
}

// Canonicalize resolves tag through the alias map. Hierarchical tags are
// resolved one segment at a time; unknown segments pass through.
func (s *Schema) Canonicalize(tag string) string {
	if !strings.Contains(tag, hierarchy.Delimiter) {
		return s.lookup(tag)
	}
	segments := strings.Split(tag, hierarchy.Delimiter)
	for i, seg := range segments {
		segments[i] = s.lookup(seg)
	}
	return strings.Join(segments, hierarchy.Delimiter)
}

func (s *Schema) lookup(tag string) string {
	if c, ok := s.aliases[tag]; ok {
		return c
	}
	return tag
}

// Aliases returns the sorted aliases that map directly to canonical.
func (s *Schema) Aliases(canonical string) []string {
	set := s.reverse[canonical]
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ListAliases returns every mapping sorted by alias.
func (s *Schema) ListAliases() []Alias {
	out := make([]Alias, 0, len(s.aliases))
	for a, c := range s.aliases {
		out = append(out, Alias{Alias: a, Canonical: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Alias != out[j].Alias {
			return out[i].Alias < out[j].Alias
		}
		return out[i].Canonical < out[j].Canonical
	})
	return out
}

// Len returns the number of aliases.
func (s *Schema) Len() int {
	return len(s.aliases)
}

// ExpandSynonyms returns the canonical form of tag followed by the sorted
// aliases pointing at it.
func (s *Schema) ExpandSynonyms(tag string) []string {
	canonical := s.Canonicalize(tag)
	return append([]string{canonical}, s.Aliases(canonical)...)
}

// ExpandWithHierarchy returns, as a sorted set, the canonical form of tag
// and its ancestors, the original tag and its ancestors, and the synonyms of
// every canonical segment.
func (s *Schema) ExpandWithHierarchy(tag string) []string {
	set := make(map[string]struct{})
	add := func(t string) {
		set[t] = struct{}{}
		for _, a := range hierarchy.Ancestors(t) {
			set[a] = struct{}{}
		}
	}

	canonical := s.Canonicalize(tag)
	add(canonical)
	if tag != canonical {
		add(tag)
	}
	for _, seg := range strings.Split(canonical, hierarchy.Delimiter) {
		for _, syn := range s.ExpandSynonyms(seg) {
			set[syn] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HierarchyPrefix returns the canonical form of tag followed by the
// delimiter, suitable for prefix scans of descendant tags.
func (s *Schema) HierarchyPrefix(tag string) string {
	return s.Canonicalize(tag) + hierarchy.Delimiter
}

// wouldCycle follows the alias chain starting at canonical and reports
// whether it reaches alias or revisits a node.
func (s *Schema) wouldCycle(alias, canonical string) bool {
	if alias == canonical {
		return true
	}
	visited := make(map[string]struct{})
	current := canonical
	for {
		next, ok := s.aliases[current]
		if !ok {
			return false
		}
		if next == alias {
			return true
		}
		if _, seen := visited[current]; seen {
			return true
		}
		visited[current] = struct{}{}
		current = next
	}
}
