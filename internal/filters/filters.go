// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filters persists named searches. Filters live in one YAML
// document:
//
//	filters:
//	  - name: rust-work
//	    description: Rust sources outside tests
//	    created: 2026-01-02T15:04:05Z
//	    last_used: 2026-01-02T15:04:05Z
//	    use_count: 3
//	    criteria:
//	      tags: [lang:rust]
//	      exclude_tags: [tests]
//
// Every mutating call loads the file, applies the change, and writes it back,
// keeping the previous version next to it with a .backup suffix.
package filters

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tagindex/pkg/types"
)

// maxNameLen bounds filter names.
const maxNameLen = 64

var (
	ErrNotFound        = errors.New("filter not found")
	ErrExists          = errors.New("filter already exists")
	ErrInvalidName     = errors.New("invalid filter name")
	ErrInvalidCriteria = errors.New("invalid filter criteria")
)

// Filter is a saved search with usage statistics.
type Filter struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Created     time.Time          `json:"created" yaml:"created"`
	LastUsed    time.Time          `json:"last_used" yaml:"last_used"`
	UseCount    int                `json:"use_count" yaml:"use_count"`
	Criteria    types.SearchParams `json:"criteria" yaml:"criteria"`
}

// Validate checks the name and the criteria.
func (f Filter) Validate() error {
	if err := ValidateName(f.Name); err != nil {
		return err
	}
	return validateCriteria(f.Criteria)
}

type document struct {
	Filters []Filter `yaml:"filters"`
}

// Manager reads and writes the filter file at one path.
type Manager struct {
	path string
	now  func() time.Time
}

// New returns a Manager for the filter file at path. The file is created on
// the first write.
func New(path string) *Manager {
	return &Manager{path: path, now: time.Now}
}

// Path returns the filter file location.
func (m *Manager) Path() string {
	return m.path
}

// Create saves a new filter.
func (m *Manager) Create(name, description string, criteria types.SearchParams) (Filter, error) {
	now := m.now().UTC().Truncate(time.Second)
	f := Filter{
		Name:        name,
		Description: description,
		Created:     now,
		LastUsed:    now,
		Criteria:    criteria,
	}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}

	filters, err := m.load()
	if err != nil {
		return Filter{}, err
	}
	if index(filters, name) >= 0 {
		return Filter{}, fmt.Errorf("%w: %s", ErrExists, name)
	}
	if err := m.save(append(filters, f)); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Get returns the named filter.
func (m *Manager) Get(name string) (Filter, error) {
	filters, err := m.load()
	if err != nil {
		return Filter{}, err
	}
	i := index(filters, name)
	if i < 0 {
		return Filter{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return filters[i], nil
}

// Update replaces the stored filter carrying f.Name.
func (m *Manager) Update(f Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	filters, err := m.load()
	if err != nil {
		return err
	}
	i := index(filters, f.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, f.Name)
	}
	filters[i] = f
	return m.save(filters)
}

// Delete removes the named filter and returns it.
func (m *Manager) Delete(name string) (Filter, error) {
	filters, err := m.load()
	if err != nil {
		return Filter{}, err
	}
	i := index(filters, name)
	if i < 0 {
		return Filter{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	f := filters[i]
	if err := m.save(slices.Delete(filters, i, i+1)); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Rename changes a filter's name. The new name must be free.
func (m *Manager) Rename(from, to string) error {
	if err := ValidateName(to); err != nil {
		return err
	}
	filters, err := m.load()
	if err != nil {
		return err
	}
	i := index(filters, from)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, from)
	}
	if index(filters, to) >= 0 {
		return fmt.Errorf("%w: %s", ErrExists, to)
	}
	filters[i].Name = to
	return m.save(filters)
}

// List returns every filter sorted by name.
func (m *Manager) List() ([]Filter, error) {
	filters, err := m.load()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(filters, func(a, b Filter) int { return strings.Compare(a.Name, b.Name) })
	return filters, nil
}

// RecordUse bumps the use count and last-used time of the named filter.
func (m *Manager) RecordUse(name string) error {
	filters, err := m.load()
	if err != nil {
		return err
	}
	i := index(filters, name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	filters[i].UseCount++
	filters[i].LastUsed = m.now().UTC().Truncate(time.Second)
	return m.save(filters)
}

// Export writes the named filters, or all of them when names is empty, to w
// in the filter file format.
func (m *Manager) Export(w io.Writer, names ...string) error {
	filters, err := m.load()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		picked := make([]Filter, 0, len(names))
		for _, name := range names {
			i := index(filters, name)
			if i < 0 {
				return fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			picked = append(picked, filters[i])
		}
		filters = picked
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Filters: filters}); err != nil {
		return fmt.Errorf("encoding filters: %w", err)
	}
	return enc.Close()
}

// ImportSummary counts the outcome of Import.
type ImportSummary struct {
	Imported int
	Skipped  int
}

// Import reads filters exported by Export. A filter whose name is taken
// replaces the stored one with overwrite, is skipped with skipExisting, and
// otherwise fails the whole import with ErrExists. Nothing is written unless
// every incoming filter is accepted.
func (m *Manager) Import(r io.Reader, overwrite, skipExisting bool) (ImportSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading filters: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ImportSummary{}, fmt.Errorf("parsing filters: %w", err)
	}

	filters, err := m.load()
	if err != nil {
		return ImportSummary{}, err
	}
	var summary ImportSummary
	for _, f := range doc.Filters {
		if err := f.Validate(); err != nil {
			return ImportSummary{}, fmt.Errorf("importing %s: %w", f.Name, err)
		}
		i := index(filters, f.Name)
		switch {
		case i < 0:
			filters = append(filters, f)
		case overwrite:
			filters[i] = f
		case skipExisting:
			summary.Skipped++
			continue
		default:
			return ImportSummary{}, fmt.Errorf("%w: %s", ErrExists, f.Name)
		}
		summary.Imported++
	}
	if err := m.save(filters); err != nil {
		return ImportSummary{}, err
	}
	return summary, nil
}

// ValidateName accepts 1 to 64 characters of letters, digits, '-' and '_'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return fmt.Errorf("%w: %q longer than %d characters", ErrInvalidName, name, maxNameLen)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return fmt.Errorf("%w: %q may only contain letters, digits, '-' and '_'", ErrInvalidName, name)
		}
	}
	return nil
}

// validateCriteria requires at least one criterion and compilable patterns.
func validateCriteria(p types.SearchParams) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	if p.Query == "" && len(p.Tags) == 0 && len(p.FilePatterns) == 0 && len(p.VirtualTags) == 0 {
		return fmt.Errorf("%w: needs a query, tag, file pattern, or virtual tag", ErrInvalidCriteria)
	}
	if p.Query != "" {
		if _, err := regexp.Compile(p.Query); err != nil {
			return fmt.Errorf("%w: query %q: %v", ErrInvalidCriteria, p.Query, err)
		}
	}
	if p.RegexTag {
		for _, t := range p.Tags {
			if _, err := regexp.Compile(t); err != nil {
				return fmt.Errorf("%w: tag regex %q: %v", ErrInvalidCriteria, t, err)
			}
		}
	}
	for _, fp := range p.FilePatterns {
		var err error
		if p.RegexFile {
			_, err = regexp.Compile(fp)
		} else {
			_, err = glob.Compile(fp)
		}
		if err != nil {
			return fmt.Errorf("%w: file pattern %q: %v", ErrInvalidCriteria, fp, err)
		}
	}
	return nil
}

func index(filters []Filter, name string) int {
	return slices.IndexFunc(filters, func(f Filter) bool { return f.Name == name })
}

// load reads the filter file. A missing file holds no filters.
func (m *Manager) load() ([]Filter, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading filters %s: %w", m.path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing filters %s: %w", m.path, err)
	}
	return doc.Filters, nil
}

func (m *Manager) save(filters []Filter) error {
	if m.path == "" {
		return fmt.Errorf("saving filters: %w", os.ErrNotExist)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating filter directory: %w", err)
	}
	if prev, err := os.ReadFile(m.path); err == nil {
		if err := os.WriteFile(m.path+".backup", prev, 0o644); err != nil {
			return fmt.Errorf("backing up filters: %w", err)
		}
	}

	if filters == nil {
		filters = []Filter{}
	}
	data, err := yaml.Marshal(document{Filters: filters})
	if err != nil {
		return fmt.Errorf("marshaling filters: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("writing filters %s: %w", m.path, err)
	}
	return nil
}
