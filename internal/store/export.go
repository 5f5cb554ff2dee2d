// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tagindex/pkg/types"
)

// ExportYAML writes every tracked pair to w as a YAML sequence.
func (s *Store) ExportYAML(w io.Writer) error {
	pairs, err := s.exportPairs()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(pairs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every tracked pair to w as an indented JSON array.
func (s *Store) ExportJSON(w io.Writer) error {
	pairs, err := s.exportPairs()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func (s *Store) exportPairs() ([]types.Pair, error) {
	pairs, err := s.ListAll()
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if pairs == nil {
		pairs = []types.Pair{}
	}
	return pairs, nil
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported int
	Updated  int
	Skipped  int
	Failed   int
}

// Total returns the number of pairs processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Updated + s.Skipped + s.Failed
}

// Import reads a YAML or JSON sequence of pairs from r and inserts each one,
// writing a progress line per pair to w. Pairs whose tags already match are
// skipped; pairs that cannot be inserted are counted as failed and do not
// stop the run. A corrupt index entry aborts the import with ErrCorrupt.
func (s *Store) Import(r io.Reader, w io.Writer) (ImportSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading import: %w", err)
	}
	// JSON is valid YAML, so one decoder handles both formats.
	var pairs []types.Pair
	if err := yaml.Unmarshal(data, &pairs); err != nil {
		return ImportSummary{}, fmt.Errorf("parsing import: %w", err)
	}

	var summary ImportSummary
	for _, p := range pairs {
		tags := types.NormalizeTags(p.Tags)
		existing, ok, err := s.GetTags(p.File)
		if errors.Is(err, ErrCorrupt) {
			return summary, fmt.Errorf("importing %s: %w", p.File, err)
		}
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", p.File, err)
			summary.Failed++
			continue
		}
		if (ok && slices.Equal(existing, tags)) || (!ok && len(tags) == 0) {
			fmt.Fprintf(w, "skipped  %s\n", p.File)
			summary.Skipped++
			continue
		}
		if err := s.InsertPair(types.Pair{File: p.File, Tags: tags}); err != nil {
			if errors.Is(err, ErrCorrupt) {
				return summary, fmt.Errorf("importing %s: %w", p.File, err)
			}
			fmt.Fprintf(w, "failed   %s: %v\n", p.File, err)
			summary.Failed++
			continue
		}
		if ok {
			fmt.Fprintf(w, "updated  %s (%d tags)\n", p.File, len(tags))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "imported %s (%d tags)\n", p.File, len(tags))
			summary.Imported++
		}
	}

	fmt.Fprintf(w, "\nimported: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Imported, summary.Updated, summary.Skipped, summary.Failed)
	s.logger.Debug("imported pairs", "total", summary.Total())
	return summary, nil
}
