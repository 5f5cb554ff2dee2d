// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tagindex/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find files by tag, path pattern, and exclusion",
	Long: `Search finds tagged files. A free-text query matches tag names as a
regular expression and file paths as *query*; it cannot be combined with
the structured flags.

Structured searches combine -t tags (all by default, --any-tag for any),
-f file globs (all by default, --any-file for any), and -x exclusions.
Hierarchical tags match their descendants (-t lang finds lang:rust) unless
--no-hierarchy is set.

--filter starts from a saved filter (see 'tagindex filter'); criteria given
on the command line are added to it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	params, err := searchParamsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	s, err := loadSchema()
	if err != nil {
		return err
	}

	files, err := newComposer(idx, s).ApplySearchParams(params)
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("filter"); name != "" {
		if err := filterManager().RecordUse(name); err != nil {
			logger.Warn("recording filter use", "filter", name, "error", err)
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if files == nil {
			files = []string{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}
	if len(files) == 0 {
		fmt.Println("No files found.")
		return nil
	}
	fmt.Println(strings.Join(files, "\n"))
	return nil
}

func searchParamsFromFlags(cmd *cobra.Command, args []string) (types.SearchParams, error) {
	tags := stringSlice(cmd, "tag")
	excludes := stringSlice(cmd, "exclude")
	patterns := stringSlice(cmd, "file")
	vtags := stringSlice(cmd, "vtag")
	anyTag, _ := cmd.Flags().GetBool("any-tag")
	anyFile, _ := cmd.Flags().GetBool("any-file")
	anyVirtual, _ := cmd.Flags().GetBool("any-vtag")
	regexTag, _ := cmd.Flags().GetBool("regex-tag")
	regexFile, _ := cmd.Flags().GetBool("regex-file")
	noHierarchy, _ := cmd.Flags().GetBool("no-hierarchy")

	tagMode, err := types.ParseSearchMode(cfg.Search.TagMode)
	if err != nil {
		return types.SearchParams{}, err
	}
	if anyTag {
		tagMode = types.ModeAny
	}

	params := types.SearchParams{
		Tags:         tags,
		TagMode:      tagMode,
		FilePatterns: patterns,
		FileMode:     modeFor(anyFile),
		ExcludeTags:  excludes,
		RegexTag:     regexTag,
		RegexFile:    regexFile,
		VirtualTags:  vtags,
		VirtualMode:  modeFor(anyVirtual),
		NoHierarchy:  noHierarchy || cfg.Search.NoHierarchy,
	}
	if len(args) > 0 {
		params.Query = args[0]
	}

	name, _ := cmd.Flags().GetString("filter")
	if name == "" {
		return params, nil
	}
	saved, err := filterManager().Get(name)
	if err != nil {
		return types.SearchParams{}, err
	}
	// Modes come from the saved filter unless set on the command line.
	if !anyTag {
		params.TagMode = ""
	}
	if !anyFile {
		params.FileMode = ""
	}
	if !anyVirtual {
		params.VirtualMode = ""
	}
	merged := saved.Criteria.Merge(params)
	if merged.TagMode == "" {
		merged.TagMode = tagMode
	}
	if merged.FileMode == "" {
		merged.FileMode = types.ModeAll
	}
	if merged.VirtualMode == "" {
		merged.VirtualMode = types.ModeAll
	}
	return merged, nil
}

// stringSlice returns the flag's values, or nil when it was not set.
func stringSlice(cmd *cobra.Command, name string) []string {
	v, _ := cmd.Flags().GetStringSlice(name)
	if len(v) == 0 {
		return nil
	}
	return v
}

func modeFor(matchAny bool) types.SearchMode {
	if matchAny {
		return types.ModeAny
	}
	return types.ModeAll
}

func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceP("tag", "t", nil, "tag to include (repeatable)")
	f.StringSliceP("exclude", "x", nil, "tag to exclude (repeatable)")
	f.StringSliceP("file", "f", nil, "file glob to match (repeatable)")
	f.StringSlice("vtag", nil, "virtual tag to match (repeatable)")
	f.Bool("any-tag", false, "match any tag instead of all")
	f.Bool("any-file", false, "match any file pattern instead of all")
	f.Bool("any-vtag", false, "match any virtual tag instead of all")
	f.Bool("regex-tag", false, "treat tags as regular expressions")
	f.Bool("regex-file", false, "treat file patterns as regular expressions")
	f.Bool("no-hierarchy", false, "match hierarchical tags exactly")
	f.String("filter", "", "start from the named saved filter")
	f.Bool("json", false, "output results as JSON")
}

func init() {
	addSearchFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
