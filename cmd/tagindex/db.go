// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Maintain the index database",
}

var dbReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the tag index from the file entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openStore()
		if err != nil {
			return err
		}
		defer idx.Close()

		summary, err := idx.Reindex()
		if err != nil {
			return err
		}
		fmt.Printf("Reindexed %d files, %d tags\n", summary.Files, summary.Tags)
		return idx.Flush()
	},
}

var dbVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the file and tag entries agree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openStore()
		if err != nil {
			return err
		}
		defer idx.Close()

		problems, err := idx.Verify()
		if err != nil {
			return err
		}
		if len(problems) == 0 {
			fmt.Println("Index is consistent.")
			return nil
		}
		for _, p := range problems {
			fmt.Println(p)
		}
		return fmt.Errorf("%d inconsistencies found: run 'tagindex db reindex'", len(problems))
	},
}

var dbCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove entries for files that no longer exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		idx, err := openStore()
		if err != nil {
			return err
		}
		defer idx.Close()

		files, err := idx.ListAllFiles()
		if err != nil {
			return err
		}
		var removed int
		for _, f := range files {
			if _, err := os.Stat(f); !errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if dryRun {
				fmt.Printf("missing %s\n", f)
				removed++
				continue
			}
			if _, err := idx.Remove(f); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", f)
			removed++
		}

		switch {
		case removed == 0:
			fmt.Println("No missing files. Database is clean.")
		case dryRun:
			fmt.Printf("\n%d missing files\n", removed)
		default:
			fmt.Printf("\n%d entries removed\n", removed)
		}
		return idx.Flush()
	},
}

var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry from the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to clear the index without --yes")
		}
		idx, err := openStore()
		if err != nil {
			return err
		}
		defer idx.Close()

		if err := idx.Clear(); err != nil {
			return err
		}
		fmt.Println("Index cleared.")
		return idx.Flush()
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openStore()
		if err != nil {
			return err
		}
		defer idx.Close()

		files, err := idx.Count()
		if err != nil {
			return err
		}
		tags, err := idx.ListAllTags()
		if err != nil {
			return err
		}
		fmt.Printf("data dir: %s\n", cfg.Store.DataDir)
		fmt.Printf("files:    %d\n", files)
		fmt.Printf("tags:     %d\n", len(tags))
		return nil
	},
}

var dbRmTagCmd = &cobra.Command{
	Use:   "rm-tag <tag>",
	Short: "Remove a tag from every file",
	Long: `Rm-tag strips a tag from every file carrying it. Files left with no
tags leave the index.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openStore()
		if err != nil {
			return err
		}
		defer idx.Close()

		n, err := idx.RemoveTagGlobally(args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Printf("Tag %s not found.\n", args[0])
			return nil
		}
		fmt.Printf("Removed %s from %d files\n", args[0], n)
		return idx.Flush()
	},
}

var dbRenameTagCmd = &cobra.Command{
	Use:   "rename-tag <old> <new>",
	Short: "Rename a tag on every file carrying it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRetag(cmd, []string{args[0]}, args[1])
	},
}

var dbMergeTagsCmd = &cobra.Command{
	Use:   "merge-tags <target> <source>...",
	Short: "Replace several tags with one",
	Long: `Merge-tags rewrites every source tag to the target tag. Files carrying
more than one source end up with a single copy of the target.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRetag(cmd, args[1:], args[0])
	},
}

func runRetag(cmd *cobra.Command, sources []string, target string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	if dryRun {
		files, err := idx.FindByAnyTag(sources)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("would retag %s\n", f)
		}
		fmt.Printf("\n%d files would change: %s -> %s\n", len(files), strings.Join(sources, ", "), target)
		return nil
	}

	var n int
	if len(sources) == 1 {
		n, err = idx.RenameTag(sources[0], target)
	} else {
		n, err = idx.MergeTags(sources, target)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("No files carry %s.\n", strings.Join(sources, ", "))
		return nil
	}
	fmt.Printf("Retagged %d files: %s -> %s\n", n, strings.Join(sources, ", "), target)
	return idx.Flush()
}

var dbCopyTagsCmd = &cobra.Command{
	Use:   "copy-tags <source-file>",
	Short: "Copy the tags of one file onto the files a search selects",
	Long: `Copy-tags adds the source file's tags to every file matched by the
search flags (-t, -f, -x, ...). --only limits which tags are copied and
--skip leaves tags out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		only, _ := cmd.Flags().GetStringSlice("only")
		skip, _ := cmd.Flags().GetStringSlice("skip")

		source, err := absPath(args[0])
		if err != nil {
			return err
		}
		params, err := searchParamsFromFlags(cmd, nil)
		if err != nil {
			return err
		}
		if len(params.Tags) == 0 && len(params.FilePatterns) == 0 && len(params.VirtualTags) == 0 {
			return fmt.Errorf("copy-tags needs target criteria: use -t, -f, or --vtag")
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
		targets, err := newComposer(idx, s).ApplySearchParams(params)
		if err != nil {
			return err
		}

		n, err := idx.CopyTags(source, targets, only, skip)
		if err != nil {
			return err
		}
		fmt.Printf("Copied tags from %s to %d files\n", source, n)
		return idx.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{dbRenameTagCmd, dbMergeTagsCmd} {
		c.Flags().Bool("dry-run", false, "list affected files without changing them")
	}
	addSearchFlags(dbCopyTagsCmd)
	dbCopyTagsCmd.Flags().StringSlice("only", nil, "copy only these tags")
	dbCopyTagsCmd.Flags().StringSlice("skip", nil, "never copy these tags")

	dbCleanupCmd.Flags().Bool("dry-run", false, "list missing files without removing them")
	dbClearCmd.Flags().Bool("yes", false, "confirm clearing the index")

	dbCmd.AddCommand(dbReindexCmd)
	dbCmd.AddCommand(dbVerifyCmd)
	dbCmd.AddCommand(dbCleanupCmd)
	dbCmd.AddCommand(dbClearCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbRmTagCmd)
	dbCmd.AddCommand(dbRenameTagCmd)
	dbCmd.AddCommand(dbMergeTagsCmd)
	dbCmd.AddCommand(dbCopyTagsCmd)

	rootCmd.AddCommand(dbCmd)
}
