// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tagindex/internal/schema"
)

// --- tag ---

var tagCmd = &cobra.Command{
	Use:   "tag <file> <tag>...",
	Short: "Add tags to a file",
	Long: `Tag adds tags to a file, keeping the tags it already has. Tags are
canonicalized through the alias schema unless --no-canonicalize is set.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTag,
}

func runTag(cmd *cobra.Command, args []string) error {
	file, tags, err := fileAndTags(cmd, args)
	if err != nil {
		return err
	}

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.AddTags(file, tags); err != nil {
		return err
	}
	fmt.Printf("Tagged %s: %s\n", file, strings.Join(tags, ", "))
	return nil
}

// --- set ---

var setCmd = &cobra.Command{
	Use:   "set <file> [tag]...",
	Short: "Replace the tags of a file",
	Long: `Set replaces the file's tag set. Giving no tags removes the file from
the index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	file, tags, err := fileAndTags(cmd, args)
	if err != nil {
		return err
	}

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Insert(file, tags); err != nil {
		return err
	}
	if len(tags) == 0 {
		fmt.Printf("Removed %s\n", file)
		return nil
	}
	fmt.Printf("Set %s: %s\n", file, strings.Join(tags, ", "))
	return nil
}

// --- untag ---

var untagCmd = &cobra.Command{
	Use:   "untag <file> [tag]...",
	Short: "Remove tags from a file",
	Long: `Untag removes the given tags from a file. With --all every tag is
removed and the file leaves the index. The file need not exist on disk.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUntag,
}

func runUntag(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) < 2 {
		return fmt.Errorf("tags required: provide tags to remove or use --all")
	}

	file, tags, err := fileAndTags(cmd, args)
	if err != nil {
		return err
	}

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	if all {
		found, err := idx.Remove(file)
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("%s is not tagged\n", file)
			return nil
		}
		fmt.Printf("Removed %s\n", file)
		return nil
	}

	if err := idx.RemoveTags(file, tags); err != nil {
		return err
	}
	fmt.Printf("Untagged %s: %s\n", file, strings.Join(tags, ", "))
	return nil
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the tags of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	file, err := absPath(args[0])
	if err != nil {
		return err
	}

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	pair, ok, err := idx.GetPair(file)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is not tagged", file)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pair)
	}
	fmt.Println(pair.File)
	for _, t := range pair.Tags {
		fmt.Printf("  %s\n", t)
	}
	return nil
}

// --- shared helpers ---

// fileAndTags resolves args[0] to an absolute path and canonicalizes the
// remaining args as tags.
func fileAndTags(cmd *cobra.Command, args []string) (string, []string, error) {
	file, err := absPath(args[0])
	if err != nil {
		return "", nil, err
	}
	tags := args[1:]

	noCanon, _ := cmd.Flags().GetBool("no-canonicalize")
	if noCanon || len(tags) == 0 {
		return file, tags, nil
	}
	s, err := loadSchema()
	if err != nil {
		return "", nil, err
	}
	return file, canonicalizeAll(s, tags), nil
}

func canonicalizeAll(s *schema.Schema, tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = s.Canonicalize(t)
	}
	return out
}

func init() {
	for _, c := range []*cobra.Command{tagCmd, setCmd, untagCmd} {
		c.Flags().Bool("no-canonicalize", false, "store tags as given instead of resolving aliases")
	}
	untagCmd.Flags().Bool("all", false, "remove every tag and drop the file from the index")
	showCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(untagCmd)
	rootCmd.AddCommand(showCmd)
}
