// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag in the index",
	Long: `Tags lists the tags present in the index. With --prefix only the
descendants of a hierarchical tag are listed; the prefix is resolved
through the alias schema.`,
	Args: cobra.NoArgs,
	RunE: runTags,
}

func runTags(cmd *cobra.Command, args []string) error {
	prefix, _ := cmd.Flags().GetString("prefix")
	counts, _ := cmd.Flags().GetBool("counts")

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	var tags []string
	if prefix != "" {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		tags, err = idx.ListTagsWithPrefix(s.HierarchyPrefix(prefix))
		if err != nil {
			return err
		}
	} else {
		tags, err = idx.ListAllTags()
		if err != nil {
			return err
		}
	}

	if len(tags) == 0 {
		fmt.Println("No tags found.")
		return nil
	}
	for _, t := range tags {
		if !counts {
			fmt.Println(t)
			continue
		}
		files, err := idx.FindByTag(t)
		if err != nil {
			return err
		}
		fmt.Printf("%-40s  %d\n", t, len(files))
	}
	return nil
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List every tagged file",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	pairs, err := idx.ListAll()
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	}
	for _, p := range pairs {
		fmt.Printf("%s  %v\n", p.File, p.Tags)
	}
	fmt.Fprintf(os.Stdout, "\n%d files\n", len(pairs))
	return nil
}

func init() {
	tagsCmd.Flags().String("prefix", "", "list only descendants of this hierarchical tag")
	tagsCmd.Flags().Bool("counts", false, "show the number of files per tag")
	filesCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(filesCmd)
}
