// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage tag aliases",
	Long: `Alias manages the alias schema, which maps alternate tag names onto a
canonical tag. Searches for any synonym find files tagged with the others.
The schema is saved after every change.`,
}

var aliasAddCmd = &cobra.Command{
	Use:   "add <alias> <canonical>",
	Short: "Map an alias onto a canonical tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		if err := s.AddAlias(args[0], args[1]); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Printf("Added alias %s -> %s\n", args[0], args[1])
		return nil
	},
}

var aliasRemoveCmd = &cobra.Command{
	Use:     "remove <alias>",
	Aliases: []string{"rm"},
	Short:   "Remove an alias",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		if err := s.RemoveAlias(args[0]); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		fmt.Printf("Removed alias %s\n", args[0])
		return nil
	},
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every alias",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		aliases := s.ListAliases()
		if len(aliases) == 0 {
			fmt.Println("No aliases defined.")
			return nil
		}
		for _, a := range aliases {
			fmt.Printf("%-24s -> %s\n", a.Alias, a.Canonical)
		}
		return nil
	},
}

var aliasShowCmd = &cobra.Command{
	Use:   "show <tag>",
	Short: "Show the canonical form and synonyms of a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSchema()
		if err != nil {
			return err
		}
		fmt.Printf("canonical: %s\n", s.Canonicalize(args[0]))
		fmt.Printf("synonyms:  %s\n", strings.Join(s.ExpandSynonyms(args[0]), ", "))
		fmt.Printf("expanded:  %s\n", strings.Join(s.ExpandWithHierarchy(args[0]), ", "))
		return nil
	},
}

func init() {
	aliasCmd.AddCommand(aliasAddCmd)
	aliasCmd.AddCommand(aliasRemoveCmd)
	aliasCmd.AddCommand(aliasListCmd)
	aliasCmd.AddCommand(aliasShowCmd)

	rootCmd.AddCommand(aliasCmd)
}
