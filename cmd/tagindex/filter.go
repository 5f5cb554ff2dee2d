// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tagindex/internal/filters"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage saved search filters",
	Long: `Filter manages named searches. Save one with the same flags search
takes, then run it with 'tagindex search --filter <name>'.`,
}

var filterSaveCmd = &cobra.Command{
	Use:   "save <name> [query]",
	Short: "Save search criteria under a name",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		force, _ := cmd.Flags().GetBool("force")

		params, err := searchParamsFromFlags(cmd, args[1:])
		if err != nil {
			return err
		}

		m := filterManager()
		_, err = m.Create(args[0], description, params)
		if errors.Is(err, filters.ErrExists) && force {
			existing, getErr := m.Get(args[0])
			if getErr != nil {
				return getErr
			}
			existing.Description = description
			existing.Criteria = params
			err = m.Update(existing)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Saved filter %s\n", args[0])
		return nil
	},
}

var filterListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved filters",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := filterManager().List()
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			if list == nil {
				list = []filters.Filter{}
			}
			return writeJSON(os.Stdout, list)
		}
		if len(list) == 0 {
			fmt.Println("No saved filters.")
			return nil
		}
		for _, f := range list {
			fmt.Printf("%-24s %4d uses  last %s  %s\n",
				f.Name, f.UseCount, f.LastUsed.Format("2006-01-02"), f.Description)
		}
		return nil
	},
}

var filterShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filterManager().Get(args[0])
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, f)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encoding filter: %w", err)
		}
		return enc.Close()
	},
}

var filterRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved filter",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := filterManager().Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed filter %s\n", args[0])
		return nil
	},
}

var filterRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a saved filter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := filterManager().Rename(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed filter %s -> %s\n", args[0], args[1])
		return nil
	},
}

var filterExportCmd = &cobra.Command{
	Use:   "export [name...]",
	Short: "Export saved filters as YAML",
	Long: `Export writes the named filters, or every filter when none are named,
to stdout or to the file given by --output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}
		if err := filterManager().Export(w, args...); err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
		}
		return nil
	},
}

var filterImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import filters written by filter export",
	Long: `Import adds the filters in a file written by 'filter export'. A name
that is already taken fails the import unless --overwrite or
--skip-existing is given. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		skipExisting, _ := cmd.Flags().GetBool("skip-existing")

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			r = f
		}

		summary, err := filterManager().Import(r, overwrite, skipExisting)
		if err != nil {
			return err
		}
		fmt.Printf("imported: %d, skipped: %d\n", summary.Imported, summary.Skipped)
		return nil
	},
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", strings.TrimSpace(string(data)))
	return err
}

func init() {
	addSearchFlags(filterSaveCmd)
	filterSaveCmd.Flags().StringP("description", "d", "", "describe what the filter finds")
	filterSaveCmd.Flags().Bool("force", false, "replace an existing filter of the same name")
	filterListCmd.Flags().Bool("json", false, "output as JSON")
	filterShowCmd.Flags().Bool("json", false, "output as JSON")
	filterExportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	filterImportCmd.Flags().Bool("overwrite", false, "replace filters whose names are taken")
	filterImportCmd.Flags().Bool("skip-existing", false, "keep filters whose names are taken")

	filterCmd.AddCommand(filterSaveCmd)
	filterCmd.AddCommand(filterListCmd)
	filterCmd.AddCommand(filterShowCmd)
	filterCmd.AddCommand(filterRemoveCmd)
	filterCmd.AddCommand(filterRenameCmd)
	filterCmd.AddCommand(filterExportCmd)
	filterCmd.AddCommand(filterImportCmd)

	rootCmd.AddCommand(filterCmd)
}
