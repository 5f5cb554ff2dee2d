// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index to YAML or JSON",
	Long: `Export writes every tagged file and its tags to stdout, or to the file
named by --output.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = idx.ExportYAML(w)
	case "json":
		err = idx.ExportJSON(w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", output)
	}
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tags from a YAML or JSON export",
	Long: `Import reads a file written by export and tags each listed file.
Entries whose files are missing are reported and skipped. Use - to read
from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	idx, err := openStore()
	if err != nil {
		return err
	}
	defer idx.Close()

	summary, err := idx.Import(r, os.Stdout)
	if err != nil {
		return err
	}
	if err := idx.Flush(); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d entries failed to import", summary.Failed)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
