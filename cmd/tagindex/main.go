// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tagindex CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tagindex/internal/filters"
	"github.com/pdiddy/tagindex/internal/logging"
	"github.com/pdiddy/tagindex/internal/query"
	"github.com/pdiddy/tagindex/internal/schema"
	"github.com/pdiddy/tagindex/internal/store"
	"github.com/pdiddy/tagindex/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is decoded from viper before every command runs.
	cfg types.Config

	logger    *slog.Logger
	logCloser io.Closer
)

// rootCmd is the base command for the tagindex CLI.
var rootCmd = &cobra.Command{
	Use:   "tagindex",
	Short: "Tag files and query them by tag, hierarchy, and path pattern",
	Long: `tagindex keeps a local index of files and the free-form tags attached to
them. Tags may be hierarchical (lang:rust:async) and may have aliases
(js -> javascript). Searches combine tag criteria, file globs or regexes,
and exclusions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding config: %w", err)
		}
		l, closer, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger, logCloser = l, closer
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Info("using config file", "path", used)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	home, _ := os.UserHomeDir()
	defaultData := filepath.Join(home, ".local", "share", "tagindex")
	defaultSchema := filepath.Join(home, ".config", "tagindex", "schema.yaml")
	defaultFilters := filepath.Join(home, ".config", "tagindex", "filters.yaml")

	viper.SetDefault("store.data_dir", defaultData)
	viper.SetDefault("schema.path", defaultSchema)
	viper.SetDefault("filters.path", defaultFilters)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size_mb", 16)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age_days", 28)
	viper.SetDefault("log.compress", false)
	viper.SetDefault("search.no_hierarchy", false)
	viper.SetDefault("search.tag_mode", "all")

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./tagindex.yaml or ~/.config/tagindex/tagindex.yaml)")
	flags.String("db-dir", defaultData, "directory holding the index database")
	flags.String("schema", defaultSchema, "alias schema file")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("store.data_dir", flags.Lookup("db-dir"))
	_ = viper.BindPFlag("schema.path", flags.Lookup("schema"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tagindex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tagindex"))
		}
	}

	viper.SetEnvPrefix("TAGINDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Reading config file:", err)
	}
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	return store.Open(cfg.Store, store.WithLogger(logger))
}

func loadSchema() (*schema.Schema, error) {
	return schema.Load(cfg.Schema.Path)
}

func filterManager() *filters.Manager {
	return filters.New(cfg.Filters.Path)
}

func newComposer(idx *store.Store, s *schema.Schema) *query.Composer {
	return query.New(idx, query.WithSchema(s), query.WithLogger(logger))
}

// absPath resolves file to an absolute path with symlinks evaluated when
// the file exists.
func absPath(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", file, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
