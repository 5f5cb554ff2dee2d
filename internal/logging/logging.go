// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the slog logger used by the CLI, writing to stderr
// and optionally to a rotated log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/tagindex/pkg/types"
)

// Rotation defaults applied when the config leaves a field at zero.
const (
	defaultMaxSizeMB  = 16
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// New returns a logger configured by cfg and the writer it logs to.
// Callers close the returned io.Closer when done; it is a no-op unless a
// log file is configured.
func New(cfg types.LogConfig) (*slog.Logger, io.Closer, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg types.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      = stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
			MaxAge:     orDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		w = io.MultiWriter(stderr, file)
		closer = file
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q: use text or json", cfg.Format)
	}
	return slog.New(h), closer, nil
}

// ParseLevel converts a config value into a slog level. The empty string
// yields warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return slog.LevelWarn, nil
	case "warning":
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("parsing log level: %w", err)
	}
	return level, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
