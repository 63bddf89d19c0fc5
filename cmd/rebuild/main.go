// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Command rebuild refits the collaborative model from the whole event log
// and publishes a new snapshot.
//
// Usage:
//
//	rebuild [-config path] [-init] [-import playlists.csv]
//
// -init creates the catalog and event tables. -import appends a
// playlist_id,track_id dataset to the event log before rebuilding.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cadence/internal/app"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/interactions"
	"github.com/tomtom215/cadence/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if err := execute(ctx, args, stderr); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("rebuild", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	initSchema := fs.Bool("init", false, "create catalog and event tables")
	importPath := fs.String("import", "", "playlist_id,track_id CSV to append before rebuilding")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logCfg := cfg.Logging.Logging()
	logCfg.Output = stderr
	logging.Init(logCfg)
	logger := logging.Logger()

	components, err := app.Build(ctx, cfg, logger, app.Options{ForceSync: true, InitSchema: *initSchema})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := components.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("close components")
		}
	}()

	if *importPath != "" {
		n, err := importEvents(ctx, components.Events, *importPath)
		if err != nil {
			return err
		}
		logger.Info().Int("events", n).Str("file", *importPath).Msg("imported interactions")
	}

	if err := components.Engine.Rebuild(ctx); err != nil {
		return err
	}

	st := components.Engine.Status()
	logger.Info().
		Int64("version", st.SnapshotVersion).
		Int("users", st.Users).
		Int("items", st.Items).
		Int("nnz", st.NNZ).
		Dur("duration", st.LastRebuildDuration).
		Msg("rebuild complete")
	return nil
}

func importEvents(ctx context.Context, log interactions.EventLog, path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // path is a command flag
	if err != nil {
		return 0, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return interactions.Import(ctx, log, f)
}
