// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Command recommend prints recommendations for one seed file.
//
// Usage:
//
//	recommend [-config path] [-user id] [-n 10] <seed-file>
//
// On success stdout holds a JSON array of bare track ids followed by a
// newline. On failure stderr holds "error: <message>" and the exit status
// is 1. Logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/app"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	err := execute(ctx, args, stdout, stderr)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "error: %s\n", errorMessage(err))
		return 1
	}
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	userID := fs.String("user", "", "user id (default: seed file name without extension)")
	n := fs.Int("n", 10, "number of recommendations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: recommend [-config path] [-user id] [-n 10] <seed-file>")
	}
	seedPath := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logCfg := cfg.Logging.Logging()
	logCfg.Output = stderr
	logging.Init(logCfg)
	logger := logging.Logger()

	seeds, err := readSeedFile(seedPath)
	if err != nil {
		return err
	}
	user := *userID
	if user == "" {
		user = defaultUserID(seedPath)
	}

	components, err := app.Build(ctx, cfg, logger, app.Options{ForceSync: true})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := components.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("close components")
		}
	}()

	if err := components.Engine.Load(ctx); err != nil {
		return err
	}
	resp, err := components.Engine.Recommend(ctx, recommend.Request{
		UserID:       user,
		SeedTrackIDs: seeds,
		N:            *n,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("user_id", user).
		Str("state", string(resp.State)).
		Int("returned", len(resp.TrackIDs)).
		Msg("recommendations ready")

	ids := resp.TrackIDs
	if ids == nil {
		ids = []string{}
	}
	out, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	out = append(out, '\n')
	_, err = stdout.Write(out)
	return err
}

// errorMessage drops the operation prefix of engine errors.
func errorMessage(err error) string {
	var re *recommend.Error
	if errors.As(err, &re) && re.Err != nil {
		return re.Err.Error()
	}
	return err.Error()
}
