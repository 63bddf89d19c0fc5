// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// seedColumns are the CSV header names accepted for the track column, in
// order of preference.
var seedColumns = []string{"track_uri", "track_id", "uri", "id"}

// readSeedFile reads seed identifiers from path.
func readSeedFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is the command argument
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return readSeeds(f)
}

// readSeeds accepts either one identifier per line, with blank lines and
// '#' comments ignored, or a CSV whose header names a track column. The
// first line that is neither blank nor a comment decides: it is a CSV header
// when it has a comma or is exactly one of seedColumns.
func readSeeds(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if isCSVHeader(firstContentLine(data)) {
		return readSeedCSV(bytes.NewReader(data))
	}
	return readSeedLines(bytes.NewReader(data))
}

func firstContentLine(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

func isCSVHeader(line string) bool {
	if strings.Contains(line, ",") {
		return true
	}
	for _, col := range seedColumns {
		if strings.EqualFold(line, col) {
			return true
		}
	}
	return false
}

func readSeedLines(r io.Reader) ([]string, error) {
	var seeds []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return seeds, nil
}

func readSeedCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read seed header: %w", err)
	}
	col := -1
	for _, want := range seedColumns {
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), want) {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("seed file header has no track column (want one of %s)", strings.Join(seedColumns, ", "))
	}

	var seeds []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return seeds, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		if id := strings.TrimSpace(rec[col]); id != "" {
			seeds = append(seeds, id)
		}
	}
}

// defaultUserID derives a user id from the seed file name.
func defaultUserID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
