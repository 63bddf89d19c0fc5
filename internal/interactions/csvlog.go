// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package interactions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// csvHeader is the header of the playlist dataset the log extends.
var csvHeader = []string{"playlist_id", "track_id"}

// CSVLog is an EventLog backed by a two-column CSV file.
type CSVLog struct {
	path string
	mu   sync.Mutex
}

// OpenCSVLog opens the log at path, creating the file and its directory
// when missing.
func OpenCSVLog(path string) (*CSVLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640) //nolint:gosec // path from config
	switch {
	case err == nil:
		w := csv.NewWriter(f)
		_ = w.Write(csvHeader)
		w.Flush()
		werr := w.Error()
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return nil, fmt.Errorf("write event log header: %w", werr)
		}
	case errors.Is(err, os.ErrExist):
	default:
		return nil, fmt.Errorf("create event log: %w", err)
	}

	return &CSVLog{path: path}, nil
}

// Path returns the log file path.
func (l *CSVLog) Path() string {
	return l.path
}

// Append implements EventLog. Events are written in one write call and
// synced before returning.
func (l *CSVLog) Append(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := normalizeAll(events)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // path from config
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, norm, false); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync event log: %w", err)
	}
	return nil
}

// ReadAll implements EventLog.
func (l *CSVLog) ReadAll(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f)
}

// Len implements EventLog.
func (l *CSVLog) Len(ctx context.Context) (int, error) {
	events, err := l.ReadAll(ctx)
	return len(events), err
}

// Close implements EventLog.
func (l *CSVLog) Close() error {
	return nil
}

// ReadCSV parses a playlist_id,track_id dataset. The first record is a
// header and is skipped; every other record must have exactly two fields.
func ReadCSV(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var events []Event
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read event log: %w", err)
		}
		if line == 1 {
			continue
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("read event log: line %d has %d fields, want 2", line, len(rec))
		}
		e := Event{UserID: rec[0], TrackID: rec[1]}.Normalize()
		if !e.Valid() {
			return nil, fmt.Errorf("read event log: line %d: %w", line, ErrInvalidEvent)
		}
		events = append(events, e)
	}
}

// WriteCSV writes events as CSV records, preceded by the header when
// header is true.
func WriteCSV(w io.Writer, events []Event, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, e := range events {
		if err := cw.Write([]string{e.UserID, e.TrackID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
