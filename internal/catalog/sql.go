// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// Supported SQL drivers.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

const defaultQueryTimeout = 30 * time.Second

// Schema creates the catalog tables. It runs unchanged on sqlite and duckdb.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS tracks (
		track_uri  TEXT PRIMARY KEY,
		track_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		artist_uri  TEXT PRIMARY KEY,
		artist_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS track_artists (
		track_uri  TEXT NOT NULL,
		artist_uri TEXT NOT NULL,
		PRIMARY KEY (track_uri, artist_uri)
	)`,
	`CREATE TABLE IF NOT EXISTS audio_features (
		track_uri        TEXT PRIMARY KEY,
		danceability     DOUBLE NOT NULL,
		energy           DOUBLE NOT NULL,
		"key"            DOUBLE NOT NULL,
		loudness         DOUBLE NOT NULL,
		"mode"           DOUBLE NOT NULL,
		speechiness      DOUBLE NOT NULL,
		acousticness     DOUBLE NOT NULL,
		instrumentalness DOUBLE NOT NULL,
		liveness         DOUBLE NOT NULL,
		valence          DOUBLE NOT NULL,
		tempo            DOUBLE NOT NULL,
		time_signature   DOUBLE NOT NULL
	)`,
}

const featureColumns = `af.danceability, af.energy, af."key", af.loudness, af."mode",
	af.speechiness, af.acousticness, af.instrumentalness, af.liveness,
	af.valence, af.tempo, af.time_signature`

const trackSelect = `
	SELECT t.track_uri, t.track_name,
	       GROUP_CONCAT(DISTINCT a.artist_name) AS artist_names,
	       ` + featureColumns + `
	FROM tracks t
	JOIN audio_features af ON t.track_uri = af.track_uri
	LEFT JOIN track_artists ta ON t.track_uri = ta.track_uri
	LEFT JOIN artists a ON ta.artist_uri = a.artist_uri`

const trackGroupBy = `
	GROUP BY t.track_uri, t.track_name, ` + featureColumns + `
	ORDER BY t.track_uri`

type trackRow struct {
	ID               string         `db:"track_uri"`
	Name             string         `db:"track_name"`
	Artists          sql.NullString `db:"artist_names"`
	Danceability     float64        `db:"danceability"`
	Energy           float64        `db:"energy"`
	Key              float64        `db:"key"`
	Loudness         float64        `db:"loudness"`
	Mode             float64        `db:"mode"`
	Speechiness      float64        `db:"speechiness"`
	Acousticness     float64        `db:"acousticness"`
	Instrumentalness float64        `db:"instrumentalness"`
	Liveness         float64        `db:"liveness"`
	Valence          float64        `db:"valence"`
	Tempo            float64        `db:"tempo"`
	TimeSignature    float64        `db:"time_signature"`
}

func (r *trackRow) track() Track {
	return Track{
		ID:      NormalizeTrackID(r.ID),
		Name:    r.Name,
		Artists: splitArtists(r.Artists.String),
		Features: Features{
			r.Danceability, r.Energy, r.Key, r.Loudness, r.Mode, r.Speechiness,
			r.Acousticness, r.Instrumentalness, r.Liveness, r.Valence, r.Tempo, r.TimeSignature,
		},
	}
}

type summaryRow struct {
	ID      string         `db:"track_uri"`
	Name    string         `db:"track_name"`
	Artists sql.NullString `db:"artist_names"`
}

// SQLStore reads the relational catalog through sqlx.
type SQLStore struct {
	db           *sqlx.DB
	driver       string
	queryTimeout time.Duration
}

// OpenSQL opens and pings a catalog database. driver is DriverSQLite or
// DriverDuckDB; dsn is passed to the driver unchanged.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverDuckDB:
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A sqlite :memory: database exists per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s catalog: %w", driver, err)
	}

	return &SQLStore{db: db, driver: driver, queryTimeout: defaultQueryTimeout}, nil
}

// NewSQLStore wraps an already opened database.
func NewSQLStore(db *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, queryTimeout: defaultQueryTimeout}
}

// EnsureSchema creates the catalog tables when they do not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create catalog schema: %w", err)
		}
	}
	return nil
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// SearchByName implements Store.
func (s *SQLStore) SearchByName(ctx context.Context, query string, limit int) ([]TrackSummary, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var rows []summaryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.track_uri, t.track_name,
		       GROUP_CONCAT(DISTINCT a.artist_name) AS artist_names
		FROM tracks t
		LEFT JOIN track_artists ta ON t.track_uri = ta.track_uri
		LEFT JOIN artists a ON ta.artist_uri = a.artist_uri
		WHERE LOWER(t.track_name) LIKE ?
		GROUP BY t.track_uri, t.track_name
		ORDER BY t.track_name ASC, t.track_uri ASC
		LIMIT ?`, "%"+strings.ToLower(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search tracks by name: %w", err)
	}

	out := make([]TrackSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, TrackSummary{ID: NormalizeTrackID(r.ID), Name: r.Name, Artists: splitArtists(r.Artists.String)})
	}
	return out, nil
}

// AllTracks implements Store. Catalog order is ascending stored track id.
func (s *SQLStore) AllTracks(ctx context.Context) ([]Track, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var rows []trackRow
	if err := s.db.SelectContext(ctx, &rows, trackSelect+trackGroupBy); err != nil {
		return nil, fmt.Errorf("select all tracks: %w", err)
	}
	return toTracks(rows), nil
}

// TracksByID implements Store. Each id matches a stored track_uri either
// exactly or as the suffix of a namespaced uri.
func (s *SQLStore) TracksByID(ctx context.Context, ids []string) ([]Track, error) {
	ids = NormalizeTrackIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	clauses := make([]string, 0, len(ids))
	args := make([]interface{}, 0, 2*len(ids))
	for _, id := range ids {
		clauses = append(clauses, "(t.track_uri = ? OR t.track_uri LIKE ?)")
		args = append(args, id, "%:track:"+id)
	}

	var rows []trackRow
	query := trackSelect + "\n\tWHERE " + strings.Join(clauses, " OR ") + trackGroupBy
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select tracks by id: %w", err)
	}
	return toTracks(rows), nil
}

func toTracks(rows []trackRow) []Track {
	out := make([]Track, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].track())
	}
	return out
}
