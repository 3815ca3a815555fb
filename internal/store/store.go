// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package store is the Geospatial Index / Event Store: persistent storage
// of events and clusters supporting point, bounding-box, and
// distance-within-radius queries (SPEC_FULL.md §4). It is backed by
// DuckDB with the spatial extension, following the teacher's
// internal/database package: a *sql.DB wrapped with extension bootstrap,
// schema migration, and transaction/timeout helpers.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/logging"
)

// Store wraps the DuckDB connection used by the event/cluster tables.
type Store struct {
	conn             *sql.DB
	spatialAvailable bool
}

// New opens (creating if necessary) the DuckDB file at cfg.Path, installs
// the spatial extension, and migrates the schema.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("SET threads TO %d;", threads)); err != nil {
		return nil, fmt.Errorf("set duckdb threads: %w", err)
	}

	s := &Store{conn: conn}
	s.installSpatial(ctx)

	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return s, nil
}

// installSpatial installs and loads the spatial extension. No query in this
// package depends on it: bounding-box queries use plain BETWEEN filters and
// FindNeighbors computes haversine distance in Go — so if the extension
// cannot be installed (offline environments without extension mirrors),
// failure here is logged and non-fatal.
func (s *Store) installSpatial(ctx context.Context) {
	if _, err := s.conn.ExecContext(ctx, "INSTALL spatial;"); err != nil {
		logging.Warn().Err(err).Msg("spatial extension install failed, falling back to scalar distance queries")
		return
	}
	if _, err := s.conn.ExecContext(ctx, "LOAD spatial;"); err != nil {
		logging.Warn().Err(err).Msg("spatial extension load failed, falling back to scalar distance queries")
		return
	}
	s.spatialAvailable = true
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			address TEXT,
			description TEXT NOT NULL DEFAULT '',
			media_url TEXT,
			media_type TEXT NOT NULL,
			thumbnail_url TEXT,
			transcription TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'informational',
			subcategory TEXT NOT NULL DEFAULT '',
			severity INTEGER NOT NULL DEFAULT 1,
			ai_confidence DOUBLE,
			reasoning TEXT NOT NULL DEFAULT '',
			cluster_id UUID,
			status TEXT NOT NULL DEFAULT 'new',
			reviewed_by_id BIGINT,
			reviewed_at TIMESTAMP,
			reporter_id BIGINT
		);`,
		`CREATE TABLE IF NOT EXISTS event_clusters (
			id UUID PRIMARY KEY,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			radius_meters DOUBLE NOT NULL DEFAULT 100,
			event_count INTEGER NOT NULL DEFAULT 0,
			first_event_at TIMESTAMP NOT NULL,
			last_event_at TIMESTAMP NOT NULL,
			computed_severity INTEGER NOT NULL DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			staff BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1;`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id BIGINT PRIMARY KEY,
			reports_submitted INTEGER NOT NULL DEFAULT 0,
			reports_verified INTEGER NOT NULL DEFAULT 0,
			badges TEXT NOT NULL DEFAULT '[]',
			reputation_score INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_events_cluster_id ON events (cluster_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_status ON events (status);`,
	}

	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec migration statement: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.conn.Close() }

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// queryTimeout bounds individual queries so a stuck DuckDB call can't hang a
// request or pipeline job indefinitely.
const queryTimeout = 10 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}
