// Package recorder persists decoded readings to SQLite. Each logging
// session is a row in runs; every cycle's temperatures land in
// readings, with NULL standing in for an over-limit channel so a
// legitimate 0.0 never masquerades as "no value".
package recorder

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/thermo.report/internal/k204"
)

// DB wraps the readings database.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and applies any
// pending schema migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	rdb := &DB{db}
	if err := rdb.migrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return rdb, nil
}

// BeginRun registers a new logging session and returns its id.
func (db *DB) BeginRun(prefix string) (string, error) {
	runID := uuid.New().String()
	_, err := db.Exec("INSERT INTO runs (run_id, prefix) VALUES (?, ?)", runID, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil
}

// RecordReading appends one decoded reading for the given run.
func (db *DB) RecordReading(runID string, cycle int, elapsedSeconds float64, r k204.Reading) error {
	vals := make([]sql.NullFloat64, k204.NumChannels)
	for i, v := range r.Channels {
		if !v.OverLimit {
			vals[i] = sql.NullFloat64{Float64: v.Temp, Valid: true}
		}
	}

	_, err := db.Exec(`
		INSERT INTO readings (run_id, cycle, elapsed_seconds, t1, t2, t3, t4, unit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, cycle, elapsedSeconds, vals[0], vals[1], vals[2], vals[3], r.Unit.String())
	if err != nil {
		return fmt.Errorf("failed to record reading: %w", err)
	}
	return nil
}

// CountReadings returns the number of readings stored for a run.
func (db *DB) CountReadings(runID string) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM readings WHERE run_id = ?", runID).Scan(&n)
	return n, err
}

// ChannelSamples returns the non-OL values recorded for one channel of
// a run, in cycle order. Used for the end-of-run summary.
func (db *DB) ChannelSamples(runID string, channel int) ([]float64, error) {
	if channel < 0 || channel >= k204.NumChannels {
		return nil, fmt.Errorf("channel index out of range: %d", channel)
	}
	col := fmt.Sprintf("t%d", channel+1)

	rows, err := db.Query(
		"SELECT "+col+" FROM readings WHERE run_id = ? AND "+col+" IS NOT NULL ORDER BY cycle",
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		samples = append(samples, v)
	}
	return samples, rows.Err()
}
