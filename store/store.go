/*
Copyright © 2024 the EDS authors.
This file is part of EDS.

EDS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EDS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EDS.  If not, see <http://www.gnu.org/licenses/>.
*/


// Package store saves batch results to a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/spatialmodel/eds"
	"github.com/spatialmodel/eds/batch"
)

const dateFormat = "2006-01-02"

const summarySchema = `CREATE TABLE IF NOT EXISTS summaries (
	batch_id TEXT NOT NULL,
	key TEXT NOT NULL,
	location_id TEXT NOT NULL,
	info_id TEXT NOT NULL,
	crop TEXT NOT NULL,
	date1 TEXT,
	date2 TEXT,
	n_days INTEGER,
	latitude REAL,
	longitude REAL,
	applications INTEGER NOT NULL,
	resistance TEXT NOT NULL,
	sev_median REAL,
	sev_max REAL,
	auc REAL,
	final_day INTEGER,
	err TEXT,
	PRIMARY KEY (batch_id, info_id, applications, resistance)
)`

// Store holds simulation summaries and daily states in SQLite.
// It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string

	dayColumns []string
}

// Open opens the database at path, creating it and its tables if they do
// not exist. A path of ":memory:" opens a temporary in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: missing database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("store: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps in-memory
	// databases from being split across connections.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	names, _, _ := eds.Columns()
	s.dayColumns = names
	if _, err := db.Exec(summarySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create summaries table: %w", err)
	}
	if _, err := db.Exec(s.daySchema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create days table: %w", err)
	}
	return s, nil
}

func (s *Store) daySchema() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS days (\n\tbatch_id TEXT NOT NULL,\n\tkey TEXT NOT NULL,\n\tinfo_id TEXT NOT NULL,\n")
	for _, c := range s.dayColumns {
		fmt.Fprintf(&b, "\t%q REAL,\n", c)
	}
	b.WriteString("\tPRIMARY KEY (batch_id, key, info_id, \"Day\")\n)")
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Save saves a summary and the daily states it was computed from in a
// single transaction.
func (s *Store) Save(ctx context.Context, batchID string, sum *batch.Summary, states []eds.DailyState) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if err := saveSummary(ctx, tx, batchID, sum); err != nil {
		return err
	}
	if err := s.saveDays(ctx, tx, batchID, sum, states); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func saveSummary(ctx context.Context, e execer, batchID string, sum *batch.Summary) error {
	var errText sql.NullString
	if sum.Err != nil {
		errText = sql.NullString{String: sum.Err.Error(), Valid: true}
	}
	_, err := e.ExecContext(ctx, `INSERT OR REPLACE INTO summaries (batch_id, key, location_id,
		info_id, crop, date1, date2, n_days, latitude, longitude, applications, resistance,
		sev_median, sev_max, auc, final_day, err) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		batchID, sum.Key, sum.LocationID, sum.InfoID, sum.Crop,
		date(sum.Date1), date(sum.Date2), sum.NDays, nullFloat(sum.Latitude), nullFloat(sum.Longitude),
		sum.Applications, sum.Resistance,
		nullFloat(sum.SevMedian), nullFloat(sum.SevMax), nullFloat(sum.AUC), sum.FinalDay, errText)
	if err != nil {
		return fmt.Errorf("store: insert summary %s: %w", sum.InfoID, err)
	}
	return nil
}

func (s *Store) saveDays(ctx context.Context, e execer, batchID string, sum *batch.Summary, states []eds.DailyState) error {
	if len(states) == 0 {
		return nil
	}
	quoted := make([]string, len(s.dayColumns))
	for i, c := range s.dayColumns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO days (batch_id, key, info_id, %s) VALUES (?,?,?%s)",
		strings.Join(quoted, ", "), strings.Repeat(",?", len(quoted)))
	args := make([]interface{}, 3+len(quoted))
	args[0], args[1], args[2] = batchID, sum.Key, sum.InfoID
	for _, st := range states {
		for i, v := range st.Values() {
			args[3+i] = nullFloat(v)
		}
		if _, err := e.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("store: insert day %d of %s: %w", st.Day, sum.InfoID, err)
		}
	}
	return nil
}

// Summaries returns the summaries saved for a batch, in output order.
func (s *Store) Summaries(ctx context.Context, batchID string) ([]batch.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, location_id, info_id, crop, date1, date2,
		n_days, latitude, longitude, applications, resistance, sev_median, sev_max, auc,
		final_day, err FROM summaries WHERE batch_id = ?`, batchID)
	if err != nil {
		return nil, fmt.Errorf("store: select summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []batch.Output
	for rows.Next() {
		var (
			sum                      batch.Summary
			date1, date2, errText    sql.NullString
			lat, lon, med, top, area sql.NullFloat64
		)
		if err := rows.Scan(&sum.Key, &sum.LocationID, &sum.InfoID, &sum.Crop, &date1, &date2,
			&sum.NDays, &lat, &lon, &sum.Applications, &sum.Resistance, &med, &top, &area,
			&sum.FinalDay, &errText); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		if sum.Date1, err = parseDate(date1); err != nil {
			return nil, err
		}
		if sum.Date2, err = parseDate(date2); err != nil {
			return nil, err
		}
		sum.Latitude, sum.Longitude = fromNull(lat), fromNull(lon)
		sum.SevMedian, sum.SevMax, sum.AUC = fromNull(med), fromNull(top), fromNull(area)
		if errText.Valid {
			sum.Err = errors.New(errText.String)
		}
		out = append(out, batch.Output{Summary: sum})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: rows: %w", err)
	}
	batch.Sort(out)
	sums := make([]batch.Summary, len(out))
	for i, o := range out {
		sums[i] = o.Summary
	}
	return sums, nil
}

// DayCount returns the number of daily states saved for a batch.
func (s *Store) DayCount(ctx context.Context, batchID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM days WHERE batch_id = ?`, batchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count days: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// nullFloat converts NaN and infinite values, which SQLite cannot store, to NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func date(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateFormat), Valid: true}
}

func parseDate(s sql.NullString) (time.Time, error) {
	if !s.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: %w", err)
	}
	return t, nil
}
