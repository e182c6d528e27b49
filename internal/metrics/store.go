// Package metrics persists generation run statistics so plan quality
// and latency can be tracked over time.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerationRun records metadata for a single plan generation.
type GenerationRun struct {
	UserID      string
	Weeks       int
	Slots       int
	CycleResets int
	Randomized  bool
	DurationMS  int64
	Timestamp   time.Time
}

// Store handles persistence of metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a generation run to the database.
func (s *Store) Record(ctx context.Context, run GenerationRun) error {
	ts := run.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_runs (id, user_id, weeks, slots, cycle_resets, randomized, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), run.UserID, run.Weeks, run.Slots, run.CycleResets,
		run.Randomized, run.DurationMS, ts)
	if err != nil {
		return fmt.Errorf("failed to record generation run: %w", err)
	}
	return nil
}

// DailySummary represents generation totals for a single day.
type DailySummary struct {
	Date          string
	Runs          int
	TotalSlots    int
	TotalResets   int
	AvgDurationMS float64
}

// GetDailySummary retrieves generation activity for the last N days.
func (s *Store) GetDailySummary(ctx context.Context, days int) ([]DailySummary, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at) AS day, COUNT(*), SUM(slots), SUM(cycle_resets), AVG(duration_ms)
		FROM generation_runs
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation runs: %w", err)
	}
	defer rows.Close()

	var results []DailySummary
	for rows.Next() {
		var d DailySummary
		var slots, resets sql.NullInt64
		var avg sql.NullFloat64
		if err := rows.Scan(&d.Date, &d.Runs, &slots, &resets, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		if slots.Valid {
			d.TotalSlots = int(slots.Int64)
		}
		if resets.Valid {
			d.TotalResets = int(resets.Int64)
		}
		if avg.Valid {
			d.AvgDurationMS = avg.Float64
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// reports how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(ctx, `DELETE FROM generation_runs WHERE created_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up generation runs: %w", err)
	}
	return res.RowsAffected()
}
