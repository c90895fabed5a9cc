package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
)

// ChartRepository caches Hot 100 snapshots, one per chart date.
type ChartRepository struct {
	db *sql.DB
}

// NewChartRepository creates a new ChartRepository with the given database connection
func NewChartRepository(db *sql.DB) *ChartRepository {
	return &ChartRepository{db: db}
}

// Save stores chart, replacing any snapshot for the same date, and returns the snapshot id.
func (r *ChartRepository) Save(ctx context.Context, chart *models.ChartSnapshot) (string, error) {
	if chart == nil || chart.ChartDate.IsZero() {
		return "", fmt.Errorf("%w: chart needs a date", shared.ErrInvalidInput)
	}

	date := chart.ChartDate.Format("2006-01-02")
	id := shared.GenerateID()

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, `SELECT id FROM chart_snapshots WHERE chart_date = ?`, date).Scan(&existing)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `DELETE FROM chart_entries WHERE snapshot_id = ?`, existing); err != nil {
				return fmt.Errorf("failed to clear chart entries: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM chart_snapshots WHERE id = ?`, existing); err != nil {
				return fmt.Errorf("failed to replace chart snapshot: %w", err)
			}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to look up chart snapshot: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chart_snapshots (id, chart_date, fetched_at) VALUES (?, ?, ?)`,
			id, date, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert chart snapshot: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chart_entries (snapshot_id, position, title, artist, slug, last_week_position,
				position_change, peak_rank, weeks_on_chart, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare chart entry insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range chart.Songs {
			payload, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to encode chart entry: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				id, e.CurrentPosition, e.Title, e.Artist, e.Slug,
				nullableInt(e.LastWeekPosition), nullableInt(e.PositionChange),
				e.PeakRank, e.WeeksOnChart, string(payload),
			); err != nil {
				return fmt.Errorf("failed to insert chart entry %d: %w", e.CurrentPosition, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Latest returns the most recent cached chart.
func (r *ChartRepository) Latest(ctx context.Context) (*models.ChartSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, chart_date FROM chart_snapshots ORDER BY chart_date DESC LIMIT 1`)
	return r.load(ctx, row)
}

// ByDate returns the cached chart for date (YYYY-MM-DD).
func (r *ChartRepository) ByDate(ctx context.Context, date string) (*models.ChartSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, chart_date FROM chart_snapshots WHERE chart_date = ?`, date)
	return r.load(ctx, row)
}

// Dates lists cached chart dates, newest first.
func (r *ChartRepository) Dates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chart_date FROM chart_snapshots ORDER BY chart_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chart dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan chart date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *ChartRepository) load(ctx context.Context, row *sql.Row) (*models.ChartSnapshot, error) {
	var id, date string
	if err := row.Scan(&id, &date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chart snapshot: %w", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan chart snapshot: %w", err)
	}

	chartDate, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("invalid cached chart date: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM chart_entries WHERE snapshot_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query chart entries: %w", err)
	}
	defer rows.Close()

	chart := &models.ChartSnapshot{ChartDate: chartDate}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan chart entry: %w", err)
		}
		var entry models.ChartEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode chart entry: %w", err)
		}
		chart.Songs = append(chart.Songs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chart entries: %w", err)
	}
	return chart, nil
}
