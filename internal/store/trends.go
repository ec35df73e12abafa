package store

import (
	"context"
	"fmt"
	"time"

	"trainingload/internal/analysis"
)

// UserIDs returns the ids of every user
func (s *Store) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveFitnessTrend replaces a user's stored trend with metrics
func (s *Store) SaveFitnessTrend(ctx context.Context, userID int64, metrics []analysis.FitnessMetrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fitness_trends WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting existing trend: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fitness_trends (user_id, date, ctl, atl, tsb, computed_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx, userID, m.Date.Format(dateLayout), m.CTL, m.ATL, m.TSB); err != nil {
			return fmt.Errorf("inserting trend for %s: %w", m.Date.Format(dateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FitnessTrend returns a user's stored trend from since onwards, oldest first
func (s *Store) FitnessTrend(ctx context.Context, userID int64, since time.Time) ([]FitnessTrend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, date, ctl, atl, tsb FROM fitness_trends
		WHERE user_id = ? AND date >= ?
		ORDER BY date
	`, userID, since.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []FitnessTrend
	for rows.Next() {
		var ft FitnessTrend
		var date string
		if err := rows.Scan(&ft.UserID, &date, &ft.CTL, &ft.ATL, &ft.TSB); err != nil {
			return nil, err
		}
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", date, err)
		}
		ft.Date = d
		trend = append(trend, ft)
	}
	return trend, rows.Err()
}
