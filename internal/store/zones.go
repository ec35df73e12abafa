package store

import (
	"context"
	"fmt"

	"trainingload/internal/analysis"
)

// zoneTable returns the table holding boundaries for metric
func zoneTable(metric analysis.Metric) (string, error) {
	switch metric {
	case analysis.MetricHR:
		return "hr_zones", nil
	case analysis.MetricPower:
		return "power_zones", nil
	case analysis.MetricSpeed:
		return "speed_zones", nil
	default:
		return "", fmt.Errorf("no zone table for metric %q", metric)
	}
}

// Zones returns the stored boundaries for (user, sport, metric) ordered by
// zone. An unset key yields an empty slice.
func (s *Store) Zones(ctx context.Context, userID int64, sport analysis.Sport, metric analysis.Metric) ([]analysis.ZoneBoundary, error) {
	table, err := zoneTable(metric)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT zone, min, max FROM `+table+`
		WHERE user_id = ? AND sport = ?
		ORDER BY zone
	`, userID, sport.String())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var bounds []analysis.ZoneBoundary
	for rows.Next() {
		var b analysis.ZoneBoundary
		if err := rows.Scan(&b.Zone, &b.Min, &b.Max); err != nil {
			return nil, err
		}
		bounds = append(bounds, b)
	}
	return bounds, rows.Err()
}

// ReplaceZones deletes every boundary for (user, sport, metric) and inserts
// bounds in the same transaction
func (s *Store) ReplaceZones(ctx context.Context, userID int64, sport analysis.Sport, metric analysis.Metric, bounds []analysis.ZoneBoundary) error {
	table, err := zoneTable(metric)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete existing boundaries for this key
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ? AND sport = ?`, userID, sport.String()); err != nil {
		return fmt.Errorf("deleting existing zones: %w", err)
	}

	// Prepare insert statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+table+` (user_id, sport, zone, min, max) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bounds {
		if _, err := stmt.ExecContext(ctx, userID, sport.String(), b.Zone, b.Min, b.Max); err != nil {
			return fmt.Errorf("inserting zone %d: %w", b.Zone, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
