package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trainingload/internal/analysis"
)

// DefaultHRZones are the heart rate zones a new user starts with for every sport
var DefaultHRZones = []analysis.ZoneBoundary{
	{Zone: 1, Min: 0, Max: 114},
	{Zone: 2, Min: 114, Max: 133},
	{Zone: 3, Min: 133, Max: 152},
	{Zone: 4, Min: 152, Max: 171},
	{Zone: 5, Min: 171, Max: 999},
}

var defaultZoneSports = []analysis.Sport{analysis.SportCycling, analysis.SportRunning, analysis.SportOther}

// CreateUser inserts a user and returns its id
func (s *Store) CreateUser(ctx context.Context, email string, maxHR, ftp *float64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, max_hr, ftp) VALUES (?, ?, ?)
	`, email, maxHR, ftp)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return result.LastInsertId()
}

// UserByEmail retrieves a user by email address
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, max_hr, ftp, created_at FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.MaxHR, &u.FTP, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseSQLiteTime(createdAt)
	return &u, nil
}

// SeedDefaultUser creates the user with default heart rate zones unless it
// already exists. It returns the user's id either way.
func (s *Store) SeedDefaultUser(ctx context.Context, email string, maxHR, ftp float64) (int64, error) {
	existing, err := s.UserByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return 0, err
	}

	id, err := s.CreateUser(ctx, email, positiveOrNil(maxHR), positiveOrNil(ftp))
	if err != nil {
		return 0, err
	}

	for _, sport := range defaultZoneSports {
		if err := s.ReplaceZones(ctx, id, sport, analysis.MetricHR, DefaultHRZones); err != nil {
			return 0, fmt.Errorf("seeding %s zones: %w", sport, err)
		}
	}
	return id, nil
}

func positiveOrNil(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
