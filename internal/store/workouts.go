package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trainingload/internal/analysis"
)

const dateLayout = "2006-01-02"

const workoutColumns = `id, user_id, job_id, file_name, sport, mode, status, workout_date,
	duration_seconds, distance, avg_hr, avg_speed, avg_power, efficiency_factor, decoupling,
	tss, metric_used, zone_json, rolling_json, error, created_at, processed_at`

// CreateWorkout records an uploaded file waiting for analysis
func (s *Store) CreateWorkout(ctx context.Context, userID int64, jobID, fileName string, mode analysis.Mode) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO workouts (user_id, job_id, file_name, mode, status)
		VALUES (?, ?, ?, ?, ?)
	`, userID, jobID, fileName, string(mode), string(StatusPending))
	if err != nil {
		return 0, fmt.Errorf("inserting workout: %w", err)
	}
	return result.LastInsertId()
}

// WorkoutByJobID retrieves the workout a queued job refers to
func (s *Store) WorkoutByJobID(ctx context.Context, jobID string) (*Workout, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE job_id = ?`, jobID)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	return w, err
}

// SaveResult stores an analysis result against the job's workout and marks
// it done. Rolling results fill rolling_json; zone scoring results fill
// tss, metric_used and zone_json.
func (s *Store) SaveResult(ctx context.Context, jobID string, result analysis.Result) error {
	sum := result.Session()

	workoutDate := time.Now()
	if !sum.StartTime.IsZero() {
		workoutDate = sum.StartTime
	}

	var (
		tss                             *int
		metricUsed, zoneJSON, rollingJS *string
	)

	switch r := result.(type) {
	case *analysis.RollingResult:
		payload, err := json.Marshal(struct {
			WindowMs   int64                                       `json:"windowMs"`
			Peaks      map[analysis.Metric]float64                 `json:"peaks"`
			Thresholds map[analysis.Metric][]analysis.ZoneBoundary `json:"thresholds"`
		}{r.Window.Milliseconds(), r.Peaks, r.Thresholds})
		if err != nil {
			return fmt.Errorf("encoding rolling result: %w", err)
		}
		rollingJS = stringPtr(string(payload))
	case *analysis.ZoneScoringResult:
		payload, err := json.Marshal(r.Classifications)
		if err != nil {
			return fmt.Errorf("encoding zone result: %w", err)
		}
		zoneJSON = stringPtr(string(payload))
		tss = &r.TSS
		metricUsed = stringPtr(string(r.MetricUsed))
	default:
		return fmt.Errorf("unsupported result type %T", result)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE workouts SET
			status = ?,
			sport = ?,
			workout_date = ?,
			duration_seconds = ?,
			distance = ?,
			avg_hr = ?,
			avg_speed = ?,
			avg_power = ?,
			efficiency_factor = ?,
			decoupling = ?,
			tss = ?,
			metric_used = ?,
			zone_json = ?,
			rolling_json = ?,
			error = NULL,
			processed_at = ?
		WHERE job_id = ?
	`,
		string(StatusDone), sum.Sport.String(), workoutDate.Format(dateLayout),
		sum.DurationSec, sum.DistanceM, sum.AvgHeartRate, sum.AvgSpeed, sum.AvgPower,
		sum.EfficiencyFactor, sum.Decoupling,
		tss, metricUsed, zoneJSON, rollingJS,
		time.Now().UTC().Format(time.RFC3339), jobID,
	)
	if err != nil {
		return fmt.Errorf("updating workout: %w", err)
	}
	return requireRow(res, ErrWorkoutNotFound)
}

// MarkFailed records why a workout could not be processed
func (s *Store) MarkFailed(ctx context.Context, jobID string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE workouts SET status = ?, error = ?, processed_at = ? WHERE job_id = ?
	`, string(StatusFailed), msg, time.Now().UTC().Format(time.RFC3339), jobID)
	if err != nil {
		return fmt.Errorf("updating workout: %w", err)
	}
	return requireRow(res, ErrWorkoutNotFound)
}

// ListWorkouts returns a user's workouts, most recent first
func (s *Store) ListWorkouts(ctx context.Context, userID int64, limit int) ([]Workout, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workoutColumns+` FROM workouts
		WHERE user_id = ?
		ORDER BY COALESCE(workout_date, created_at) DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

// DailyLoads sums the TSS of a user's scored workouts per day
func (s *Store) DailyLoads(ctx context.Context, userID int64) ([]analysis.DailyLoad, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workout_date, SUM(tss) FROM workouts
		WHERE user_id = ? AND status = ? AND tss IS NOT NULL AND workout_date IS NOT NULL
		GROUP BY workout_date
		ORDER BY workout_date
	`, userID, string(StatusDone))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loads []analysis.DailyLoad
	for rows.Next() {
		var date string
		var tss float64
		if err := rows.Scan(&date, &tss); err != nil {
			return nil, err
		}
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing workout_date %q: %w", date, err)
		}
		loads = append(loads, analysis.DailyLoad{Date: d, TSS: tss})
	}
	return loads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanWorkout scans a single workout from a row
func scanWorkout(row rowScanner) (*Workout, error) {
	var w Workout
	var status, createdAt string
	var workoutDate, processedAt, sport sql.NullString
	var tss sql.NullInt64

	err := row.Scan(
		&w.ID, &w.UserID, &w.JobID, &w.FileName, &sport, &w.Mode, &status, &workoutDate,
		&w.DurationSeconds, &w.Distance, &w.AvgHR, &w.AvgSpeed, &w.AvgPower,
		&w.EfficiencyFactor, &w.Decoupling, &tss, &w.MetricUsed,
		&w.ZoneJSON, &w.RollingJSON, &w.Error, &createdAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Sport = sport.String
	w.Status = WorkoutStatus(status)
	w.CreatedAt = parseSQLiteTime(createdAt)
	if tss.Valid {
		v := int(tss.Int64)
		w.TSS = &v
	}
	if workoutDate.Valid {
		d, err := time.Parse(dateLayout, workoutDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing workout_date %q: %w", workoutDate.String, err)
		}
		w.WorkoutDate = &d
	}
	if processedAt.Valid {
		t := parseSQLiteTime(processedAt.String)
		w.ProcessedAt = &t
	}
	return &w, nil
}

// parseSQLiteTime accepts RFC3339 and SQLite's CURRENT_TIMESTAMP format
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func requireRow(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func stringPtr(s string) *string {
	return &s
}
