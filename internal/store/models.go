package store

import "time"

// User is an athlete whose workouts and zones are stored
type User struct {
	ID        int64     `db:"id"`
	Email     string    `db:"email"`
	MaxHR     *float64  `db:"max_hr"` // nullable
	FTP       *float64  `db:"ftp"`    // nullable
	CreatedAt time.Time `db:"created_at"`
}

// WorkoutStatus tracks a workout through processing
type WorkoutStatus string

const (
	StatusPending WorkoutStatus = "pending"
	StatusDone    WorkoutStatus = "done"
	StatusFailed  WorkoutStatus = "failed"
)

// Workout is an uploaded activity file and its analysis
type Workout struct {
	ID               int64         `db:"id"`
	UserID           int64         `db:"user_id"`
	JobID            string        `db:"job_id"`
	FileName         string        `db:"file_name"`
	Sport            string        `db:"sport"`
	Mode             string        `db:"mode"` // rolling or zones
	Status           WorkoutStatus `db:"status"`
	WorkoutDate      *time.Time    `db:"workout_date"` // nullable until processed
	DurationSeconds  *float64      `db:"duration_seconds"`
	Distance         *float64      `db:"distance"` // meters
	AvgHR            *float64      `db:"avg_hr"`
	AvgSpeed         *float64      `db:"avg_speed"` // m/s
	AvgPower         *float64      `db:"avg_power"`
	EfficiencyFactor *float64      `db:"efficiency_factor"`
	Decoupling       *float64      `db:"decoupling"` // percent
	TSS              *int          `db:"tss"`        // zones mode only
	MetricUsed       *string       `db:"metric_used"`
	ZoneJSON         *string       `db:"zone_json"`
	RollingJSON      *string       `db:"rolling_json"`
	Error            *string       `db:"error"`
	CreatedAt        time.Time     `db:"created_at"`
	ProcessedAt      *time.Time    `db:"processed_at"`
}

// FitnessTrend is the stored CTL/ATL/TSB for one user and day
type FitnessTrend struct {
	UserID int64     `db:"user_id"`
	Date   time.Time `db:"date"`
	CTL    float64   `db:"ctl"`
	ATL    float64   `db:"atl"`
	TSB    float64   `db:"tsb"`
}
