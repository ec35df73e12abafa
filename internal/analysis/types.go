package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Sport is the category the engine scores an activity under
type Sport int

const (
	SportOther Sport = iota // swimming and anything unrecognised
	SportCycling
	SportRunning
)

// String returns the storage key used by the zone tables
func (s Sport) String() string {
	switch s {
	case SportCycling:
		return "cycling"
	case SportRunning:
		return "running"
	default:
		return "swimming"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Sport) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Sport) UnmarshalText(b []byte) error {
	*s = ParseSport(string(b))
	return nil
}

// ParseSport maps a storage key back to a Sport. Unknown keys are SportOther.
func ParseSport(key string) Sport {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "cycling":
		return SportCycling
	case "running":
		return SportRunning
	default:
		return SportOther
	}
}

// SportFromTag maps a raw activity sport tag to its category
func SportFromTag(tag string) Sport {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = strings.TrimPrefix(t, "sport")
	switch t {
	case "biking", "cycling":
		return SportCycling
	case "running":
		return SportRunning
	default:
		return SportOther
	}
}

// Metric names a physiological channel
type Metric string

const (
	MetricHR    Metric = "hr"
	MetricPower Metric = "power"
	MetricSpeed Metric = "speed"
	MetricNone  Metric = "none"
)

// Metrics lists the scoreable metrics in a stable order
var Metrics = []Metric{MetricHR, MetricPower, MetricSpeed}

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricHR, MetricPower, MetricSpeed:
		return m, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// Sample is one normalized reading. Absent channels are nil.
type Sample struct {
	TimestampMs int64    `json:"timestampMs"`
	HeartRate   *float64 `json:"heartRate,omitempty"`
	Speed       *float64 `json:"speed,omitempty"` // m/s
	Power       *float64 `json:"power,omitempty"` // watts
}

// Value returns the sample's reading for m and whether it is defined
func (s Sample) Value(m Metric) (float64, bool) {
	var p *float64
	switch m {
	case MetricHR:
		p = s.HeartRate
	case MetricPower:
		p = s.Power
	case MetricSpeed:
		p = s.Speed
	}
	if p == nil || math.IsNaN(*p) {
		return 0, false
	}
	return *p, true
}

// OpenEnded is the upper bound of the top zone. It is finite so it survives
// JSON encoding and SQLite REAL columns.
const OpenEnded = math.MaxFloat64

// ZoneBoundary is one zone's half-open [Min, Max) range
type ZoneBoundary struct {
	Zone int     `json:"zone"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ZoneResult is the time spent in one zone
type ZoneResult struct {
	Zone    int     `json:"zone"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	TimeMs  int64   `json:"timeMs"`
	Percent float64 `json:"percent"`
}

// Duration returns the zone time as a time.Duration
func (z ZoneResult) Duration() time.Duration {
	return time.Duration(z.TimeMs) * time.Millisecond
}
