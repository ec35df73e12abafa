package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownMode is returned by ParseMode for anything but rolling or zones
var ErrUnknownMode = errors.New("unknown analysis mode")

// Mode selects which analysis runs for an activity
type Mode string

const (
	// ModeRolling discovers thresholds from windowed peaks.
	ModeRolling Mode = "rolling"
	// ModeZones classifies time in stored zones and scores the session.
	ModeZones Mode = "zones"
)

// ParseMode validates a caller-supplied mode flag
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRolling, ModeZones:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Summary is the session aggregate shared by both result kinds
type Summary struct {
	Sport        Sport     `json:"sport"`
	RawSport     string    `json:"rawSport"`
	StartTime    time.Time `json:"startTime"`
	DurationSec  float64   `json:"durationSec"`
	DistanceM    float64   `json:"distanceM"`
	AvgHeartRate float64   `json:"avgHeartRate"`
	AvgSpeed     float64   `json:"avgSpeed"`
	AvgPower     float64   `json:"avgPower"`
	LapCount     int       `json:"lapCount"`
	SampleCount  int       `json:"sampleCount"`

	EfficiencyFactor float64         `json:"efficiencyFactor"`
	Decoupling       float64         `json:"decoupling"` // percent
	Running          *RunningFitness `json:"running,omitempty"`
}

// Summarize builds the session aggregate from a normalized activity
func Summarize(n Normalized) Summary {
	decoupling := AerobicDecoupling(n.Sport, n.Samples)
	return Summary{
		Sport:        n.Sport,
		RawSport:     n.RawSport,
		StartTime:    n.Meta.StartTime,
		DurationSec:  n.Meta.TotalTimeSec,
		DistanceM:    n.Meta.TotalDistanceM,
		AvgHeartRate: n.Meta.AvgHeartRate,
		AvgSpeed:     n.Meta.AvgSpeedMPerSec,
		AvgPower:     n.Meta.AvgPower,
		LapCount:     n.Meta.LapCount,
		SampleCount:  len(n.Samples),

		EfficiencyFactor: EfficiencyFactor(n.Sport, n.Samples),
		Decoupling:       decoupling,
		Running:          AssessRunning(n.Sport, n.Samples, decoupling),
	}
}

// Result is the outcome of one analysis run. It is either a *RollingResult
// or a *ZoneScoringResult.
type Result interface {
	Mode() Mode
	Session() Summary
	sealed()
}

// RollingResult holds the peaks found per metric and the zones derived from them
type RollingResult struct {
	Summary
	Window     time.Duration             `json:"-"`
	Peaks      map[Metric]float64        `json:"peaks"`
	Thresholds map[Metric][]ZoneBoundary `json:"thresholds"`
}

func (*RollingResult) Mode() Mode         { return ModeRolling }
func (r *RollingResult) Session() Summary { return r.Summary }
func (*RollingResult) sealed()            {}

// ZoneScoringResult holds time in zone per metric and the session score
type ZoneScoringResult struct {
	Summary
	Classifications map[Metric]Classification `json:"classifications"`
	Score
}

func (*ZoneScoringResult) Mode() Mode         { return ModeZones }
func (r *ZoneScoringResult) Session() Summary { return r.Summary }
func (*ZoneScoringResult) sealed()            {}

// Zones returns the per-metric zone results fed to the scorer
func (r *ZoneScoringResult) Zones() map[Metric][]ZoneResult {
	zones := make(map[Metric][]ZoneResult, len(r.Classifications))
	for m, c := range r.Classifications {
		zones[m] = c.Zones
	}
	return zones
}

// Rolling computes the windowed peak of every metric and derives zone
// boundaries from each usable peak. Metrics without a peak or without a
// table for the sport are absent from Thresholds.
func Rolling(n Normalized, window time.Duration) *RollingResult {
	if window <= 0 {
		window = DefaultWindow
	}

	r := &RollingResult{
		Summary:    Summarize(n),
		Window:     window,
		Peaks:      make(map[Metric]float64, len(Metrics)),
		Thresholds: make(map[Metric][]ZoneBoundary),
	}

	for _, m := range Metrics {
		peak := Peak(n.Samples, m, window)
		r.Peaks[m] = peak
		if bounds := DeriveZones(peak, n.Sport, m); len(bounds) > 0 {
			r.Thresholds[m] = bounds
		}
	}
	return r
}

// ScoreZones classifies the samples against the supplied boundaries for each
// metric and scores the session.
func ScoreZones(n Normalized, bounds map[Metric][]ZoneBoundary) *ZoneScoringResult {
	r := &ZoneScoringResult{
		Summary:         Summarize(n),
		Classifications: make(map[Metric]Classification, len(Metrics)),
	}

	for _, m := range Metrics {
		r.Classifications[m] = Classify(n.Samples, bounds[m], n.Sport, m)
	}
	r.Score = ScoreSession(n.Sport, r.Zones())
	return r
}

// Boundaries returns the zone boundaries a result was computed with: the
// derived thresholds of a rolling result, or the zones a session was
// classified against.
func Boundaries(result Result) map[Metric][]ZoneBoundary {
	switch r := result.(type) {
	case *RollingResult:
		return r.Thresholds
	case *ZoneScoringResult:
		bounds := make(map[Metric][]ZoneBoundary, len(r.Classifications))
		for m, c := range r.Classifications {
			for _, z := range c.Zones {
				bounds[m] = append(bounds[m], ZoneBoundary{Zone: z.Zone, Min: z.Min, Max: z.Max})
			}
		}
		return bounds
	default:
		return nil
	}
}
