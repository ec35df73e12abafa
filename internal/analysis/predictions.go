package analysis

import (
	"math"
	"time"
)

// PredictionTarget represents a target distance for predictions
type PredictionTarget struct {
	Name           string // "5k", "10k", "half", "marathon"
	DistanceMeters float64
}

// PredictionTargets defines the standard prediction distances
var PredictionTargets = []PredictionTarget{
	{"5k", Distance5K},
	{"10k", Distance10K},
	{"half", DistanceHalfMara},
	{"marathon", DistanceMarathon},
}

// RacePrediction represents a predicted race time
type RacePrediction struct {
	TargetName      string        `json:"targetName"`
	TargetMeters    float64       `json:"targetMeters"`
	Predicted       time.Duration `json:"predictedNs"`
	PacePerKm       float64       `json:"pacePerKm"` // seconds
	VDOT            float64       `json:"vdot"`
	Confidence      string        `json:"confidence"`      // "high", "medium", "low"
	ConfidenceScore float64       `json:"confidenceScore"` // 0.0 to 1.0
}

// RunningFitness is what a run's best efforts say about race fitness
type RunningFitness struct {
	BestEfforts []BestEffort     `json:"bestEfforts"`
	Source      *BestEffort      `json:"source,omitempty"` // effort VDOT was derived from
	VDOT        float64          `json:"vdot"`
	Level       string           `json:"level,omitempty"`
	Predictions []RacePrediction `json:"predictions,omitempty"`
}

// AssessRunning finds a run's best efforts and, when one covers at least a
// mile, derives VDOT and race predictions from the longest. Returns nil for
// other sports or runs without a 400m effort.
func AssessRunning(sport Sport, samples []Sample, decoupling float64) *RunningFitness {
	if sport != SportRunning {
		return nil
	}

	efforts := FindBestEfforts(samples)
	if len(efforts) == 0 {
		return nil
	}

	rf := &RunningFitness{BestEfforts: efforts}
	source := SelectSourceEffort(efforts)
	if source == nil {
		return rf
	}

	rf.Source = source
	rf.VDOT = CalculateVDOT(source.DistanceMeters, source.Duration)
	rf.Level = GetVDOTLabel(rf.VDOT)
	rf.Predictions = GeneratePredictions(source, decoupling)
	return rf
}

// SelectSourceEffort chooses the effort to predict from. Longer efforts
// are preferred; anything under a mile is too anaerobic to use.
func SelectSourceEffort(efforts []BestEffort) *BestEffort {
	var best *BestEffort
	for i := range efforts {
		e := &efforts[i]
		if e.DistanceMeters < Distance1Mile {
			continue
		}
		if best == nil || e.DistanceMeters > best.DistanceMeters {
			best = e
		}
	}
	return best
}

// CalculateConfidence calculates a confidence score for a prediction
// Factors: distance extrapolation ratio, aerobic decoupling of the session
// Returns a score from 0.0 to 1.0
func CalculateConfidence(source *BestEffort, targetDistance, decoupling float64) (float64, string) {
	if source == nil || source.DistanceMeters <= 0 {
		return 0, "low"
	}

	score := 1.0

	// Factor 1: Distance extrapolation ratio
	// Predictions are less reliable when extrapolating to much longer distances
	ratio := targetDistance / source.DistanceMeters
	if ratio < 1 {
		ratio = 1 / ratio // Make ratio symmetric for shorter predictions
	}

	switch {
	case ratio > 4:
		score *= 0.7 // Large extrapolation (e.g., 5K to marathon)
	case ratio > 2:
		score *= 0.85 // Moderate extrapolation
	case ratio > 1.5:
		score *= 0.95 // Small extrapolation
	}

	// Factor 2: drifting HR means longer targets are optimistic
	if decoupling > 5 && targetDistance > source.DistanceMeters {
		score *= 0.85
	}

	var label string
	switch {
	case score >= 0.85:
		label = "high"
	case score >= 0.65:
		label = "medium"
	default:
		label = "low"
	}

	return score, label
}

// GeneratePredictions produces race time predictions for every target
// distance except the one the source effort already covers
func GeneratePredictions(source *BestEffort, decoupling float64) []RacePrediction {
	if source == nil {
		return nil
	}

	vdot := CalculateVDOT(source.DistanceMeters, source.Duration)
	if vdot <= 0 {
		return nil
	}

	var predictions []RacePrediction
	for _, target := range PredictionTargets {
		if matchesDistance(target.DistanceMeters, source.DistanceMeters) {
			continue
		}

		predicted := PredictTime(vdot, target.DistanceMeters)
		if predicted <= 0 {
			continue
		}

		score, label := CalculateConfidence(source, target.DistanceMeters, decoupling)
		predictions = append(predictions, RacePrediction{
			TargetName:      target.Name,
			TargetMeters:    target.DistanceMeters,
			Predicted:       predicted,
			PacePerKm:       predicted.Seconds() / (target.DistanceMeters / Distance1K),
			VDOT:            vdot,
			Confidence:      label,
			ConfidenceScore: math.Round(score*100) / 100,
		})
	}

	return predictions
}

// GetTargetLabel returns a human-readable label for a target distance
func GetTargetLabel(targetName string) string {
	labels := map[string]string{
		"5k":       "5K",
		"10k":      "10K",
		"half":     "Half Marathon",
		"marathon": "Marathon",
	}
	if label, ok := labels[targetName]; ok {
		return label
	}
	return targetName
}
