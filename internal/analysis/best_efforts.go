package analysis

import "time"

// BestEffort is the fastest stretch of a given distance within a session
type BestEffort struct {
	DistanceMeters float64       `json:"distanceMeters"`
	Duration       time.Duration `json:"durationNs"`
	StartMs        int64         `json:"startMs"` // sample timestamp where the effort starts
	EndMs          int64         `json:"endMs"`
	AvgHeartRate   float64       `json:"avgHeartRate"`
}

// Standard effort distances in meters
const (
	Distance400m       = 400
	Distance1K         = 1000
	Distance1Mile      = 1609.34
	Distance5K         = 5000
	Distance10K        = 10000
	DistanceHalfMara   = 21097
	DistanceMarathon   = 42195
	MinPointsForEffort = 10 // minimum samples needed
)

// EffortDistances defines the standard best effort distances to track
var EffortDistances = []float64{
	Distance400m,
	Distance1K,
	Distance1Mile,
	Distance5K,
	Distance10K,
	DistanceHalfMara,
}

// cumulativeDistance integrates speed over time. The speed of a sample
// covers the interval ending at it; samples without speed add nothing.
func cumulativeDistance(samples []Sample) []float64 {
	dist := make([]float64, len(samples))
	for i := 1; i < len(samples); i++ {
		dist[i] = dist[i-1]
		speed, ok := samples[i].Value(MetricSpeed)
		if !ok || speed <= 0 {
			continue
		}
		dt := float64(samples[i].TimestampMs-samples[i-1].TimestampMs) / 1000
		if dt > 0 {
			dist[i] += speed * dt
		}
	}
	return dist
}

// FindBestEffort finds the fastest stretch covering targetDistance meters.
// Two pointers keep it O(n). Returns nil if the session is shorter than
// targetDistance or has insufficient data.
func FindBestEffort(samples []Sample, targetDistance float64) *BestEffort {
	if len(samples) < MinPointsForEffort || targetDistance <= 0 {
		return nil
	}
	return bestEffort(samples, cumulativeDistance(samples), targetDistance)
}

func bestEffort(samples []Sample, dist []float64, targetDistance float64) *BestEffort {
	if dist[len(dist)-1] < targetDistance {
		return nil
	}

	var best *BestEffort
	left := 0
	for right := 1; right < len(samples); right++ {
		// Tightest start that still covers the target
		for left+1 < right && dist[right]-dist[left+1] >= targetDistance {
			left++
		}
		covered := dist[right] - dist[left]
		if covered < targetDistance {
			continue
		}

		durationMs := samples[right].TimestampMs - samples[left].TimestampMs
		if durationMs <= 0 {
			continue
		}
		d := time.Duration(durationMs) * time.Millisecond
		if best == nil || d < best.Duration {
			best = &BestEffort{
				DistanceMeters: covered,
				Duration:       d,
				StartMs:        samples[left].TimestampMs,
				EndMs:          samples[right].TimestampMs,
				AvgHeartRate:   segmentAvgHR(samples[left : right+1]),
			}
		}
	}
	return best
}

// FindBestEfforts returns the best effort for every standard distance the
// session covers, shortest first
func FindBestEfforts(samples []Sample) []BestEffort {
	if len(samples) < MinPointsForEffort {
		return nil
	}

	dist := cumulativeDistance(samples)
	var efforts []BestEffort
	for _, target := range EffortDistances {
		if e := bestEffort(samples, dist, target); e != nil {
			efforts = append(efforts, *e)
		}
	}
	return efforts
}

// segmentAvgHR calculates average HR for a stretch of samples
func segmentAvgHR(samples []Sample) float64 {
	var hrSum float64
	var hrCount int

	for _, s := range samples {
		if hr, ok := s.Value(MetricHR); ok && hr > 50 {
			hrSum += hr
			hrCount++
		}
	}

	if hrCount > 0 {
		return hrSum / float64(hrCount)
	}
	return 0
}

// PacePerKm returns an effort's pace in seconds per kilometer
func (e BestEffort) PacePerKm() float64 {
	if e.DistanceMeters <= 0 {
		return 0
	}
	return e.Duration.Seconds() / (e.DistanceMeters / Distance1K)
}
