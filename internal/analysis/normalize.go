package analysis

import (
	"sort"
	"strings"
	"time"

	"trainingload/internal/activity"
)

// Metadata holds the session totals derived from an activity
type Metadata struct {
	TotalDistanceM  float64   `json:"totalDistanceM"`
	TotalTimeSec    float64   `json:"totalTimeSec"`
	AvgHeartRate    float64   `json:"avgHeartRate"`
	AvgSpeedMPerSec float64   `json:"avgSpeedMPerSec"`
	AvgPower        float64   `json:"avgPower"`
	StartTime       time.Time `json:"startTime"`
	LapCount        int       `json:"lapCount"`
}

// Normalized is the ordered sample series plus session metadata
type Normalized struct {
	Sport    Sport
	RawSport string
	Samples  []Sample
	Meta     Metadata
}

// UnknownSport is the raw tag recorded when a document has none
const UnknownSport = "Unknown"

// Normalize flattens a parsed activity into a time-ordered sample series.
//
// Speed comes from consecutive cumulative distances when both are reported
// and time advances, otherwise from the lap's average speed. A cumulative
// distance of zero or less counts as not reported, which is how pool swims
// record it. Samples whose speed works out to exactly zero are dropped.
func Normalize(doc activity.Document) Normalized {
	raw := strings.TrimSpace(doc.Sport)
	if raw == "" {
		raw = UnknownSport
	}

	n := Normalized{
		Sport:    SportFromTag(raw),
		RawSport: raw,
	}

	var (
		prevDist *float64
		prevTime time.Time
	)

	for _, lap := range doc.Laps {
		var lapSpeed *float64
		if lap.DistanceMeters > 0 && lap.TotalTimeSeconds > 0 {
			v := lap.DistanceMeters / lap.TotalTimeSeconds
			lapSpeed = &v
		}

		for _, track := range lap.Tracks {
			for _, tp := range track.Trackpoints {
				if tp.Time.IsZero() {
					continue
				}

				dist := reportedDistance(tp.DistanceMeters)

				var speed *float64
				if dist != nil && prevDist != nil {
					dt := tp.Time.Sub(prevTime).Seconds()
					if dt > 0 {
						if v := (*dist - *prevDist) / dt; v >= 0 {
							speed = &v
						}
					}
				}
				if speed == nil && lapSpeed != nil {
					v := *lapSpeed
					speed = &v
				}

				prevDist = dist
				prevTime = tp.Time

				if speed != nil && *speed == 0 {
					continue
				}

				n.Samples = append(n.Samples, Sample{
					TimestampMs: tp.Time.UnixMilli(),
					HeartRate:   copyFloat(tp.HeartRate),
					Speed:       speed,
					Power:       copyFloat(tp.PowerWatts),
				})
			}
		}
	}

	sort.SliceStable(n.Samples, func(i, j int) bool {
		return n.Samples[i].TimestampMs < n.Samples[j].TimestampMs
	})

	n.Meta = extractMetadata(doc, raw)
	return n
}

// usesLapTotals reports whether trackpoint distance is unreliable for the tag
func usesLapTotals(raw string) bool {
	return strings.EqualFold(raw, "Other") || strings.EqualFold(raw, "Swimming")
}

func extractMetadata(doc activity.Document, raw string) Metadata {
	meta := Metadata{
		StartTime: doc.StartTime(),
		LapCount:  len(doc.Laps),
	}

	var (
		hrSum, powerSum     float64
		hrCount, powerCount int
	)

	lapTotals := usesLapTotals(raw)

	for _, lap := range doc.Laps {
		meta.TotalTimeSec += lap.TotalTimeSeconds

		if lapTotals {
			meta.TotalDistanceM += lap.DistanceMeters
			if lap.AverageHeartRate != nil {
				hrSum += *lap.AverageHeartRate
				hrCount++
			}
		}

		for _, track := range lap.Tracks {
			var first, last *float64
			for _, tp := range track.Trackpoints {
				if tp.PowerWatts != nil {
					powerSum += *tp.PowerWatts
					powerCount++
				}
				if lapTotals {
					continue
				}
				if tp.HeartRate != nil {
					hrSum += *tp.HeartRate
					hrCount++
				}
				if tp.DistanceMeters != nil {
					if first == nil {
						first = tp.DistanceMeters
					}
					last = tp.DistanceMeters
				}
			}
			if first != nil && last != nil && *last > *first {
				meta.TotalDistanceM += *last - *first
			}
		}
	}

	if hrCount > 0 {
		meta.AvgHeartRate = hrSum / float64(hrCount)
	}
	if powerCount > 0 {
		meta.AvgPower = powerSum / float64(powerCount)
	}
	if meta.TotalTimeSec > 0 {
		meta.AvgSpeedMPerSec = meta.TotalDistanceM / meta.TotalTimeSec
	}
	return meta
}

func reportedDistance(d *float64) *float64 {
	if d == nil || *d <= 0 {
		return nil
	}
	v := *d
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
