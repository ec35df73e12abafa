package activity

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/tormoder/fit"
)

// ParseFIT decodes a Garmin FIT activity file into the same parse tree as ParseTCX.
func ParseFIT(data []byte) (Document, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("%w: decoding FIT: %v", ErrMalformedDocument, err)
	}

	af, err := decoded.Activity()
	if err != nil {
		return Document{}, fmt.Errorf("%w: activity FIT expected: %v", ErrMalformedDocument, err)
	}

	return convertFIT(af), nil
}

// convertFIT maps sessions to the sport tag, laps to Lap and records to
// trackpoints. Each record belongs to the last lap that started at or before it.
func convertFIT(af *fit.ActivityFile) Document {
	var doc Document

	if len(af.Sessions) > 0 {
		doc.Sport = fitSportTag(af.Sessions[0].Sport)
		if t := validTime(af.Sessions[0].StartTime); !t.IsZero() {
			doc.ID = t.UTC().Format(time.RFC3339)
		}
	}

	for _, l := range af.Laps {
		lap := Lap{
			StartTime:        validTime(l.StartTime),
			TotalTimeSeconds: finiteOrZero(l.GetTotalTimerTimeScaled()),
			DistanceMeters:   finiteOrZero(l.GetTotalDistanceScaled()),
		}
		if l.AvgHeartRate != 0xFF && l.AvgHeartRate != 0 {
			hr := float64(l.AvgHeartRate)
			lap.AverageHeartRate = &hr
		}
		doc.Laps = append(doc.Laps, lap)
	}

	if len(af.Records) == 0 {
		return doc
	}
	if len(doc.Laps) == 0 {
		doc.Laps = []Lap{{StartTime: validTime(af.Records[0].Timestamp)}}
	}

	tracks := make([]Track, len(doc.Laps))
	for _, rec := range af.Records {
		ts := validTime(rec.Timestamp)
		idx := 0
		for i := range doc.Laps {
			if !doc.Laps[i].StartTime.IsZero() && !ts.Before(doc.Laps[i].StartTime) {
				idx = i
			}
		}

		tp := Trackpoint{Time: ts}
		if rec.HeartRate != math.MaxUint8 {
			hr := float64(rec.HeartRate)
			tp.HeartRate = &hr
		}
		if rec.Power != math.MaxUint16 {
			p := float64(rec.Power)
			tp.PowerWatts = &p
		}
		if d := rec.GetDistanceScaled(); !math.IsNaN(d) && !math.IsInf(d, 0) {
			tp.DistanceMeters = &d
		}
		tracks[idx].Trackpoints = append(tracks[idx].Trackpoints, tp)
	}

	for i := range doc.Laps {
		if len(tracks[i].Trackpoints) > 0 {
			doc.Laps[i].Tracks = []Track{tracks[i]}
		}
	}
	return doc
}

// fitSportTag maps FIT sports onto the TCX sport vocabulary.
func fitSportTag(s fit.Sport) string {
	switch s {
	case fit.SportCycling:
		return "Biking"
	case fit.SportRunning:
		return "Running"
	case fit.SportSwimming:
		return "Swimming"
	default:
		return "Other"
	}
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
