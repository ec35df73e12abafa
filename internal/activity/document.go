// Package activity decodes recorded workouts into a format-neutral parse tree.
package activity

import (
	"errors"
	"time"
)

// ErrMalformedDocument is returned when a file cannot be decoded at all.
var ErrMalformedDocument = errors.New("malformed activity document")

// ErrUnknownFormat is returned when the file is neither TCX nor FIT
var ErrUnknownFormat = errors.New("unknown activity file format")

// Document is one recorded activity: a sport tag and its laps in time order.
type Document struct {
	ID    string // activity Id (usually the start time as written by the device)
	Sport string // raw sport tag, e.g. "Biking", "Running", "Other"
	Laps  []Lap
}

// Lap groups contiguous trackpoints with the device-reported lap totals.
type Lap struct {
	StartTime        time.Time
	TotalTimeSeconds float64
	DistanceMeters   float64
	AverageHeartRate *float64 // nullable
	Tracks           []Track
}

// Track is one recorded segment within a lap.
type Track struct {
	Trackpoints []Trackpoint
}

// Trackpoint is a single timestamped reading. Absent readings are nil.
type Trackpoint struct {
	Time           time.Time
	HeartRate      *float64 // bpm
	DistanceMeters *float64 // cumulative meters
	PowerWatts     *float64 // watts
}

// StartTime returns the first known timestamp of the document.
func (d Document) StartTime() time.Time {
	for _, lap := range d.Laps {
		if !lap.StartTime.IsZero() {
			return lap.StartTime
		}
		for _, track := range lap.Tracks {
			for _, tp := range track.Trackpoints {
				if !tp.Time.IsZero() {
					return tp.Time
				}
			}
		}
	}
	return time.Time{}
}

// TrackpointCount returns the number of trackpoints across all laps.
func (d Document) TrackpointCount() int {
	n := 0
	for _, lap := range d.Laps {
		for _, track := range lap.Tracks {
			n += len(track.Trackpoints)
		}
	}
	return n
}
