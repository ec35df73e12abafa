package activity

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type tcxDatabase struct {
	XMLName    xml.Name `xml:"TrainingCenterDatabase"`
	Activities struct {
		Activity []tcxActivity `xml:"Activity"`
	} `xml:"Activities"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	StartTime        string     `xml:"StartTime,attr"`
	TotalTimeSeconds string     `xml:"TotalTimeSeconds"`
	DistanceMeters   string     `xml:"DistanceMeters"`
	AverageHeartRate *tcxValue  `xml:"AverageHeartRateBpm"`
	Tracks           []tcxTrack `xml:"Track"`
}

type tcxValue struct {
	Value string `xml:"Value"`
}

type tcxTrack struct {
	Trackpoints []tcxTrackpoint `xml:"Trackpoint"`
}

type tcxTrackpoint struct {
	Time           string    `xml:"Time"`
	HeartRate      *tcxValue `xml:"HeartRateBpm"`
	DistanceMeters string    `xml:"DistanceMeters"`
	Extensions     struct {
		TPX []struct {
			Watts string `xml:"Watts"`
		} `xml:"TPX"`
	} `xml:"Extensions"`
}

// ParseTCX decodes a Garmin Training Center XML document.
// Only the first Activity is used. A document without activities or laps
// decodes to an empty Document rather than an error.
func ParseTCX(data []byte) (Document, error) {
	var db tcxDatabase
	decoder := xml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&db); err != nil {
		return Document{}, fmt.Errorf("%w: decoding TCX: %v", ErrMalformedDocument, err)
	}

	if len(db.Activities.Activity) == 0 {
		return Document{}, nil
	}

	a := db.Activities.Activity[0]
	doc := Document{
		ID:    strings.TrimSpace(a.ID),
		Sport: strings.TrimSpace(a.Sport),
		Laps:  make([]Lap, 0, len(a.Laps)),
	}

	for _, l := range a.Laps {
		lap := Lap{
			StartTime:        parseTCXTime(l.StartTime),
			TotalTimeSeconds: parseFloatOrZero(l.TotalTimeSeconds),
			DistanceMeters:   parseFloatOrZero(l.DistanceMeters),
		}
		if l.AverageHeartRate != nil {
			lap.AverageHeartRate = parseFloatPtr(l.AverageHeartRate.Value)
		}

		for _, t := range l.Tracks {
			track := Track{Trackpoints: make([]Trackpoint, 0, len(t.Trackpoints))}
			for _, p := range t.Trackpoints {
				tp := Trackpoint{
					Time:           parseTCXTime(p.Time),
					DistanceMeters: parseFloatPtr(p.DistanceMeters),
				}
				if p.HeartRate != nil {
					tp.HeartRate = parseFloatPtr(p.HeartRate.Value)
				}
				for _, ext := range p.Extensions.TPX {
					if w := parseFloatPtr(ext.Watts); w != nil {
						tp.PowerWatts = w
						break
					}
				}
				track.Trackpoints = append(track.Trackpoints, tp)
			}
			lap.Tracks = append(lap.Tracks, track)
		}

		doc.Laps = append(doc.Laps, lap)
	}

	return doc, nil
}

func parseTCXTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseFloatOrZero(s string) float64 {
	if v := parseFloatPtr(s); v != nil {
		return *v
	}
	return 0
}
