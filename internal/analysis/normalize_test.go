package analysis

import (
	"math"
	"testing"
	"time"

	"trainingload/internal/activity"
)

func floatPtr(f float64) *float64 {
	return &f
}

var testStart = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

func trackpoint(sec int, hr, dist, power *float64) activity.Trackpoint {
	return activity.Trackpoint{
		Time:           testStart.Add(time.Duration(sec) * time.Second),
		HeartRate:      hr,
		DistanceMeters: dist,
		PowerWatts:     power,
	}
}

func TestNormalizeSportMapping(t *testing.T) {
	tests := []struct {
		tag     string
		want    Sport
		wantRaw string
	}{
		{"Biking", SportCycling, "Biking"},
		{"Running", SportRunning, "Running"},
		{"Other", SportOther, "Other"},
		{"Swimming", SportOther, "Swimming"},
		{"Hiking", SportOther, "Hiking"},
		{"", SportOther, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.wantRaw, func(t *testing.T) {
			n := Normalize(activity.Document{Sport: tt.tag})
			if n.Sport != tt.want {
				t.Errorf("Sport = %v, want %v", n.Sport, tt.want)
			}
			if n.RawSport != tt.wantRaw {
				t.Errorf("RawSport = %q, want %q", n.RawSport, tt.wantRaw)
			}
		})
	}
}

func TestNormalizeSwimLapFallback(t *testing.T) {
	var tps []activity.Trackpoint
	for i := 0; i < 5; i++ {
		tps = append(tps, trackpoint(i*240, floatPtr(130), floatPtr(0), nil))
	}
	doc := activity.Document{
		Sport: "Other",
		Laps: []activity.Lap{{
			StartTime:        testStart,
			DistanceMeters:   1500,
			TotalTimeSeconds: 1200,
			AverageHeartRate: floatPtr(128),
			Tracks:           []activity.Track{{Trackpoints: tps}},
		}},
	}

	n := Normalize(doc)

	if len(n.Samples) != 5 {
		t.Fatalf("len(Samples) = %d, want 5", len(n.Samples))
	}
	for i, s := range n.Samples {
		if s.Speed == nil {
			t.Fatalf("sample %d speed absent, want 1.25", i)
		}
		if *s.Speed != 1.25 {
			t.Errorf("sample %d speed = %v, want 1.25", i, *s.Speed)
		}
	}

	if n.Meta.TotalDistanceM != 1500 {
		t.Errorf("TotalDistanceM = %v, want 1500", n.Meta.TotalDistanceM)
	}
	if n.Meta.TotalTimeSec != 1200 {
		t.Errorf("TotalTimeSec = %v, want 1200", n.Meta.TotalTimeSec)
	}
	if n.Meta.AvgHeartRate != 128 {
		t.Errorf("AvgHeartRate = %v, want lap average 128", n.Meta.AvgHeartRate)
	}
	if n.Meta.AvgSpeedMPerSec != 1.25 {
		t.Errorf("AvgSpeedMPerSec = %v, want 1.25", n.Meta.AvgSpeedMPerSec)
	}
}

func TestNormalizeSpeedFromDistance(t *testing.T) {
	doc := activity.Document{
		Sport: "Running",
		Laps: []activity.Lap{{
			StartTime:        testStart,
			DistanceMeters:   100,
			TotalTimeSeconds: 40,
			Tracks: []activity.Track{{Trackpoints: []activity.Trackpoint{
				trackpoint(0, floatPtr(140), floatPtr(10), nil),
				trackpoint(10, floatPtr(150), floatPtr(40), nil),
				trackpoint(20, floatPtr(160), floatPtr(40), nil), // stationary
				trackpoint(30, floatPtr(170), floatPtr(70), nil),
				trackpoint(40, nil, nil, nil), // no distance: lap average
			}}},
		}},
	}

	n := Normalize(doc)

	// The stationary point is dropped.
	if len(n.Samples) != 4 {
		t.Fatalf("len(Samples) = %d, want 4", len(n.Samples))
	}

	wantSpeeds := []float64{2.5, 3, 3, 2.5}
	for i, want := range wantSpeeds {
		if n.Samples[i].Speed == nil || *n.Samples[i].Speed != want {
			t.Errorf("sample %d speed = %v, want %v", i, n.Samples[i].Speed, want)
		}
	}
	if n.Samples[2].TimestampMs != testStart.Add(30*time.Second).UnixMilli() {
		t.Errorf("sample 2 timestamp = %d, want the 30s point", n.Samples[2].TimestampMs)
	}

	if n.Meta.TotalDistanceM != 60 {
		t.Errorf("TotalDistanceM = %v, want 60", n.Meta.TotalDistanceM)
	}
	if n.Meta.TotalTimeSec != 40 {
		t.Errorf("TotalTimeSec = %v, want 40", n.Meta.TotalTimeSec)
	}
	if n.Meta.AvgHeartRate != 155 {
		t.Errorf("AvgHeartRate = %v, want 155", n.Meta.AvgHeartRate)
	}
	if n.Meta.AvgSpeedMPerSec != 1.5 {
		t.Errorf("AvgSpeedMPerSec = %v, want 1.5", n.Meta.AvgSpeedMPerSec)
	}
}

func TestNormalizeKeepsSamplesWithoutSpeed(t *testing.T) {
	doc := activity.Document{
		Sport: "Biking",
		Laps: []activity.Lap{{
			Tracks: []activity.Track{{Trackpoints: []activity.Trackpoint{
				trackpoint(0, floatPtr(120), nil, floatPtr(200)),
				trackpoint(1, floatPtr(121), nil, floatPtr(220)),
			}}},
		}},
	}

	n := Normalize(doc)

	if len(n.Samples) != 2 {
		t.Fatalf("len(Samples) = %d, want 2", len(n.Samples))
	}
	if n.Samples[0].Speed != nil {
		t.Errorf("speed = %v, want absent", *n.Samples[0].Speed)
	}
	if v, ok := n.Samples[1].Value(MetricPower); !ok || v != 220 {
		t.Errorf("power = %v (%v), want 220", v, ok)
	}
	if math.Abs(n.Meta.AvgPower-210) > 1e-9 {
		t.Errorf("AvgPower = %v, want 210", n.Meta.AvgPower)
	}
}

func TestNormalizeLapWithoutTracks(t *testing.T) {
	doc := activity.Document{
		Sport: "Running",
		Laps: []activity.Lap{
			{TotalTimeSeconds: 300, DistanceMeters: 1000},
			{TotalTimeSeconds: 200, DistanceMeters: 800},
		},
	}

	n := Normalize(doc)

	if len(n.Samples) != 0 {
		t.Errorf("len(Samples) = %d, want 0", len(n.Samples))
	}
	if n.Meta.TotalTimeSec != 500 {
		t.Errorf("TotalTimeSec = %v, want 500", n.Meta.TotalTimeSec)
	}
	if n.Meta.LapCount != 2 {
		t.Errorf("LapCount = %d, want 2", n.Meta.LapCount)
	}
}

func TestNormalizeEmptyDocument(t *testing.T) {
	n := Normalize(activity.Document{})

	if len(n.Samples) != 0 {
		t.Errorf("len(Samples) = %d, want 0", len(n.Samples))
	}
	if n.Meta != (Metadata{}) {
		t.Errorf("Meta = %+v, want zero", n.Meta)
	}
}

func TestNormalizeSortsSamples(t *testing.T) {
	doc := activity.Document{
		Sport: "Biking",
		Laps: []activity.Lap{
			{Tracks: []activity.Track{{Trackpoints: []activity.Trackpoint{
				trackpoint(20, floatPtr(130), nil, nil),
			}}}},
			{Tracks: []activity.Track{{Trackpoints: []activity.Trackpoint{
				trackpoint(10, floatPtr(120), nil, nil),
			}}}},
		},
	}

	n := Normalize(doc)

	if len(n.Samples) != 2 || n.Samples[0].TimestampMs > n.Samples[1].TimestampMs {
		t.Errorf("samples not ordered by time: %+v", n.Samples)
	}
}

func TestSportFromTag(t *testing.T) {
	tests := []struct {
		tag  string
		want Sport
	}{
		{"Biking", SportCycling},
		{"cycling", SportCycling},
		{"SportCycling", SportCycling},
		{"RUNNING", SportRunning},
		{"Swimming", SportOther},
		{"", SportOther},
	}
	for _, tt := range tests {
		if got := SportFromTag(tt.tag); got != tt.want {
			t.Errorf("SportFromTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}
