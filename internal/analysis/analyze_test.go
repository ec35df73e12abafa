package analysis

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"trainingload/internal/activity"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"rolling", ModeRolling, false},
		{"zones", ModeZones, false},
		{" Zones ", ModeZones, false},
		{"", "", true},
		{"peak", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func rideDocument() activity.Document {
	var tps []activity.Trackpoint
	for i := 0; i <= 40; i++ {
		tps = append(tps, trackpoint(i*60,
			floatPtr(100+2.25*float64(i)),
			floatPtr(float64(i)*450),
			floatPtr(150+float64(i)*2)))
	}
	return activity.Document{
		Sport: "Biking",
		Laps: []activity.Lap{{
			StartTime:        testStart,
			TotalTimeSeconds: 2400,
			DistanceMeters:   18000,
			Tracks:           []activity.Track{{Trackpoints: tps}},
		}},
	}
}

func TestRolling(t *testing.T) {
	n := Normalize(rideDocument())
	r := Rolling(n, DefaultWindow)

	if r.Mode() != ModeRolling {
		t.Errorf("Mode() = %q", r.Mode())
	}
	if r.Session().Sport != SportCycling {
		t.Errorf("Sport = %v, want cycling", r.Session().Sport)
	}
	if math.Abs(r.Peaks[MetricHR]-(100+2.25*29.5)) > 1e-9 {
		t.Errorf("HR peak = %v", r.Peaks[MetricHR])
	}
	for _, m := range Metrics {
		if len(r.Thresholds[m]) == 0 {
			t.Errorf("no thresholds for %s", m)
		}
	}
	if got := r.Thresholds[MetricPower][3].Max; got != r.Peaks[MetricPower]*1.05 {
		t.Errorf("power zone 4 max = %v, want 1.05 x peak", got)
	}
}

func TestRollingShortActivity(t *testing.T) {
	doc := rideDocument()
	doc.Laps[0].Tracks[0].Trackpoints = doc.Laps[0].Tracks[0].Trackpoints[:5]

	r := Rolling(Normalize(doc), 0)

	if r.Window != DefaultWindow {
		t.Errorf("Window = %v, want default", r.Window)
	}
	if len(r.Thresholds) != 0 {
		t.Errorf("Thresholds = %v, want none", r.Thresholds)
	}
	if r.Peaks[MetricHR] != 0 {
		t.Errorf("HR peak = %v, want 0", r.Peaks[MetricHR])
	}
}

func TestScoreZones(t *testing.T) {
	n := Normalize(rideDocument())
	thresholds := Rolling(n, DefaultWindow).Thresholds

	r := ScoreZones(n, thresholds)

	if r.Mode() != ModeZones {
		t.Errorf("Mode() = %q", r.Mode())
	}
	if r.MetricUsed != MetricPower {
		t.Errorf("MetricUsed = %q, want power", r.MetricUsed)
	}
	if r.TSS <= 0 {
		t.Errorf("TSS = %d, want positive", r.TSS)
	}
	if got := ScoreSession(SportCycling, r.Zones()); got != r.Score {
		t.Errorf("stored score %+v differs from rescoring %+v", r.Score, got)
	}
}

func TestScoreZonesPartialMetrics(t *testing.T) {
	var tps []activity.Trackpoint
	for i := 0; i <= 60; i++ {
		tps = append(tps, trackpoint(i*60, nil, floatPtr(float64(i+1)*200), nil))
	}
	doc := activity.Document{Sport: "Running", Laps: []activity.Lap{{Tracks: []activity.Track{{Trackpoints: tps}}}}}
	n := Normalize(doc)

	bounds := map[Metric][]ZoneBoundary{
		MetricHR:    DeriveZones(170, SportRunning, MetricHR),
		MetricSpeed: DeriveZones(3.5, SportRunning, MetricSpeed),
	}
	r := ScoreZones(n, bounds)

	if r.MetricUsed != MetricSpeed {
		t.Errorf("MetricUsed = %q, want speed", r.MetricUsed)
	}
	if len(r.Classifications[MetricHR].Zones) != 0 {
		t.Errorf("hr zones = %v, want empty", r.Classifications[MetricHR].Zones)
	}
}

func TestScoreZonesNoBoundaries(t *testing.T) {
	r := ScoreZones(Normalize(rideDocument()), nil)

	if r.Score != (Score{TSS: 0, MetricUsed: MetricNone}) {
		t.Errorf("Score = %+v, want zero with metric none", r.Score)
	}
}

func TestResultJSON(t *testing.T) {
	n := Normalize(rideDocument())
	results := []Result{
		Rolling(n, 20*time.Minute),
		ScoreZones(n, Rolling(n, DefaultWindow).Thresholds),
	}

	for _, r := range results {
		t.Run(string(r.Mode()), func(t *testing.T) {
			data, err := json.Marshal(r)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if decoded["sport"] != "cycling" {
				t.Errorf("sport = %v, want cycling", decoded["sport"])
			}
		})
	}
}

func TestBoundaries(t *testing.T) {
	n := Normalize(rideDocument())
	rolling := Rolling(n, DefaultWindow)

	if got := Boundaries(rolling); len(got[MetricPower]) != len(rolling.Thresholds[MetricPower]) {
		t.Errorf("Boundaries(rolling) power = %v", got[MetricPower])
	}

	scored := ScoreZones(n, rolling.Thresholds)
	got := Boundaries(scored)
	for _, m := range Metrics {
		want := rolling.Thresholds[m]
		if len(got[m]) != len(want) {
			t.Errorf("Boundaries(zones) %s has %d zones, want %d", m, len(got[m]), len(want))
			continue
		}
		for i := range want {
			if got[m][i] != want[i] {
				t.Errorf("Boundaries(zones) %s[%d] = %+v, want %+v", m, i, got[m][i], want[i])
			}
		}
	}
}
