package analysis

import (
	"math"
	"testing"
	"time"
)

func TestClassifyConstantHR(t *testing.T) {
	samples := []Sample{
		{TimestampMs: 0, HeartRate: floatPtr(150)},
		{TimestampMs: 3_600_000, HeartRate: floatPtr(150)},
	}
	bounds := []ZoneBoundary{{Zone: 1, Min: 0, Max: OpenEnded}}

	c := Classify(samples, bounds, SportRunning, MetricHR)

	if len(c.Zones) != 1 {
		t.Fatalf("len(Zones) = %d, want 1", len(c.Zones))
	}
	if c.Zones[0].Percent != 100 {
		t.Errorf("Percent = %v, want 100", c.Zones[0].Percent)
	}
	if c.Zones[0].TimeMs != 3_600_000 {
		t.Errorf("TimeMs = %v, want 3600000", c.Zones[0].TimeMs)
	}
	if c.ClassifiedPercent != 100 {
		t.Errorf("ClassifiedPercent = %v, want 100", c.ClassifiedPercent)
	}
}

func TestClassifyHalfOpenIntervals(t *testing.T) {
	bounds := []ZoneBoundary{
		{Zone: 1, Min: 0, Max: 120},
		{Zone: 2, Min: 120, Max: 150},
		{Zone: 3, Min: 150, Max: OpenEnded},
	}
	samples := hrSeries(time.Minute, 119.9, 120, 149.99, 150, 200)

	c := Classify(samples, bounds, SportCycling, MetricHR)

	want := []int64{60_000, 120_000, 60_000}
	for i, w := range want {
		if c.Zones[i].TimeMs != w {
			t.Errorf("zone %d TimeMs = %d, want %d", i+1, c.Zones[i].TimeMs, w)
		}
	}
	if c.TotalMs != 240_000 || c.ClassifiableMs != 240_000 {
		t.Errorf("TotalMs/ClassifiableMs = %d/%d, want 240000", c.TotalMs, c.ClassifiableMs)
	}
}

func TestClassifyAbsentValues(t *testing.T) {
	samples := hrSeries(time.Minute, 130, 130, 130, 130)
	samples[1].HeartRate = nil

	bounds := []ZoneBoundary{{Zone: 1, Min: 0, Max: OpenEnded}}
	c := Classify(samples, bounds, SportRunning, MetricHR)

	if c.ClassifiedPercent != 75 {
		t.Errorf("ClassifiedPercent = %v, want 75", c.ClassifiedPercent)
	}
	if c.TotalMs != 180_000 {
		t.Errorf("TotalMs = %d, want 180000", c.TotalMs)
	}
	// The interval after the missing reading is not credited.
	if c.Zones[0].TimeMs != 120_000 {
		t.Errorf("TimeMs = %d, want 120000", c.Zones[0].TimeMs)
	}
	if c.Zones[0].Percent != 100 {
		t.Errorf("Percent = %v, want 100 of classifiable time", c.Zones[0].Percent)
	}
}

func TestClassifyEmpty(t *testing.T) {
	samples := hrSeries(time.Minute, 130, 140)

	tests := []struct {
		name    string
		samples []Sample
		bounds  []ZoneBoundary
		metric  Metric
	}{
		{"no bounds", samples, nil, MetricHR},
		{"no samples", nil, []ZoneBoundary{{Zone: 1, Min: 0, Max: OpenEnded}}, MetricHR},
		{"metric never defined", samples, []ZoneBoundary{{Zone: 1, Min: 0, Max: OpenEnded}}, MetricPower},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.samples, tt.bounds, SportCycling, tt.metric)
			if len(c.Zones) != 0 {
				t.Errorf("len(Zones) = %d, want 0", len(c.Zones))
			}
			if c.ClassifiedPercent != 0 {
				t.Errorf("ClassifiedPercent = %v, want 0", c.ClassifiedPercent)
			}
		})
	}
}

func TestClassifyNormalizesBoundaries(t *testing.T) {
	// Reversed order and inverted min/max, as pace-style sources store them.
	bounds := []ZoneBoundary{
		{Zone: 2, Min: OpenEnded, Max: 3},
		{Zone: 1, Min: 3, Max: 0},
	}
	samples := []Sample{
		{TimestampMs: 0, Speed: floatPtr(2.5)},
		{TimestampMs: 1000, Speed: floatPtr(3.5)},
		{TimestampMs: 3000, Speed: floatPtr(3.5)},
	}

	c := Classify(samples, bounds, SportRunning, MetricSpeed)

	if c.Zones[0].Zone != 1 || c.Zones[0].TimeMs != 1000 {
		t.Errorf("zone 1 = %+v, want 1000ms", c.Zones[0])
	}
	if c.Zones[1].Zone != 2 || c.Zones[1].TimeMs != 2000 {
		t.Errorf("zone 2 = %+v, want 2000ms", c.Zones[1])
	}
	if c.Zones[1].Min != 3 || c.Zones[1].Max != OpenEnded {
		t.Errorf("zone 2 range = [%v, %v), want [3, OpenEnded)", c.Zones[1].Min, c.Zones[1].Max)
	}
}

func TestClassifyNonContiguousFirstMatch(t *testing.T) {
	// Overlapping zones: the lower index wins.
	bounds := []ZoneBoundary{
		{Zone: 1, Min: 100, Max: 160},
		{Zone: 2, Min: 140, Max: 200},
	}
	samples := hrSeries(time.Minute, 90, 150, 170, 170)

	c := Classify(samples, bounds, SportCycling, MetricHR)

	if c.Zones[0].TimeMs != 60_000 {
		t.Errorf("zone 1 TimeMs = %d, want 60000", c.Zones[0].TimeMs)
	}
	if c.Zones[1].TimeMs != 60_000 {
		t.Errorf("zone 2 TimeMs = %d, want 60000", c.Zones[1].TimeMs)
	}

	var sum int64
	for _, z := range c.Zones {
		sum += z.TimeMs
	}
	if sum > c.TotalMs {
		t.Errorf("zone time %d exceeds total %d", sum, c.TotalMs)
	}
	if sum == c.TotalMs {
		t.Errorf("out-of-range reading was credited")
	}
}

func TestClassifyCoversDerivedZones(t *testing.T) {
	samples := rampSamples()
	bounds := DeriveZones(Peak(samples, MetricHR, DefaultWindow), SportRunning, MetricHR)

	c := Classify(samples, bounds, SportRunning, MetricHR)

	var sum int64
	var pct float64
	for _, z := range c.Zones {
		sum += z.TimeMs
		pct += z.Percent
	}
	if sum != c.TotalMs {
		t.Errorf("zone time = %d, want total %d", sum, c.TotalMs)
	}
	if math.Abs(pct-100) > 1e-9 {
		t.Errorf("zone percentages sum to %v, want 100", pct)
	}
}

func TestZoneLookupMatchesScan(t *testing.T) {
	bounds := DeriveZones(250, SportCycling, MetricPower)
	fast := newZoneLookup(bounds)
	slow := zoneLookup{zones: bounds}

	if !fast.contiguous {
		t.Fatal("derived zones not detected as contiguous")
	}
	for v := -10.0; v < 500; v += 0.5 {
		if got, want := fast.find(v), slow.find(v); got != want {
			t.Errorf("find(%v) = %d, want %d", v, got, want)
		}
	}
}

func TestZoneIndex(t *testing.T) {
	idx := NewZoneIndex([]ZoneBoundary{
		{Zone: 2, Min: 150, Max: OpenEnded},
		{Zone: 1, Min: 0, Max: 150},
	})

	tests := []struct {
		v    float64
		want int
	}{
		{-1, 0},
		{0, 1},
		{149.9, 1},
		{150, 2},
		{1e9, 2},
	}
	for _, tt := range tests {
		if got := idx.Zone(tt.v); got != tt.want {
			t.Errorf("Zone(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}

	if got := NewZoneIndex(nil).Zone(10); got != 0 {
		t.Errorf("empty index Zone() = %d, want 0", got)
	}
}
