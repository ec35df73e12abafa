package analysis

import (
	"math"
	"testing"
)

// steadyRun returns one sample per second, switching speed at the midpoint
func steadyRun(seconds int, firstSpeed, secondSpeed, hr float64) []Sample {
	samples := make([]Sample, seconds)
	for i := range samples {
		speed := firstSpeed
		if i >= seconds/2 {
			speed = secondSpeed
		}
		samples[i] = effSample(i, speed, hr)
	}
	return samples
}

func TestAerobicDecoupling(t *testing.T) {
	tests := []struct {
		name     string
		samples  []Sample
		expected float64
		delta    float64
	}{
		{
			name:     "empty samples",
			samples:  []Sample{},
			expected: 0,
		},
		{
			name:     "insufficient data - less than 2 minutes",
			samples:  steadyRun(100, 3.0, 3.0, 150),
			expected: 0,
		},
		{
			name:     "no decoupling - consistent efficiency",
			samples:  steadyRun(200, 3.0, 3.0, 150),
			expected: 0,
			delta:    0.1,
		},
		{
			name:    "positive decoupling - second half less efficient",
			samples: steadyRun(201, 3.0, 2.7, 150),
			// (3.0 / 2.7 - 1) * 100
			expected: 11.11,
			delta:    0.1,
		},
		{
			name:     "negative decoupling - second half more efficient",
			samples:  steadyRun(201, 2.7, 3.0, 150),
			expected: -10,
			delta:    0.1,
		},
		{
			name: "no HR in second half",
			samples: func() []Sample {
				samples := steadyRun(200, 3.0, 3.0, 150)
				for i := 100; i < 200; i++ {
					samples[i].HeartRate = nil
				}
				return samples
			}(),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AerobicDecoupling(SportRunning, tt.samples)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("AerobicDecoupling() = %v, want %v (±%v)", result, tt.expected, tt.delta)
			}
		})
	}
}

func TestAerobicDecouplingSplitsByTime(t *testing.T) {
	// Dense first half, sparse second half: a count split would put most of
	// the second half's speed in the first bucket.
	var samples []Sample
	for i := 0; i < 150; i++ {
		samples = append(samples, effSample(i, 3.0, 150))
	}
	for i := 150; i <= 300; i += 30 {
		samples = append(samples, effSample(i, 2.7, 150))
	}

	got := AerobicDecoupling(SportRunning, samples)
	if math.Abs(got-11.11) > 0.1 {
		t.Errorf("AerobicDecoupling() = %v, want ~11.1", got)
	}
}

func TestDecouplingAssessment(t *testing.T) {
	tests := []struct {
		decoupling float64
		want       string
	}{
		{-2, "Excellent aerobic base"},
		{2.9, "Excellent aerobic base"},
		{4, "Good aerobic fitness"},
		{6, "Developing aerobic base"},
		{10, "Needs more easy miles"},
		{15, "Aerobic system needs work"},
	}

	for _, tt := range tests {
		if got := DecouplingAssessment(tt.decoupling); got != tt.want {
			t.Errorf("DecouplingAssessment(%v) = %q, want %q", tt.decoupling, got, tt.want)
		}
	}
}
