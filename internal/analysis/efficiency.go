package analysis

// Samples outside these limits are treated as stopped or sensor noise
const (
	minMovingSpeed = 0.5 // m/s
	minValidHR     = 80
	maxValidHR     = 220
)

// efficiencyOutput picks the work measure efficiency is computed from:
// power for rides that recorded it, speed otherwise
func efficiencyOutput(sport Sport, samples []Sample) Metric {
	if sport == SportCycling {
		for _, s := range samples {
			if _, ok := s.Value(MetricPower); ok {
				return MetricPower
			}
		}
	}
	return MetricSpeed
}

// EfficiencyFactor is output per heartbeat: watts / HR for rides with
// power, otherwise speed in m/min / HR. Higher is better - more work for
// the same HR. Typical running values range from 1.0 to 2.0.
// Returns 0 without usable HR and output.
func EfficiencyFactor(sport Sport, samples []Sample) float64 {
	return efficiency(samples, efficiencyOutput(sport, samples))
}

func efficiency(samples []Sample, output Metric) float64 {
	var totalOutput, totalHR float64
	var count int

	for _, s := range samples {
		hr, ok := s.Value(MetricHR)
		if !ok || hr <= minValidHR || hr >= maxValidHR {
			continue
		}
		v, ok := s.Value(output)
		if !ok {
			continue
		}
		// Filter noise: must be actually moving
		if output == MetricSpeed && v <= minMovingSpeed || output == MetricPower && v <= 0 {
			continue
		}
		totalOutput += v
		totalHR += hr
		count++
	}

	if count == 0 {
		return 0
	}

	avgOutput := totalOutput / float64(count)
	if output == MetricSpeed {
		avgOutput *= 60 // m/s to m/min
	}
	return avgOutput / (totalHR / float64(count))
}
