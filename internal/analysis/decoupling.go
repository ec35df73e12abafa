package analysis

import "sort"

// minDecouplingMs is the shortest session decoupling is computed for
const minDecouplingMs = 2 * 60 * 1000

// AerobicDecoupling calculates the output:HR drift between the first and
// second half of the session, split at the elapsed-time midpoint.
// Returns percentage - positive means second half was less efficient.
// < 5% on long sessions indicates good aerobic base.
func AerobicDecoupling(sport Sport, samples []Sample) float64 {
	if len(samples) < 2 {
		return 0
	}

	start := samples[0].TimestampMs
	end := samples[len(samples)-1].TimestampMs
	if end-start < minDecouplingMs {
		return 0
	}

	mid := start + (end-start)/2
	split := sort.Search(len(samples), func(i int) bool {
		return samples[i].TimestampMs >= mid
	})

	output := efficiencyOutput(sport, samples)
	firstEF := efficiency(samples[:split], output)
	secondEF := efficiency(samples[split:], output)

	if firstEF == 0 || secondEF == 0 {
		return 0
	}

	// Formula: ((first / second) - 1) * 100
	return (firstEF/secondEF - 1) * 100
}

// DecouplingAssessment returns a human-readable decoupling assessment
func DecouplingAssessment(decoupling float64) string {
	switch {
	case decoupling < 3:
		return "Excellent aerobic base"
	case decoupling < 5:
		return "Good aerobic fitness"
	case decoupling < 8:
		return "Developing aerobic base"
	case decoupling < 12:
		return "Needs more easy miles"
	default:
		return "Aerobic system needs work"
	}
}
