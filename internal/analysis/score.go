package analysis

import "math"

// Score is the session's training stress and the metric it came from
type Score struct {
	TSS        int    `json:"tss"`
	MetricUsed Metric `json:"metricUsed"`
}

// metricPriority is the order metrics are tried in when scoring
var metricPriority = map[Sport][]Metric{
	SportCycling: {MetricPower, MetricHR, MetricSpeed},
	SportRunning: {MetricHR, MetricSpeed},
	SportOther:   {MetricSpeed, MetricHR},
}

// intensityFactors maps zone index (1-based) to intensity factor
var intensityFactors = map[zoneKey][]float64{
	{SportCycling, MetricPower}: {0.50, 0.65, 0.83, 0.98, 1.13, 1.35, 1.60},
	{SportCycling, MetricHR}:    {0.55, 0.68, 0.80, 0.90, 0.98, 1.04, 1.10},
	{SportCycling, MetricSpeed}: {0.55, 0.70, 0.82, 0.93, 1.03, 1.15},

	{SportRunning, MetricHR}:    {0.60, 0.75, 0.85, 0.95, 1.02, 1.10, 1.20},
	{SportRunning, MetricSpeed}: {0.60, 0.75, 0.85, 0.95, 1.02, 1.10, 1.25},

	{SportOther, MetricHR}:    {0.55, 0.75, 0.88, 1.00, 1.10},
	{SportOther, MetricSpeed}: {0.60, 0.78, 0.90, 1.00, 1.12},
}

// fiveZoneFactors covers stored five-zone sets on pairs with other tables
var fiveZoneFactors = []float64{0.55, 0.75, 0.88, 1.00, 1.10}

// ScoreSession picks the first metric with zone results in the sport's
// priority order and sums timeHours * IF^2 * 100 over its zones.
func ScoreSession(sport Sport, zones map[Metric][]ZoneResult) Score {
	for _, m := range metricPriority[sport] {
		results := zones[m]
		if len(results) == 0 {
			continue
		}
		return Score{
			TSS:        int(math.Round(zoneStress(sport, m, results))),
			MetricUsed: m,
		}
	}
	return Score{TSS: 0, MetricUsed: MetricNone}
}

func zoneStress(sport Sport, metric Metric, results []ZoneResult) float64 {
	factors := intensityFactors[zoneKey{sport, metric}]
	if len(results) != len(factors) && len(results) == len(fiveZoneFactors) {
		factors = fiveZoneFactors
	}
	if len(factors) == 0 {
		factors = fiveZoneFactors
	}

	var total float64
	for _, z := range results {
		hours := float64(z.TimeMs) / 3_600_000
		f := intensityFactor(factors, z.Zone)
		total += hours * f * f * 100
	}
	return total
}

// intensityFactor clamps out-of-range zone indexes to the table ends
func intensityFactor(factors []float64, zone int) float64 {
	i := zone - 1
	if i < 0 {
		i = 0
	}
	if i >= len(factors) {
		i = len(factors) - 1
	}
	return factors[i]
}
