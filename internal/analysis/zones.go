package analysis

// zoneTable is the cut list for one (sport, metric) pair. Plain tables are
// fractions of the reference value. Pace tables are multipliers of the
// reference pace, slowest first, and become speed cuts as ref / multiplier.
type zoneTable struct {
	cuts []float64
	pace bool
}

type zoneKey struct {
	sport  Sport
	metric Metric
}

var zoneTables = map[zoneKey]zoneTable{
	{SportCycling, MetricPower}: {cuts: []float64{0.55, 0.75, 0.90, 1.05, 1.20, 1.50}},
	{SportCycling, MetricHR}:    {cuts: []float64{0.81, 0.89, 0.93, 1.00, 1.03, 1.06}},
	{SportCycling, MetricSpeed}: {cuts: []float64{0.70, 0.80, 0.90, 1.00, 1.10}},

	{SportRunning, MetricHR}:    {cuts: []float64{0.70, 0.80, 0.90, 1.00, 1.05, 1.15}},
	{SportRunning, MetricSpeed}: {cuts: []float64{1.29, 1.14, 1.06, 1.00, 0.97, 0.90}, pace: true},

	{SportOther, MetricHR}:    {cuts: []float64{0.75, 0.85, 0.92, 1.00}},
	{SportOther, MetricSpeed}: {cuts: []float64{1.20, 1.10, 1.03, 0.97}, pace: true},
}

// SupportsZones reports whether thresholds can be derived for the pair
func SupportsZones(sport Sport, metric Metric) bool {
	_, ok := zoneTables[zoneKey{sport, metric}]
	return ok
}

// DeriveZones turns a reference value (usually a Peak) into ascending,
// contiguous zone boundaries starting at 0 and ending at OpenEnded.
// Returns nil when ref is not positive or the pair has no table.
func DeriveZones(ref float64, sport Sport, metric Metric) []ZoneBoundary {
	if ref <= 0 {
		return nil
	}
	table, ok := zoneTables[zoneKey{sport, metric}]
	if !ok {
		return nil
	}

	bounds := make([]ZoneBoundary, 0, len(table.cuts)+1)
	lower := 0.0
	for i, c := range table.cuts {
		upper := ref * c
		if table.pace {
			upper = ref / c
		}
		bounds = append(bounds, ZoneBoundary{Zone: i + 1, Min: lower, Max: upper})
		lower = upper
	}
	bounds = append(bounds, ZoneBoundary{Zone: len(table.cuts) + 1, Min: lower, Max: OpenEnded})
	return bounds
}
