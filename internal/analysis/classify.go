package analysis

import "sort"

// Classification is the time-in-zone breakdown for one metric
type Classification struct {
	Zones             []ZoneResult `json:"zones"`
	ClassifiedPercent float64      `json:"classifiedPercent"`
	TotalMs           int64        `json:"totalMs"`
	ClassifiableMs    int64        `json:"classifiableMs"`
}

// Classify credits the elapsed time of each sample interval to the first zone
// whose [Min, Max) range holds the interval's starting value.
//
// ClassifiedPercent is the share of samples with a defined value. Zone
// percentages are relative to the time whose starting sample had a value.
// Empty bounds or a metric with no values yield an empty classification.
//
// The sport does not change the arithmetic: boundaries are expected in the same
// speed unit DeriveZones produces, so pace-style metrics need no inversion here.
func Classify(samples []Sample, bounds []ZoneBoundary, _ Sport, metric Metric) Classification {
	var c Classification
	if len(bounds) == 0 || len(samples) == 0 {
		return c
	}

	defined := 0
	for _, s := range samples {
		if _, ok := s.Value(metric); ok {
			defined++
		}
	}
	if defined == 0 {
		return c
	}

	zones := normalizeBounds(bounds)
	lookup := newZoneLookup(zones)

	c.Zones = make([]ZoneResult, len(zones))
	for i, z := range zones {
		c.Zones[i] = ZoneResult{Zone: z.Zone, Min: z.Min, Max: z.Max}
	}

	for i := 1; i < len(samples); i++ {
		dt := samples[i].TimestampMs - samples[i-1].TimestampMs
		if dt <= 0 {
			continue
		}
		c.TotalMs += dt

		v, ok := samples[i-1].Value(metric)
		if !ok {
			continue
		}
		c.ClassifiableMs += dt

		if idx := lookup.find(v); idx >= 0 {
			c.Zones[idx].TimeMs += dt
		}
	}

	if c.ClassifiableMs > 0 {
		for i := range c.Zones {
			c.Zones[i].Percent = float64(c.Zones[i].TimeMs) / float64(c.ClassifiableMs) * 100
		}
	}
	c.ClassifiedPercent = float64(defined) / float64(len(samples)) * 100
	return c
}

// normalizeBounds returns a copy with Min <= Max, ordered by zone index
func normalizeBounds(bounds []ZoneBoundary) []ZoneBoundary {
	zones := make([]ZoneBoundary, len(bounds))
	copy(zones, bounds)
	for i := range zones {
		if zones[i].Min > zones[i].Max {
			zones[i].Min, zones[i].Max = zones[i].Max, zones[i].Min
		}
	}
	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].Zone < zones[j].Zone
	})
	return zones
}

// zoneLookup finds the first zone containing a value. Contiguous ascending
// sets are searched by binary search over their upper bounds; anything else
// falls back to a first-match scan.
type zoneLookup struct {
	zones      []ZoneBoundary
	contiguous bool
}

func newZoneLookup(zones []ZoneBoundary) zoneLookup {
	contiguous := true
	for i := 1; i < len(zones); i++ {
		if zones[i].Min != zones[i-1].Max || zones[i].Min < zones[i-1].Min {
			contiguous = false
			break
		}
	}
	return zoneLookup{zones: zones, contiguous: contiguous}
}

func (l zoneLookup) find(v float64) int {
	if l.contiguous {
		// First zone with Max > v; it contains v when Min <= v.
		i := sort.Search(len(l.zones), func(i int) bool { return l.zones[i].Max > v })
		if i < len(l.zones) && l.zones[i].Min <= v {
			return i
		}
		return -1
	}

	for i, z := range l.zones {
		if v >= z.Min && v < z.Max {
			return i
		}
	}
	return -1
}

// ZoneIndex answers which zone a single value falls in
type ZoneIndex struct {
	lookup zoneLookup
}

// NewZoneIndex normalizes bounds for repeated lookups
func NewZoneIndex(bounds []ZoneBoundary) ZoneIndex {
	return ZoneIndex{lookup: newZoneLookup(normalizeBounds(bounds))}
}

// Zone returns the index of the zone containing v, or 0 when none does
func (z ZoneIndex) Zone(v float64) int {
	i := z.lookup.find(v)
	if i < 0 {
		return 0
	}
	return z.lookup.zones[i].Zone
}
