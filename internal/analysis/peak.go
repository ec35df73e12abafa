package analysis

import "time"

// DefaultWindow is the sustained-effort window used for threshold discovery
const DefaultWindow = 20 * time.Minute

// maxPeakRounds bounds the refinement loop in Peak
const maxPeakRounds = 64

// Peak returns the highest time-weighted average of metric over any run of
// consecutive intervals holding at least window of recorded data. Each
// interval [t[i-1], t[i]) carries the value of sample i-1; intervals whose
// starting sample lacks the metric add neither weight nor duration, so a
// dropout never counts toward the window.
//
// Every run admitted for a window is also admitted for any shorter one, so
// the result never decreases as window shrinks. Returns 0 when window is not
// positive or the metric is recorded for less than window in total.
func Peak(samples []Sample, metric Metric, window time.Duration) float64 {
	w := float64(window.Milliseconds())
	if w <= 0 || len(samples) < 2 {
		return 0
	}

	// dur[k] and sum[k] are prefix totals over the first k recorded intervals.
	dur := []float64{0}
	sum := []float64{0}
	for i := 1; i < len(samples); i++ {
		v, ok := samples[i-1].Value(metric)
		dt := samples[i].TimestampMs - samples[i-1].TimestampMs
		if !ok || dt <= 0 {
			continue
		}
		k := len(dur) - 1
		dur = append(dur, dur[k]+float64(dt))
		sum = append(sum, sum[k]+v*float64(dt))
	}

	n := len(dur) - 1
	if dur[n] < w {
		return 0
	}

	// Start from the whole recording and move to any run that beats the
	// current average until none does.
	best := sum[n] / dur[n]
	for round := 0; round < maxPeakRounds; round++ {
		avg, ok := runAbove(dur, sum, w, best)
		if !ok || avg <= best {
			break
		}
		best = avg
	}
	return best
}

// runAbove finds the run of at least w maximizing sum - level*dur over the
// prefix totals and returns its average when that excess is positive. Two
// pointers: i trails j and only advances while the run [i, j) still holds w.
func runAbove(dur, sum []float64, w, level float64) (float64, bool) {
	var (
		i        int
		bestGain float64
		from, to int
		found    bool
	)
	lowest := -1

	for j := 1; j < len(dur); j++ {
		for i < j && dur[j]-dur[i] >= w {
			if lowest < 0 || sum[i]-level*dur[i] < sum[lowest]-level*dur[lowest] {
				lowest = i
			}
			i++
		}
		if lowest < 0 {
			continue
		}

		gain := (sum[j] - sum[lowest]) - level*(dur[j]-dur[lowest])
		if !found || gain > bestGain {
			bestGain, from, to, found = gain, lowest, j, true
		}
	}

	if !found || bestGain <= 0 {
		return 0, false
	}
	return (sum[to] - sum[from]) / (dur[to] - dur[from]), true
}
