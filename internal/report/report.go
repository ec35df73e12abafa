// Package report renders analysis results, workouts and fitness trends as text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"trainingload/internal/analysis"
	"trainingload/internal/store"
)

// Summary writes the session summary followed by the mode's detail
func Summary(w io.Writer, u Units, result analysis.Result) {
	s := result.Session()

	fmt.Fprintf(w, "Sport:     %s (%s)\n", s.Sport, s.RawSport)
	if !s.StartTime.IsZero() {
		fmt.Fprintf(w, "Start:     %s\n", s.StartTime.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "Duration:  %s\n", formatDuration(s.DurationSec))
	fmt.Fprintf(w, "Distance:  %s\n", u.FormatDistance(s.DistanceM))
	if s.AvgHeartRate > 0 {
		fmt.Fprintf(w, "Avg HR:    %.0f bpm\n", s.AvgHeartRate)
	}
	if s.AvgSpeed > 0 {
		fmt.Fprintf(w, "Avg speed: %s (%s)\n", u.FormatSpeed(s.AvgSpeed), u.FormatPace(s.AvgSpeed))
	}
	if s.AvgPower > 0 {
		fmt.Fprintf(w, "Avg power: %.0f W\n", s.AvgPower)
	}
	if s.EfficiencyFactor > 0 {
		fmt.Fprintf(w, "EF:        %.2f (decoupling %.1f%%, %s)\n",
			s.EfficiencyFactor, s.Decoupling, analysis.DecouplingAssessment(s.Decoupling))
	}
	fmt.Fprintf(w, "Laps:      %d\n", s.LapCount)
	fmt.Fprintf(w, "Samples:   %s\n", humanize.Comma(int64(s.SampleCount)))

	if s.Running != nil {
		running(w, u, s.Running)
	}

	switch r := result.(type) {
	case *analysis.RollingResult:
		rolling(w, u, r)
	case *analysis.ZoneScoringResult:
		zones(w, u, r)
	}
}

func running(w io.Writer, u Units, r *analysis.RunningFitness) {
	fmt.Fprintln(w, "\nBest efforts")
	for _, e := range r.BestEfforts {
		fmt.Fprintf(w, "  %-6s %8s  %s\n", effortLabel(e.DistanceMeters), formatClock(e.Duration), u.FormatPace(e.DistanceMeters/e.Duration.Seconds()))
	}

	if r.Source == nil {
		return
	}
	fmt.Fprintf(w, "\nVDOT %.1f (%s) from %s best effort\n", r.VDOT, r.Level, effortLabel(r.Source.DistanceMeters))
	for _, p := range r.Predictions {
		fmt.Fprintf(w, "  %-13s %8s  %s confidence\n", analysis.GetTargetLabel(p.TargetName), formatClock(p.Predicted), p.Confidence)
	}
}

func effortLabel(meters float64) string {
	switch {
	case meters >= analysis.DistanceHalfMara:
		return "Half"
	case meters >= analysis.Distance10K:
		return "10K"
	case meters >= analysis.Distance5K:
		return "5K"
	case meters >= analysis.Distance1Mile:
		return "1 mi"
	case meters >= analysis.Distance1K:
		return "1K"
	default:
		return "400m"
	}
}

func rolling(w io.Writer, u Units, r *analysis.RollingResult) {
	fmt.Fprintf(w, "\nBest %s\n", formatDuration(r.Window.Seconds()))
	for _, m := range analysis.Metrics {
		peak := r.Peaks[m]
		if peak <= 0 {
			fmt.Fprintf(w, "  %-6s -\n", m)
			continue
		}
		fmt.Fprintf(w, "  %-6s %s\n", m, formatValue(u, m, peak))
	}

	for _, m := range analysis.Metrics {
		bounds := r.Thresholds[m]
		if len(bounds) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s zones\n", strings.ToUpper(string(m)))
		for _, b := range bounds {
			fmt.Fprintf(w, "  Z%d  %s\n", b.Zone, formatRange(u, m, b.Min, b.Max))
		}
	}
}

func zones(w io.Writer, u Units, r *analysis.ZoneScoringResult) {
	for _, m := range analysis.Metrics {
		c, ok := r.Classifications[m]
		if !ok || len(c.Zones) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s zones (%.0f%% classified)\n", strings.ToUpper(string(m)), c.ClassifiedPercent)
		for _, z := range c.Zones {
			fmt.Fprintf(w, "  Z%d  %-24s %8s  %5.1f%%\n",
				z.Zone, formatRange(u, m, z.Min, z.Max), formatDuration(z.Duration().Seconds()), z.Percent)
		}
	}

	if r.MetricUsed == analysis.MetricNone {
		fmt.Fprintln(w, "\nTSS:       n/a (no zones for this activity)")
		return
	}
	fmt.Fprintf(w, "\nTSS:       %d (from %s)\n", r.TSS, r.MetricUsed)
}

func formatValue(u Units, m analysis.Metric, v float64) string {
	switch m {
	case analysis.MetricHR:
		return fmt.Sprintf("%.0f bpm", v)
	case analysis.MetricPower:
		return fmt.Sprintf("%.0f W", v)
	case analysis.MetricSpeed:
		return u.FormatSpeed(v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func formatRange(u Units, m analysis.Metric, lo, hi float64) string {
	if hi >= analysis.OpenEnded || (m == analysis.MetricHR && hi >= 999) {
		return formatValue(u, m, lo) + "+"
	}
	return formatValue(u, m, lo) + " - " + formatValue(u, m, hi)
}

// Workouts writes a table of workouts
func Workouts(w io.Writer, u Units, workouts []store.Workout) {
	if len(workouts) == 0 {
		fmt.Fprintln(w, "No workouts yet")
		return
	}

	fmt.Fprintf(w, "%-10s  %-9s  %-7s  %-7s  %9s  %4s  %s\n",
		"Date", "Sport", "Mode", "Status", "Distance", "TSS", "Processed")
	for _, wo := range workouts {
		date := "-"
		if wo.WorkoutDate != nil {
			date = wo.WorkoutDate.Format("2006-01-02")
		}
		distance := "-"
		if wo.Distance != nil {
			distance = u.FormatDistance(*wo.Distance)
		}
		tss := "-"
		if wo.TSS != nil {
			tss = fmt.Sprintf("%d", *wo.TSS)
		}
		processed := "queued"
		if wo.ProcessedAt != nil {
			processed = humanize.Time(*wo.ProcessedAt)
		}
		fmt.Fprintf(w, "%-10s  %-9s  %-7s  %-7s  %9s  %4s  %s\n",
			date, wo.Sport, wo.Mode, wo.Status, distance, tss, processed)
		if wo.Status == store.StatusFailed && wo.Error != nil {
			fmt.Fprintf(w, "            error: %s\n", *wo.Error)
		}
	}
}

// Trend plots CTL and ATL and describes the latest form
func Trend(w io.Writer, trend []store.FitnessTrend) {
	if len(trend) == 0 {
		fmt.Fprintln(w, "No scored workouts yet")
		return
	}

	latest := trend[len(trend)-1]
	if len(trend) > 1 {
		ctl := make([]float64, len(trend))
		atl := make([]float64, len(trend))
		for i, t := range trend {
			ctl[i] = t.CTL
			atl[i] = t.ATL
		}
		graph := asciigraph.PlotMany([][]float64{ctl, atl},
			asciigraph.Height(10),
			asciigraph.Width(60),
			asciigraph.Precision(1),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
			asciigraph.SeriesLegends("CTL", "ATL"),
			asciigraph.Caption(fmt.Sprintf("%s to %s",
				trend[0].Date.Format("2006-01-02"), latest.Date.Format("2006-01-02"))),
		)
		fmt.Fprintln(w, graph)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Fitness (CTL): %.1f\n", latest.CTL)
	fmt.Fprintf(w, "Fatigue (ATL): %.1f\n", latest.ATL)
	fmt.Fprintf(w, "Form (TSB):    %.1f  %s\n", latest.TSB, analysis.FormDescription(latest.TSB))
}
