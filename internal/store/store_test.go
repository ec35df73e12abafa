package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"trainingload/internal/analysis"
)

// setupTestDB creates an in-memory store with one seeded user
func setupTestDB(t *testing.T) (*Store, int64) {
	t.Helper()

	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	id, err := s.SeedDefaultUser(context.Background(), "athlete@example.com", 190, 250)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return s, id
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if _, err := s.SeedDefaultUser(context.Background(), "a@example.com", 0, 0); err != nil {
		t.Errorf("SeedDefaultUser() error = %v", err)
	}
}

func TestSeedDefaultUser(t *testing.T) {
	s, id := setupTestDB(t)
	ctx := context.Background()

	again, err := s.SeedDefaultUser(ctx, "athlete@example.com", 180, 0)
	if err != nil {
		t.Fatalf("SeedDefaultUser() second call error = %v", err)
	}
	if again != id {
		t.Errorf("SeedDefaultUser() = %d on reseed, want %d", again, id)
	}

	for _, sport := range []analysis.Sport{analysis.SportCycling, analysis.SportRunning, analysis.SportOther} {
		zones, err := s.Zones(ctx, id, sport, analysis.MetricHR)
		if err != nil {
			t.Fatalf("Zones(%v) error = %v", sport, err)
		}
		if len(zones) != len(DefaultHRZones) {
			t.Errorf("Zones(%v) len = %d, want %d", sport, len(zones), len(DefaultHRZones))
		}
	}

	u, err := s.UserByEmail(ctx, "athlete@example.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if u.MaxHR == nil || *u.MaxHR != 190 {
		t.Errorf("MaxHR = %v, want 190", u.MaxHR)
	}

	if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UserByEmail(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestReplaceZones(t *testing.T) {
	s, id := setupTestDB(t)
	ctx := context.Background()

	bounds := analysis.DeriveZones(250, analysis.SportCycling, analysis.MetricPower)
	if err := s.ReplaceZones(ctx, id, analysis.SportCycling, analysis.MetricPower, bounds); err != nil {
		t.Fatalf("ReplaceZones() error = %v", err)
	}

	got, err := s.Zones(ctx, id, analysis.SportCycling, analysis.MetricPower)
	if err != nil {
		t.Fatalf("Zones() error = %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("len(Zones()) = %d, want 7", len(got))
	}
	if got[6].Max != analysis.OpenEnded {
		t.Errorf("top zone max = %v, want OpenEnded", got[6].Max)
	}

	// A second replace leaves only the new set.
	smaller := []analysis.ZoneBoundary{{Zone: 1, Min: 0, Max: 200}, {Zone: 2, Min: 200, Max: analysis.OpenEnded}}
	if err := s.ReplaceZones(ctx, id, analysis.SportCycling, analysis.MetricPower, smaller); err != nil {
		t.Fatalf("ReplaceZones() error = %v", err)
	}
	got, _ = s.Zones(ctx, id, analysis.SportCycling, analysis.MetricPower)
	if len(got) != 2 {
		t.Errorf("len(Zones()) after replace = %d, want 2", len(got))
	}

	// Other keys are untouched.
	running, _ := s.Zones(ctx, id, analysis.SportRunning, analysis.MetricHR)
	if len(running) != len(DefaultHRZones) {
		t.Errorf("running hr zones = %d, want %d", len(running), len(DefaultHRZones))
	}

	empty, err := s.Zones(ctx, id, analysis.SportRunning, analysis.MetricSpeed)
	if err != nil {
		t.Fatalf("Zones(unset) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Zones(unset) = %v, want empty", empty)
	}
}

func TestReplaceZonesUnknownMetric(t *testing.T) {
	s, id := setupTestDB(t)

	err := s.ReplaceZones(context.Background(), id, analysis.SportCycling, analysis.MetricNone, nil)
	if err == nil {
		t.Error("ReplaceZones(none) error = nil, want error")
	}
}

func TestWorkoutLifecycle(t *testing.T) {
	s, id := setupTestDB(t)
	ctx := context.Background()

	if _, err := s.CreateWorkout(ctx, id, "job-1", "ride.tcx", analysis.ModeZones); err != nil {
		t.Fatalf("CreateWorkout() error = %v", err)
	}

	w, err := s.WorkoutByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("WorkoutByJobID() error = %v", err)
	}
	if w.Status != StatusPending || w.FileName != "ride.tcx" || w.Mode != "zones" {
		t.Errorf("new workout = %+v", w)
	}

	result := &analysis.ZoneScoringResult{
		Summary: analysis.Summary{
			Sport:        analysis.SportCycling,
			StartTime:    time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
			DurationSec:  3600,
			DistanceM:    30000,
			AvgHeartRate: 142,
		},
		Classifications: map[analysis.Metric]analysis.Classification{
			analysis.MetricPower: {Zones: []analysis.ZoneResult{{Zone: 4, TimeMs: 3_600_000, Percent: 100}}},
		},
		Score: analysis.Score{TSS: 96, MetricUsed: analysis.MetricPower},
	}
	if err := s.SaveResult(ctx, "job-1", result); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	w, err = s.WorkoutByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("WorkoutByJobID() error = %v", err)
	}
	if w.Status != StatusDone {
		t.Errorf("Status = %q, want done", w.Status)
	}
	if w.TSS == nil || *w.TSS != 96 {
		t.Errorf("TSS = %v, want 96", w.TSS)
	}
	if w.MetricUsed == nil || *w.MetricUsed != "power" {
		t.Errorf("MetricUsed = %v, want power", w.MetricUsed)
	}
	if w.Sport != "cycling" {
		t.Errorf("Sport = %q, want cycling", w.Sport)
	}
	if w.WorkoutDate == nil || w.WorkoutDate.Format("2006-01-02") != "2024-03-10" {
		t.Errorf("WorkoutDate = %v, want 2024-03-10", w.WorkoutDate)
	}
	if w.ProcessedAt == nil {
		t.Error("ProcessedAt = nil, want set")
	}
	if w.ZoneJSON == nil {
		t.Fatal("ZoneJSON = nil")
	}
	var zones map[string]analysis.Classification
	if err := json.Unmarshal([]byte(*w.ZoneJSON), &zones); err != nil {
		t.Fatalf("decoding zone_json: %v", err)
	}
	if zones["power"].Zones[0].TimeMs != 3_600_000 {
		t.Errorf("stored zone time = %v", zones["power"].Zones[0].TimeMs)
	}
}

func TestSaveRollingResult(t *testing.T) {
	s, id := setupTestDB(t)
	ctx := context.Background()

	if _, err := s.CreateWorkout(ctx, id, "job-r", "run.tcx", analysis.ModeRolling); err != nil {
		t.Fatalf("CreateWorkout() error = %v", err)
	}

	result := &analysis.RollingResult{
		Summary: analysis.Summary{Sport: analysis.SportRunning},
		Window:  analysis.DefaultWindow,
		Peaks:   map[analysis.Metric]float64{analysis.MetricHR: 168},
		Thresholds: map[analysis.Metric][]analysis.ZoneBoundary{
			analysis.MetricHR: analysis.DeriveZones(168, analysis.SportRunning, analysis.MetricHR),
		},
	}
	if err := s.SaveResult(ctx, "job-r", result); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	w, _ := s.WorkoutByJobID(ctx, "job-r")
	if w.TSS != nil {
		t.Errorf("TSS = %v, want nil for rolling runs", *w.TSS)
	}
	if w.RollingJSON == nil {
		t.Fatal("RollingJSON = nil")
	}
	var payload struct {
		WindowMs int64              `json:"windowMs"`
		Peaks    map[string]float64 `json:"peaks"`
	}
	if err := json.Unmarshal([]byte(*w.RollingJSON), &payload); err != nil {
		t.Fatalf("decoding rolling_json: %v", err)
	}
	if payload.WindowMs != 1_200_000 || payload.Peaks["hr"] != 168 {
		t.Errorf("rolling payload = %+v", payload)
	}
}

func TestMarkFailed(t *testing.T) {
	s, id := setupTestDB(t)
	ctx := context.Background()

	s.CreateWorkout(ctx, id, "job-f", "broken.tcx", analysis.ModeZones)
	if err := s.MarkFailed(ctx, "job-f", errors.New("malformed")); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	w, _ := s.WorkoutByJobID(ctx, "job-f")
	if w.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", w.Status)
	}
	if w.Error == nil || *w.Error != "malformed" {
		t.Errorf("Error = %v, want malformed", w.Error)
	}

	if err := s.MarkFailed(ctx, "missing", nil); !errors.Is(err, ErrWorkoutNotFound) {
		t.Errorf("MarkFailed(missing) error = %v, want ErrWorkoutNotFound", err)
	}
	if _, err := s.WorkoutByJobID(ctx, "missing"); !errors.Is(err, ErrWorkoutNotFound) {
		t.Errorf("WorkoutByJobID(missing) error = %v, want ErrWorkoutNotFound", err)
	}
}

func TestDailyLoadsAndList(t *testing.T) {
	s, id := setupTestDB(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)
	scored := []struct {
		job  string
		date time.Time
		tss  int
	}{
		{"a", day, 50},
		{"b", day.Add(10 * time.Hour), 30},
		{"c", day.AddDate(0, 0, 2), 70},
	}
	for _, sc := range scored {
		s.CreateWorkout(ctx, id, sc.job, sc.job+".tcx", analysis.ModeZones)
		err := s.SaveResult(ctx, sc.job, &analysis.ZoneScoringResult{
			Summary: analysis.Summary{StartTime: sc.date},
			Score:   analysis.Score{TSS: sc.tss, MetricUsed: analysis.MetricHR},
		})
		if err != nil {
			t.Fatalf("SaveResult(%s) error = %v", sc.job, err)
		}
	}
	// Pending and failed workouts carry no load.
	s.CreateWorkout(ctx, id, "pending", "p.tcx", analysis.ModeZones)

	loads, err := s.DailyLoads(ctx, id)
	if err != nil {
		t.Fatalf("DailyLoads() error = %v", err)
	}
	if len(loads) != 2 {
		t.Fatalf("len(DailyLoads()) = %d, want 2", len(loads))
	}
	if loads[0].TSS != 80 || loads[1].TSS != 70 {
		t.Errorf("DailyLoads() = %+v, want 80 then 70", loads)
	}

	workouts, err := s.ListWorkouts(ctx, id, 10)
	if err != nil {
		t.Fatalf("ListWorkouts() error = %v", err)
	}
	if len(workouts) != 4 {
		t.Errorf("len(ListWorkouts()) = %d, want 4", len(workouts))
	}
}

func TestFitnessTrend(t *testing.T) {
	s, id := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	metrics := analysis.CalculateFitnessTrend([]analysis.DailyLoad{
		{Date: base, TSS: 100},
		{Date: base.AddDate(0, 0, 4), TSS: 60},
	})

	if err := s.SaveFitnessTrend(ctx, id, metrics); err != nil {
		t.Fatalf("SaveFitnessTrend() error = %v", err)
	}
	// Saving again replaces rather than duplicates.
	if err := s.SaveFitnessTrend(ctx, id, metrics); err != nil {
		t.Fatalf("SaveFitnessTrend() second call error = %v", err)
	}

	trend, err := s.FitnessTrend(ctx, id, base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("FitnessTrend() error = %v", err)
	}
	if len(trend) != 3 {
		t.Fatalf("len(FitnessTrend()) = %d, want 3", len(trend))
	}
	if trend[2].CTL != metrics[4].CTL {
		t.Errorf("CTL = %v, want %v", trend[2].CTL, metrics[4].CTL)
	}

	ids, err := s.UserIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != id {
		t.Errorf("UserIDs() = %v, %v", ids, err)
	}
}

func TestSyncState(t *testing.T) {
	s, _ := setupTestDB(t)
	ctx := context.Background()

	v, err := s.GetSyncState(ctx, "trend_refreshed_at")
	if err != nil || v != "" {
		t.Errorf("GetSyncState(unset) = %q, %v", v, err)
	}

	s.SetSyncState(ctx, "trend_refreshed_at", "one")
	s.SetSyncState(ctx, "trend_refreshed_at", "two")

	if v, _ := s.GetSyncState(ctx, "trend_refreshed_at"); v != "two" {
		t.Errorf("GetSyncState() = %q, want two", v)
	}
}
