package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"trainingload/internal/analysis"
)

// TrendRefreshedKey is the sync_state key holding the last refresh time
const TrendRefreshedKey = "trend_refreshed_at"

// TrendStore is the persistence the trend refresher needs
type TrendStore interface {
	UserIDs(ctx context.Context) ([]int64, error)
	DailyLoads(ctx context.Context, userID int64) ([]analysis.DailyLoad, error)
	SaveFitnessTrend(ctx context.Context, userID int64, metrics []analysis.FitnessMetrics) error
	SetSyncState(ctx context.Context, key, value string) error
}

// TrendRefresher recomputes every user's CTL/ATL/TSB on a cron schedule
type TrendRefresher struct {
	Store    TrendStore
	Schedule string // cron expression, e.g. "@hourly"

	cron *cron.Cron
}

// RefreshUser recomputes and stores one user's fitness trend
func (r *TrendRefresher) RefreshUser(ctx context.Context, userID int64) (analysis.FitnessMetrics, error) {
	loads, err := r.Store.DailyLoads(ctx, userID)
	if err != nil {
		return analysis.FitnessMetrics{}, fmt.Errorf("loading daily loads: %w", err)
	}

	metrics := analysis.CalculateFitnessTrend(loads)
	if err := r.Store.SaveFitnessTrend(ctx, userID, metrics); err != nil {
		return analysis.FitnessMetrics{}, fmt.Errorf("saving trend: %w", err)
	}

	if len(metrics) == 0 {
		return analysis.FitnessMetrics{}, nil
	}
	return metrics[len(metrics)-1], nil
}

// RefreshAll recomputes the trend of every user
func (r *TrendRefresher) RefreshAll(ctx context.Context) error {
	ids, err := r.Store.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	for _, id := range ids {
		current, err := r.RefreshUser(ctx, id)
		if err != nil {
			return fmt.Errorf("user %d: %w", id, err)
		}
		log.Printf("trend: user %d CTL %.1f ATL %.1f TSB %.1f", id, current.CTL, current.ATL, current.TSB)
	}

	return r.Store.SetSyncState(ctx, TrendRefreshedKey, time.Now().UTC().Format(time.RFC3339))
}

// Start schedules RefreshAll. The jobs use ctx for their database calls.
func (r *TrendRefresher) Start(ctx context.Context) error {
	schedule := r.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := r.RefreshAll(ctx); err != nil {
			log.Printf("trend refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling trend refresh %q: %w", schedule, err)
	}

	r.cron = c
	c.Start()
	log.Printf("trend refresh scheduled: %s", schedule)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish
func (r *TrendRefresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
