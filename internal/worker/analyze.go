// Package worker consumes queued analysis jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"trainingload/internal/analysis"
)

// ZoneRepository reads and replaces stored zone boundaries. It is passed to
// every Analyze call rather than held globally.
type ZoneRepository interface {
	Zones(ctx context.Context, userID int64, sport analysis.Sport, metric analysis.Metric) ([]analysis.ZoneBoundary, error)
	ReplaceZones(ctx context.Context, userID int64, sport analysis.Sport, metric analysis.Metric, bounds []analysis.ZoneBoundary) error
}

// Analyze runs one analysis mode over a normalized activity.
//
// Rolling derives thresholds from windowed peaks and replaces the stored
// zones of every metric that produced some; metrics without a peak keep
// their existing zones. Zones loads the stored boundaries per metric and
// scores the session.
func Analyze(ctx context.Context, zones ZoneRepository, userID int64, mode analysis.Mode, n analysis.Normalized, window time.Duration) (analysis.Result, error) {
	switch mode {
	case analysis.ModeRolling:
		result := analysis.Rolling(n, window)
		for _, m := range analysis.Metrics {
			bounds, ok := result.Thresholds[m]
			if !ok {
				continue
			}
			if err := zones.ReplaceZones(ctx, userID, n.Sport, m, bounds); err != nil {
				return nil, fmt.Errorf("replacing %s %s zones: %w", n.Sport, m, err)
			}
		}
		return result, nil

	case analysis.ModeZones:
		bounds := make(map[analysis.Metric][]analysis.ZoneBoundary, len(analysis.Metrics))
		for _, m := range analysis.Metrics {
			b, err := zones.Zones(ctx, userID, n.Sport, m)
			if err != nil {
				return nil, fmt.Errorf("loading %s %s zones: %w", n.Sport, m, err)
			}
			bounds[m] = b
		}
		return analysis.ScoreZones(n, bounds), nil

	default:
		return nil, fmt.Errorf("%w: %q", analysis.ErrUnknownMode, mode)
	}
}
