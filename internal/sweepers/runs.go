package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ferredist/catalog-service/internal/reconcile"
)

// RunSweeper periodically marks abandoned reconcile runs as interrupted.
// A run left in running state past the threshold means the process died
// mid-run; the catalog is safe (commits are atomic) but the audit trail
// would otherwise show a run in progress forever.
type RunSweeper struct {
	runs      reconcile.RunStore
	logger    *zerolog.Logger
	interval  time.Duration
	threshold time.Duration
	retention time.Duration
	stopChan  chan struct{}
}

// NewRunSweeper creates a sweeper over the given run store. threshold is
// how long a run may stay in running state; retention is how long
// finished runs are kept.
func NewRunSweeper(runs reconcile.RunStore, logger *zerolog.Logger, interval, threshold, retention time.Duration) *RunSweeper {
	return &RunSweeper{
		runs:      runs,
		logger:    logger,
		interval:  interval,
		threshold: threshold,
		retention: retention,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the periodic sweep. An immediate pass runs first so runs
// abandoned by a previous process are cleaned on startup.
func (s *RunSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("threshold", s.threshold).
		Msg("Starting reconcile run sweeper")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Run sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Run sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop signals the sweeper to stop
func (s *RunSweeper) Stop() {
	close(s.stopChan)
}

func (s *RunSweeper) sweep(ctx context.Context) {
	swept, err := s.runs.SweepStale(ctx, s.threshold)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sweep stale runs")
	} else if swept > 0 {
		s.logger.Warn().Int("interrupted", swept).Msg("Marked stale runs as interrupted")
	}

	if s.retention <= 0 {
		return
	}
	purged, err := s.runs.Purge(ctx, s.retention)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to purge old runs")
	} else if purged > 0 {
		s.logger.Info().Int("purged", purged).Msg("Purged old reconcile runs")
	}
}
