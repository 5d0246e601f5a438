package sweeper

import (
	"context"
	"log"
	"time"

	"greeting-metrics-backend/config"
	"greeting-metrics-backend/internal/notification"
	"greeting-metrics-backend/internal/store"
)

// Service periodically expires waiting greeting metrics that were never
// resolved, so a table that never sees a staff approach still reaches a
// terminal state. It runs independently of the camera poll loops.
type Service struct {
	cfg    *config.Config
	store  store.Store
	pool   *notification.WorkerPool
	venues []int64
}

// NewService creates a sweeper covering every venue that appears in the
// camera configuration.
func NewService(cfg *config.Config, s store.Store, pool *notification.WorkerPool) *Service {
	seen := make(map[int64]bool)
	var venues []int64
	for _, cam := range cfg.Poller.Cameras {
		if !seen[cam.VenueID] {
			seen[cam.VenueID] = true
			venues = append(venues, cam.VenueID)
		}
	}

	return &Service{
		cfg:    cfg,
		store:  s,
		pool:   pool,
		venues: venues,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweeper.Enabled {
		log.Println("Sweeper is disabled. Not starting.")
		return
	}
	log.Println("Starting staleness sweeper...")

	timer := time.NewTimer(s.cfg.Sweeper.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Sweeper.Interval)
		}
	}
}

// SweepOnce expires stale metrics for every known venue.
func (s *Service) SweepOnce(ctx context.Context) {
	for _, venueID := range s.venues {
		count, err := s.ExpireStale(ctx, venueID, s.cfg.Sweeper.ExpireAfterSeconds)
		if err != nil {
			log.Printf("Error expiring stale metrics for venue %d: %v", venueID, err)
			continue
		}
		if count > 0 {
			log.Printf("Venue %d: expired %d stale greeting metrics", venueID, count)
		}
	}
}

// ExpireStale expires every waiting metric for a venue seated more than
// expireAfterSeconds ago, dispatches an alert per expired metric, and
// returns how many rows were affected.
func (s *Service) ExpireStale(ctx context.Context, venueID int64, expireAfterSeconds int) (int, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(expireAfterSeconds) * time.Second)

	expiredIDs, err := s.store.ExpireStaleMetrics(ctx, venueID, cutoff)
	if err != nil {
		return 0, err
	}

	if s.pool != nil {
		for _, metricID := range expiredIDs {
			s.pool.Dispatch(metricID)
		}
	}
	return len(expiredIDs), nil
}
