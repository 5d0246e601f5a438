package poller

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"greeting-metrics-backend/config"
	"greeting-metrics-backend/internal/engine"
	"greeting-metrics-backend/internal/model"
	"greeting-metrics-backend/internal/store"
	"greeting-metrics-backend/internal/vision"
)

// Analyzer produces one snapshot analysis per poll cycle for a camera.
type Analyzer interface {
	Analyze(ctx context.Context, cameraID int64) (*vision.SnapshotAnalysis, error)
}

// Service drives one poll loop per configured camera. Within a camera's
// loop snapshots are processed strictly sequentially, which is what keeps
// the zone state tracker race-free without a global lock.
type Service struct {
	cfg      *config.Config
	store    store.Store
	analyzer Analyzer
	zones    *cache.Cache
	loc      *time.Location
}

// NewService creates and initializes a new poller service.
func NewService(cfg *config.Config, s store.Store, analyzer Analyzer) *Service {
	loc, err := time.LoadLocation(cfg.Poller.Timezone)
	if err != nil {
		log.Printf("Warning: invalid timezone %q: %v. Falling back to UTC.", cfg.Poller.Timezone, err)
		loc = time.UTC
	}

	zoneTTL := time.Duration(cfg.Poller.ZoneCacheTTLSeconds) * time.Second

	return &Service{
		cfg:      cfg,
		store:    s,
		analyzer: analyzer,
		zones:    cache.New(zoneTTL, 2*zoneTTL),
		loc:      loc,
	}
}

// Run starts one poll loop goroutine per camera and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Poller.Enabled {
		log.Println("Poller is disabled. Not starting.")
		return
	}
	if len(s.cfg.Poller.Cameras) == 0 {
		log.Println("Poller has no cameras configured. Not starting.")
		return
	}

	log.Printf("Starting poller for %d cameras...", len(s.cfg.Poller.Cameras))
	for _, cam := range s.cfg.Poller.Cameras {
		go s.pollLoop(ctx, cam)
	}

	<-ctx.Done()
	log.Println("Poller service shutting down.")
}

// pollLoop owns the correlator (and its tracker) for one camera, so each
// (camera, zone) state key has exactly one writer.
func (s *Service) pollLoop(ctx context.Context, cam config.CameraConfig) {
	correlator := engine.NewCorrelator(s.store, engine.NewZoneStateTracker(), s.loc)

	s.PollOnce(ctx, cam, correlator)

	timer := time.NewTimer(s.cfg.Poller.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.PollOnce(ctx, cam, correlator)
			timer.Reset(s.cfg.Poller.Interval)
		}
	}
}

// PollOnce fetches and processes a single snapshot for a camera.
func (s *Service) PollOnce(ctx context.Context, cam config.CameraConfig, correlator *engine.Correlator) {
	zones, err := s.zonesForCamera(ctx, cam.ID)
	if err != nil {
		log.Printf("Error loading zones for camera %d: %v", cam.ID, err)
		return
	}
	if len(zones) == 0 {
		return
	}

	analysis, err := s.analyzer.Analyze(ctx, cam.ID)
	if err != nil {
		log.Printf("Error analyzing snapshot for camera %d: %v", cam.ID, err)
		return
	}

	events, metrics := correlator.ProcessSnapshot(ctx, analysis, zones, cam.VenueID)
	if events > 0 || metrics > 0 {
		log.Printf("Camera %d: %d zone events, %d metric updates", cam.ID, events, metrics)
	}
}

// zonesForCamera returns the active zone configuration, cached so that a
// poll cycle does not hit the store every time.
func (s *Service) zonesForCamera(ctx context.Context, cameraID int64) ([]model.Zone, error) {
	key := strconv.FormatInt(cameraID, 10)
	if cached, found := s.zones.Get(key); found {
		return cached.([]model.Zone), nil
	}

	zones, err := s.store.ActiveZones(ctx, cameraID)
	if err != nil {
		return nil, err
	}
	s.zones.SetDefault(key, zones)
	return zones, nil
}
