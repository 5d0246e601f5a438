package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"greeting-metrics-backend/internal/model"
)

// Store defines the interface for all database operations used by the
// greeting engine and the sweeper.
type Store interface {
	// ActiveZones returns the active zone configuration for a camera.
	ActiveZones(ctx context.Context, cameraID int64) ([]model.Zone, error)
	// FindApproachZone returns the active approach zone sharing a camera
	// and table name, or nil when none is configured.
	FindApproachZone(ctx context.Context, cameraID int64, tableName string) (*model.Zone, error)

	// InsertZoneEvent appends one transition event and fills in its id.
	InsertZoneEvent(ctx context.Context, event *model.ZoneEvent) error

	// OldestWaitingMetric returns the waiting metric with the smallest
	// seated_at for a table, or nil when none exists.
	OldestWaitingMetric(ctx context.Context, venueID int64, tableName string) (*model.GreetingMetric, error)
	// CreateWaitingMetric inserts a new waiting metric. Returns false
	// without error when the store's uniqueness guard rejected a duplicate
	// waiting row for the same (venue, table).
	CreateWaitingMetric(ctx context.Context, metric *model.GreetingMetric) (bool, error)
	// ResolveMetric marks a metric greeted. The update applies only while
	// the row is still waiting; returns whether it was applied.
	ResolveMetric(ctx context.Context, metricID int64, greetedAt time.Time, greetingSeconds int, approachZoneID *int64, greetedEventID int64) (bool, error)
	// ExpireStaleMetrics expires every waiting metric for a venue seated
	// before the cutoff and returns the ids of the expired rows.
	ExpireStaleMetrics(ctx context.Context, venueID int64, cutoff time.Time) ([]int64, error)

	// DB exposes the underlying connection for the read API and the alert
	// worker pool.
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ActiveZones(ctx context.Context, cameraID int64) ([]model.Zone, error) {
	var zones []model.Zone
	err := s.db.WithContext(ctx).
		Where("camera_id = ? AND active = ?", cameraID, true).
		Find(&zones).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch zones for camera %d: %w", cameraID, err)
	}
	return zones, nil
}

func (s *gormStore) FindApproachZone(ctx context.Context, cameraID int64, tableName string) (*model.Zone, error) {
	var zone model.Zone
	err := s.db.WithContext(ctx).
		Where("camera_id = ? AND table_name = ? AND kind = ? AND active = ?",
			cameraID, tableName, model.ZoneKindApproach, true).
		First(&zone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up approach zone for camera %d table %q: %w", cameraID, tableName, err)
	}
	return &zone, nil
}

func (s *gormStore) InsertZoneEvent(ctx context.Context, event *model.ZoneEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert zone event for zone %d: %w", event.ZoneID, err)
	}
	return nil
}

func (s *gormStore) OldestWaitingMetric(ctx context.Context, venueID int64, tableName string) (*model.GreetingMetric, error) {
	var metric model.GreetingMetric
	err := s.db.WithContext(ctx).
		Where("venue_id = ? AND table_name = ? AND status = ?", venueID, tableName, model.MetricWaiting).
		Order("seated_at ASC").
		First(&metric).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query waiting metric for table %q: %w", tableName, err)
	}
	return &metric, nil
}

func (s *gormStore) CreateWaitingMetric(ctx context.Context, metric *model.GreetingMetric) (bool, error) {
	metric.Status = model.MetricWaiting
	// ON CONFLICT DO NOTHING: the partial unique index turns a concurrent
	// duplicate into a zero-row insert instead of an error.
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(metric)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert waiting metric for table %q: %w", metric.TableName, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *gormStore) ResolveMetric(ctx context.Context, metricID int64, greetedAt time.Time, greetingSeconds int, approachZoneID *int64, greetedEventID int64) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.GreetingMetric{}).
		Where("id = ? AND status = ?", metricID, model.MetricWaiting).
		Updates(map[string]any{
			"status":                model.MetricGreeted,
			"greeted_at":            greetedAt,
			"greeting_time_seconds": greetingSeconds,
			"approach_zone_id":      approachZoneID,
			"greeted_event_id":      greetedEventID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to resolve metric %d: %w", metricID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *gormStore) ExpireStaleMetrics(ctx context.Context, venueID int64, cutoff time.Time) ([]int64, error) {
	var expiredIDs []int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []model.GreetingMetric
		if err := tx.
			Select("id").
			Where("venue_id = ? AND status = ? AND seated_at < ?", venueID, model.MetricWaiting, cutoff).
			Find(&stale).Error; err != nil {
			return fmt.Errorf("failed to fetch stale metrics: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]int64, len(stale))
		for i, m := range stale {
			ids[i] = m.ID
		}

		// Status guard again at write time: a metric resolved between the
		// select and the update stays greeted.
		result := tx.
			Model(&model.GreetingMetric{}).
			Where("id IN ? AND status = ?", ids, model.MetricWaiting).
			Update("status", model.MetricExpired)
		if result.Error != nil {
			return fmt.Errorf("failed to expire stale metrics: %w", result.Error)
		}
		if result.RowsAffected == int64(len(ids)) {
			expiredIDs = ids
			return nil
		}

		// The guard rejected some rows; report only the ids it expired so
		// no alert fires for a table that was actually greeted.
		var confirmed []model.GreetingMetric
		if err := tx.
			Select("id").
			Where("id IN ? AND status = ?", ids, model.MetricExpired).
			Find(&confirmed).Error; err != nil {
			return fmt.Errorf("failed to confirm expired metrics: %w", err)
		}
		expiredIDs = make([]int64, len(confirmed))
		for i, m := range confirmed {
			expiredIDs[i] = m.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expiredIDs, nil
}
