package engine

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"greeting-metrics-backend/internal/model"
	"greeting-metrics-backend/internal/store"
	"greeting-metrics-backend/internal/vision"
)

// Correlator turns per-zone detections into zone events and greeting
// metrics. It opens a waiting measurement when a seat zone becomes
// occupied and resolves it when staff enter the matching approach zone.
//
// A Correlator is owned by a single camera poll loop; snapshots for that
// camera are processed strictly sequentially.
type Correlator struct {
	store   store.Store
	tracker *ZoneStateTracker
	loc     *time.Location
}

// NewCorrelator creates a correlator with its own injected zone state
// tracker.
func NewCorrelator(s store.Store, tracker *ZoneStateTracker, loc *time.Location) *Correlator {
	return &Correlator{
		store:   s,
		tracker: tracker,
		loc:     loc,
	}
}

// ProcessSnapshot processes every detection of one snapshot analysis and
// returns the number of zone events written and greeting metrics opened or
// resolved. The unit of failure isolation is a single zone detection: a
// store error is logged and the remaining detections still run.
func (c *Correlator) ProcessSnapshot(ctx context.Context, analysis *vision.SnapshotAnalysis, zones []model.Zone, venueID int64) (int, int) {
	zoneByID := make(map[int64]model.Zone, len(zones))
	for _, z := range zones {
		zoneByID[z.ID] = z
	}

	var eventsCreated, metricsUpdated int
	for _, detection := range analysis.Detections {
		zone, ok := zoneByID[detection.ZoneID]
		if !ok || !zone.Active {
			// Unknown or inactive zone: not an error, the configuration
			// simply does not cover this detection.
			continue
		}

		occupied := detection.PersonCount > 0

		var prev *bool
		if prevState, seen := c.tracker.Get(analysis.CameraID, zone.ID); seen {
			prev = &prevState.Occupied
		}

		kind, transitioned := DetectTransition(zone.Kind, prev, occupied)
		if transitioned {
			event, err := c.writeEvent(ctx, venueID, analysis, zone, detection, kind)
			if err != nil {
				// State is not advanced on a failed event write, so the
				// same transition fires again on the next poll.
				log.Printf("Error writing zone event for zone %d: %v", zone.ID, err)
				continue
			}
			eventsCreated++

			switch kind {
			case model.EventSeatOccupied:
				if c.openMeasurement(ctx, venueID, zone, event) {
					metricsUpdated++
				}
			case model.EventApproachStaffPresent:
				if c.resolveMeasurement(ctx, venueID, zone, event) {
					metricsUpdated++
				}
			case model.EventSeatVacated, model.EventApproachCleared:
				// No metric action yet.
			}
		}

		c.tracker.Set(analysis.CameraID, zone.ID, ZoneState{
			Occupied:    occupied,
			PersonCount: detection.PersonCount,
			ObservedAt:  analysis.CapturedAt,
		})
	}

	return eventsCreated, metricsUpdated
}

func (c *Correlator) writeEvent(ctx context.Context, venueID int64, analysis *vision.SnapshotAnalysis, zone model.Zone, detection vision.ZoneDetection, kind model.EventKind) (*model.ZoneEvent, error) {
	rawPayload, err := json.Marshal(detection)
	if err != nil {
		return nil, err
	}

	event := &model.ZoneEvent{
		VenueID:             venueID,
		CameraID:            analysis.CameraID,
		ZoneID:              zone.ID,
		Kind:                kind,
		PersonCount:         detection.PersonCount,
		Confidence:          detection.Confidence,
		DetectedAt:          analysis.CapturedAt,
		SnapshotFingerprint: analysis.Fingerprint,
		RawPayload:          string(rawPayload),
	}
	if err := c.store.InsertZoneEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// openMeasurement starts a waiting metric for the seated table unless one
// already exists. A flickering seat detector therefore never spawns
// duplicate measurements.
func (c *Correlator) openMeasurement(ctx context.Context, venueID int64, zone model.Zone, event *model.ZoneEvent) bool {
	existing, err := c.store.OldestWaitingMetric(ctx, venueID, zone.TableName)
	if err != nil {
		log.Printf("Error checking waiting metric for table %q: %v", zone.TableName, err)
		return false
	}
	if existing != nil {
		return false
	}

	localSeatedAt := event.DetectedAt.In(c.loc)
	metric := &model.GreetingMetric{
		VenueID:       venueID,
		TableName:     zone.TableName,
		BusinessDate:  BusinessDate(localSeatedAt),
		SeatedAt:      event.DetectedAt,
		SeatedZoneID:  zone.ID,
		SeatedEventID: event.ID,
	}
	created, err := c.store.CreateWaitingMetric(ctx, metric)
	if err != nil {
		log.Printf("Error creating waiting metric for table %q: %v", zone.TableName, err)
		return false
	}
	return created
}

// resolveMeasurement closes the oldest waiting metric for the approached
// table. An approach with no open seating is an expected no-op, not an
// error.
func (c *Correlator) resolveMeasurement(ctx context.Context, venueID int64, zone model.Zone, event *model.ZoneEvent) bool {
	metric, err := c.store.OldestWaitingMetric(ctx, venueID, zone.TableName)
	if err != nil {
		log.Printf("Error querying waiting metric for table %q: %v", zone.TableName, err)
		return false
	}
	if metric == nil {
		return false
	}

	greetingSeconds := int(math.Round(event.DetectedAt.Sub(metric.SeatedAt).Seconds()))

	// approach_zone_id stays NULL when no active approach zone is
	// configured for the camera and table.
	var approachZoneID *int64
	approachZone, err := c.store.FindApproachZone(ctx, event.CameraID, zone.TableName)
	if err != nil {
		log.Printf("Error looking up approach zone for table %q: %v", zone.TableName, err)
	} else if approachZone != nil {
		approachZoneID = &approachZone.ID
	}

	applied, err := c.store.ResolveMetric(ctx, metric.ID, event.DetectedAt, greetingSeconds, approachZoneID, event.ID)
	if err != nil {
		log.Printf("Error resolving metric %d for table %q: %v", metric.ID, zone.TableName, err)
		return false
	}
	return applied
}
