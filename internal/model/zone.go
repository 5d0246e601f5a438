package model

import "time"

// ZoneKind distinguishes the two roles a camera zone can play.
type ZoneKind string

const (
	ZoneKindSeat     ZoneKind = "seat"
	ZoneKindApproach ZoneKind = "approach"
)

// Zone is a configured polygonal region on a camera frame. Zones are
// created and edited by external configuration tooling; the engine only
// reads them.
type Zone struct {
	ID        int64    `gorm:"primaryKey"`
	CameraID  int64    `gorm:"index;not null"`
	VenueID   int64    `gorm:"index;not null"`
	TableName string   `gorm:"size:64;not null"`
	Kind      ZoneKind `gorm:"size:16;not null"`
	// Polygon is the zone outline as configured upstream. Opaque here.
	Polygon   string    `gorm:"type:text"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
