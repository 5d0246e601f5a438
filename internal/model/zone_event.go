package model

import "time"

// EventKind is the type of an occupancy transition for a zone.
type EventKind string

const (
	EventSeatOccupied         EventKind = "seat_occupied"
	EventSeatVacated          EventKind = "seat_vacated"
	EventApproachStaffPresent EventKind = "approach_staff_present"
	EventApproachCleared      EventKind = "approach_cleared"
)

// ZoneEvent is one detected occupancy transition. Append-only; rows are
// never updated after insert.
type ZoneEvent struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement"`
	VenueID             int64     `gorm:"index;not null"`
	CameraID            int64     `gorm:"not null"`
	ZoneID              int64     `gorm:"index;not null"`
	Kind                EventKind `gorm:"size:32;not null"`
	PersonCount         int       `gorm:"not null"`
	Confidence          float64   `gorm:"not null"`
	DetectedAt          time.Time `gorm:"index;not null"`
	SnapshotFingerprint string    `gorm:"size:128"`
	RawPayload          string    `gorm:"type:text"`
	CreatedAt           time.Time
}
