package model

import "time"

// MetricStatus is the lifecycle state of a greeting measurement.
type MetricStatus string

const (
	MetricWaiting    MetricStatus = "waiting"
	MetricGreeted    MetricStatus = "greeted"
	MetricExpired    MetricStatus = "expired"
	MetricNoGreeting MetricStatus = "no_greeting"
)

// GreetingMetric records one seating-to-staff-approach cycle for a table.
// A metric is mutable only while status is "waiting"; greeted and expired
// are terminal. At most one waiting row may exist per (venue_id, table_name),
// enforced by a partial unique index in postgres.
type GreetingMetric struct {
	ID                  int64        `gorm:"primaryKey;autoIncrement"`
	VenueID             int64        `gorm:"index:idx_metric_venue_date;not null"`
	TableName           string       `gorm:"size:64;not null"`
	BusinessDate        time.Time    `gorm:"index:idx_metric_venue_date;not null"`
	SeatedAt            time.Time    `gorm:"not null"`
	SeatedZoneID        int64        `gorm:"not null"`
	SeatedEventID       int64        `gorm:"not null"`
	GreetedAt           *time.Time
	GreetingTimeSeconds *int
	ApproachZoneID      *int64
	GreetedEventID      *int64
	Status              MetricStatus `gorm:"size:16;index;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
