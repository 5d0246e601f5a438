package model

import "time"

// PushSubscription holds a browser push subscription for greeting-expiry
// alerts, scoped to a single venue.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	VenueID   int64     `gorm:"index;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
