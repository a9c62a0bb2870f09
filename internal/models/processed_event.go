package models

import (
	"time"
)

// ProcessedEvent records that a provider event id was handed to the bus.
// Rows are never updated; their existence is the dedupe marker.
type ProcessedEvent struct {
	EventID     string    `gorm:"primary_key;size:255" json:"event_id"`
	ProcessedAt time.Time `gorm:"not null;default:now()" json:"processed_at"`
}

func (ProcessedEvent) TableName() string {
	return "processed_events"
}
