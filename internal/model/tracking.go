package model

import (
	"time"

	"github.com/google/uuid"
)

type TrackingStatus string

const (
	TrackingTraveling  TrackingStatus = "traveling"
	TrackingAtLocation TrackingStatus = "at_location"
	TrackingIdle       TrackingStatus = "idle"
)

// LiveTrackingPoint is one classified GPS fix. Immutable once written; the
// per-beautician sequence ordered by timestamp is the trail. Duplicate
// points from client retries are harmless extra history rows.
type LiveTrackingPoint struct {
	BaseModel
	BeauticianID uuid.UUID      `gorm:"type:uuid;not null;index:idx_tracking_beautician_ts" json:"beautician_id"`
	OrderID      *uuid.UUID     `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Latitude     float64        `gorm:"not null" json:"latitude"`
	Longitude    float64        `gorm:"not null" json:"longitude"`
	Accuracy     *float64       `json:"accuracy,omitempty"`
	Speed        *float64       `json:"speed,omitempty"` // m/s
	Status       TrackingStatus `gorm:"type:varchar(20);not null" json:"status"`
	Timestamp    time.Time      `gorm:"not null;index:idx_tracking_beautician_ts" json:"timestamp"`
}
