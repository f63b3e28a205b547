package service

import (
	"encoding/json"
	"time"

	"go-dispatch-ws/internal/model"
	"go-dispatch-ws/internal/repository"
	"go-dispatch-ws/internal/tracker"
	"go-dispatch-ws/internal/ws"

	"github.com/google/uuid"
)

// TrackingRetention is how long raw tracking points are kept
const TrackingRetention = 7 * 24 * time.Hour

// IngestRequest is one location report from a field client
type IngestRequest struct {
	Latitude       float64              `json:"latitude" validate:"required,latitude"`
	Longitude      float64              `json:"longitude" validate:"required,longitude"`
	Accuracy       *float64             `json:"accuracy,omitempty"`
	Speed          *float64             `json:"speed,omitempty"`
	OrderID        *uuid.UUID           `json:"order_id,omitempty"`
	TrackingStatus model.TrackingStatus `json:"tracking_status,omitempty"`
}

type TrackingService interface {
	Ingest(beauticianID uuid.UUID, req IngestRequest) error
	Latest(beauticianID uuid.UUID) (*model.LiveTrackingPoint, error)
	History(beauticianID uuid.UUID, since *time.Time) ([]model.LiveTrackingPoint, error)
	TrailSince(beauticianID uuid.UUID, duration time.Duration) ([]model.LiveTrackingPoint, error)
	// OrderTrail returns every point recorded against one order, the route a
	// worker actually took to and through an appointment.
	OrderTrail(orderID uuid.UUID) ([]model.LiveTrackingPoint, error)
	Cleanup() (int64, error)
	Board() ([]repository.TrackingBoardRow, error)
}

type trackingService struct {
	trackingRepo repository.TrackingRepository
	wsHub        *ws.Hub
	now          func() time.Time
}

func NewTrackingService(trackingRepo repository.TrackingRepository, hub *ws.Hub) TrackingService {
	return &trackingService{
		trackingRepo: trackingRepo,
		wsHub:        hub,
		now:          time.Now,
	}
}

// Ingest appends one tracking point with a server-assigned timestamp. When
// the client omits the classified status, it is derived from speed with the
// same threshold the client-side classifier uses.
func (s *trackingService) Ingest(beauticianID uuid.UUID, req IngestRequest) error {
	status := req.TrackingStatus
	if status == "" {
		status = DeriveTrackingStatus(req.Speed, req.OrderID != nil)
	}

	point := &model.LiveTrackingPoint{
		BeauticianID: beauticianID,
		OrderID:      req.OrderID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Accuracy:     req.Accuracy,
		Speed:        req.Speed,
		Status:       status,
		Timestamp:    s.now(),
	}

	if err := s.trackingRepo.Append(point); err != nil {
		return err
	}

	s.broadcastLocation(point)
	return nil
}

// DeriveTrackingStatus applies the classifier's speed rule server-side:
// strictly above 0.556 m/s (2 km/h) is traveling, otherwise at_location
// when a job is attached and idle when not. A nil speed counts as not
// moving.
func DeriveTrackingStatus(speed *float64, hasActiveJob bool) model.TrackingStatus {
	if speed != nil && *speed > tracker.TravelingSpeedThreshold {
		return model.TrackingTraveling
	}
	if hasActiveJob {
		return model.TrackingAtLocation
	}
	return model.TrackingIdle
}

func (s *trackingService) Latest(beauticianID uuid.UUID) (*model.LiveTrackingPoint, error) {
	return s.trackingRepo.Latest(beauticianID)
}

func (s *trackingService) History(beauticianID uuid.UUID, since *time.Time) ([]model.LiveTrackingPoint, error) {
	return s.trackingRepo.History(beauticianID, since)
}

func (s *trackingService) TrailSince(beauticianID uuid.UUID, duration time.Duration) ([]model.LiveTrackingPoint, error) {
	since := s.now().Add(-duration)
	return s.trackingRepo.History(beauticianID, &since)
}

func (s *trackingService) OrderTrail(orderID uuid.UUID) ([]model.LiveTrackingPoint, error) {
	return s.trackingRepo.HistoryForOrder(orderID)
}

func (s *trackingService) Cleanup() (int64, error) {
	cutoff := s.now().Add(-TrackingRetention)
	return s.trackingRepo.CleanupOlderThan(cutoff)
}

func (s *trackingService) Board() ([]repository.TrackingBoardRow, error) {
	return s.trackingRepo.Board()
}

func (s *trackingService) broadcastLocation(point *model.LiveTrackingPoint) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":          "location_update",
			"beautician_id": point.BeauticianID,
			"latitude":      point.Latitude,
			"longitude":     point.Longitude,
			"status":        point.Status,
			"timestamp":     point.Timestamp,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- msg
	}()
}
