// Package queue defines the ride event payloads exchanged over the
// message broker and the background consumer that records them.
package queue

// Queue names used by the publisher and consumer.
const (
	RideBookedQueue    = "ride.booked"
	RideCompletedQueue = "ride.completed"
)

// RideBookedEvent is published when a ride is booked and a driver
// assigned. It carries enough for downstream consumers to log or notify
// without reading the store.
type RideBookedEvent struct {
	RideID     string  `json:"ride_id"`
	UserID     string  `json:"user_id"`
	DriverID   string  `json:"driver_id"`
	Pickup     string  `json:"pickup"`
	Dropoff    string  `json:"dropoff"`
	Fare       float64 `json:"fare"`
	DistanceKm float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
	BookedAt   string  `json:"booked_at"`
}

// RideCompletedEvent is published when a driver completes a ride.
type RideCompletedEvent struct {
	RideID      string  `json:"ride_id"`
	UserID      string  `json:"user_id"`
	DriverID    string  `json:"driver_id"`
	Fare        float64 `json:"fare"`
	CompletedAt string  `json:"completed_at"`
}
