package model

import "time"

// Ride lifecycle states.
const (
	RideRequested  = "requested"
	RideAssigned   = "assigned"
	RideInProgress = "in_progress"
	RideCompleted  = "completed"
	RideCancelled  = "cancelled"
)

// Ride is one booking, persisted under `autonow_db_rides`. Fare, distance
// and ETA come from the quoting strategy at booking time; Progress runs
// 0–100 while the ride is in flight.
type Ride struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	DriverID   string    `json:"driverId,omitempty"`
	Pickup     Location  `json:"pickup"`
	Dropoff    Location  `json:"dropoff"`
	Fare       float64   `json:"fare"`
	DistanceKm float64   `json:"distanceKm"`
	ETAMinutes int       `json:"etaMinutes"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RidePatch carries the updatable ride fields.
type RidePatch struct {
	DriverID *string
	Status   *string
	Progress *int
}
