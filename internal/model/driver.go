package model

import "time"

// Driver availability states stored in the `status` field.
const (
	DriverAvailable = "available"
	DriverBusy      = "busy"
	DriverOffline   = "offline"
)

// Location is an optional point attached to drivers and rides.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Driver represents a driver record persisted under `autonow_db_drivers`.
// It is a superset of the user fields plus vehicle and availability data.
// Email, phone and vehicleNumber are unique across the collection at
// creation time.
type Driver struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Password         string     `json:"password"`
	OriginalPassword string     `json:"originalPassword"`
	VehicleNumber    string     `json:"vehicleNumber"`
	LicenseNumber    string     `json:"licenseNumber"`
	Status           string     `json:"status"`
	IsActive         bool       `json:"isActive"`
	IsVerified       bool       `json:"isVerified"`
	Rating           float64    `json:"rating"`
	TotalRides       int        `json:"totalRides"`
	Location         *Location  `json:"location,omitempty"`
	Avatar           string     `json:"avatar,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// DriverPatch carries the updatable driver fields.
type DriverPatch struct {
	Name             *string
	Email            *string
	Phone            *string
	Password         *string
	OriginalPassword *string
	VehicleNumber    *string
	LicenseNumber    *string
	Status           *string
	IsActive         *bool
	IsVerified       *bool
	Rating           *float64
	TotalRides       *int
	Location         *Location
	Avatar           *string
	LastLoginAt      *time.Time
}

// PublicDriver is the password-stripped driver view.
type PublicDriver struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	VehicleNumber string     `json:"vehicleNumber"`
	LicenseNumber string     `json:"licenseNumber"`
	Status        string     `json:"status"`
	IsActive      bool       `json:"isActive"`
	IsVerified    bool       `json:"isVerified"`
	Rating        float64    `json:"rating"`
	TotalRides    int        `json:"totalRides"`
	Location      *Location  `json:"location,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// Public returns the driver without its password fields.
func (d Driver) Public() PublicDriver {
	return PublicDriver{
		ID:            d.ID,
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		VehicleNumber: d.VehicleNumber,
		LicenseNumber: d.LicenseNumber,
		Status:        d.Status,
		IsActive:      d.IsActive,
		IsVerified:    d.IsVerified,
		Rating:        d.Rating,
		TotalRides:    d.TotalRides,
		Location:      d.Location,
		Avatar:        d.Avatar,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		LastLoginAt:   d.LastLoginAt,
	}
}
