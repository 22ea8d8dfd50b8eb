package model

import "time"

// Session is a time-boxed, revocable proof of authentication for a user,
// persisted under `autonow_db_sessions`. A session is valid only while
// IsActive is true and the expiry has not passed; nothing enforces that
// beyond query-time filtering, so an expired record can sit in storage
// still flagged active until a cleanup pass removes it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
	UserAgent string    `json:"userAgent,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
}

// Valid reports whether the session can authenticate a request at now.
func (s Session) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// DriverSession mirrors Session for driver identities, persisted under
// `autonow_db_driver_sessions`.
type DriverSession struct {
	ID        string    `json:"id"`
	DriverID  string    `json:"driverId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
	UserAgent string    `json:"userAgent,omitempty"`
	IPAddress string    `json:"ipAddress,omitempty"`
}

// Valid reports whether the driver session can authenticate a request at now.
func (s DriverSession) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// PasswordReset is a single-use recovery token persisted under
// `autonow_db_password_resets`. Single use is checked at consumption, not
// locked.
type PasswordReset struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsUsed    bool      `json:"isUsed"`
}
