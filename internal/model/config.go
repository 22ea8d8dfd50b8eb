package model

import "time"

// DBConfig is the process-wide schema marker stored as a single object
// under `autonow_db_config`. When the version is absent or stale the
// bootstrap routine wipes and regenerates the sample data.
type DBConfig struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
}
