package repository

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

// SchemaVersion is the marker the bootstrap routine checks. Stores written
// by an older client lack it (or carry a lower value) and get wiped and
// reseeded, reproducing the original one-time migration.
const SchemaVersion = "2.0.0"

// Bootstrap ensures the store carries the current schema marker, wiping
// and regenerating the demo dataset when it does not.
func Bootstrap(ctx context.Context, s *store.Store) error {
	s.Lock()
	var cfg model.DBConfig
	if err := s.ReadJSON(ctx, store.KeyConfig, &cfg); err != nil {
		log.Printf("bootstrap: config read failed, treating store as unmigrated: %v", err)
	}
	if cfg.Version == SchemaVersion {
		s.Unlock()
		return nil
	}
	// A marker above ours means a newer binary owns this store. Wiping it
	// here would destroy data we cannot regenerate, so leave it alone.
	if cfg.Version != "" && !versionLess(cfg.Version, SchemaVersion) {
		log.Printf("bootstrap: store schema %q is newer than %q, leaving data untouched", cfg.Version, SchemaVersion)
		s.Unlock()
		return nil
	}

	log.Printf("bootstrap: schema marker %q below %q, regenerating sample data", cfg.Version, SchemaVersion)
	for _, key := range []string{
		store.KeyUsers, store.KeySessions, store.KeyPasswordResets,
		store.KeyDrivers, store.KeyDriverSessions, store.KeyRides,
	} {
		if err := s.Remove(ctx, key); err != nil {
			s.Unlock()
			return err
		}
	}
	if err := s.WriteJSON(ctx, store.KeyConfig, model.DBConfig{
		Version:     SchemaVersion,
		LastUpdated: time.Now().UTC(),
	}); err != nil {
		s.Unlock()
		return err
	}
	s.Unlock()

	return seed(ctx, s)
}

// versionLess reports whether a sorts before b as dotted numeric
// versions. Missing or unparseable segments compare as zero.
func versionLess(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		if x != y {
			return x < y
		}
	}
	return false
}

// seed writes the demo accounts through the repositories so ids,
// timestamps and uniqueness behave exactly as runtime creates do.
// Passwords are hashed with the legacy checksum to stay readable by any
// leftover client pointed at the same store.
func seed(ctx context.Context, s *store.Store) error {
	users := NewUserRepo(s)
	drivers := NewDriverRepo(s)

	demoUsers := []struct {
		name, email, phone, password, role string
	}{
		{"Admin", "admin@autonow.com", "+15550100", "admin123", model.RoleAdmin},
		{"Asel Nurlanovna", "asel@example.com", "+15550101", "password1", model.RoleUser},
		{"Bektur Amanov", "bektur@example.com", "+15550102", "password2", model.RoleUser},
	}
	for _, du := range demoUsers {
		_, err := users.Create(ctx, model.User{
			Name:             du.name,
			Email:            du.email,
			Phone:            du.phone,
			Password:         utils.HashPassword(du.password),
			OriginalPassword: du.password,
			Role:             du.role,
			IsActive:         true,
		})
		if err != nil {
			return err
		}
	}

	demoDrivers := []struct {
		name, email, phone, password, vehicle, license string
		rating                                         float64
		totalRides                                     int
	}{
		{"Daniyar Seitkali", "daniyar@example.com", "+15550201", "driver1", "KZ 001 AA", "DL-48213", 4.8, 312},
		{"Marat Ospanov", "marat@example.com", "+15550202", "driver2", "KZ 002 BB", "DL-51877", 4.6, 198},
	}
	for _, dd := range demoDrivers {
		_, err := drivers.Create(ctx, model.Driver{
			Name:             dd.name,
			Email:            dd.email,
			Phone:            dd.phone,
			Password:         utils.HashPassword(dd.password),
			OriginalPassword: dd.password,
			VehicleNumber:    dd.vehicle,
			LicenseNumber:    dd.license,
			Status:           model.DriverAvailable,
			IsActive:         true,
			IsVerified:       true,
			Rating:           dd.rating,
			TotalRides:       dd.totalRides,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
