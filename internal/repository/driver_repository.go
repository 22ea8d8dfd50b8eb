package repository

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

type DriverRepo struct{ Store *store.Store }

func NewDriverRepo(s *store.Store) *DriverRepo { return &DriverRepo{Store: s} }

func (r *DriverRepo) load(ctx context.Context) []model.Driver {
	var drivers []model.Driver
	if err := r.Store.ReadJSON(ctx, store.KeyDrivers, &drivers); err != nil {
		log.Printf("drivers: read failed, serving empty collection: %v", err)
		return nil
	}
	return drivers
}

func (r *DriverRepo) save(ctx context.Context, drivers []model.Driver) error {
	return r.Store.WriteJSON(ctx, store.KeyDrivers, drivers)
}

func (r *DriverRepo) All(ctx context.Context) []model.Driver {
	r.Store.Lock()
	defer r.Store.Unlock()
	return r.load(ctx)
}

// Available returns verified, active drivers currently marked available.
// The matcher draws from this set.
func (r *DriverRepo) Available(ctx context.Context) []model.Driver {
	r.Store.Lock()
	defer r.Store.Unlock()
	var out []model.Driver
	for _, d := range r.load(ctx) {
		if d.IsActive && d.IsVerified && d.Status == model.DriverAvailable {
			out = append(out, d)
		}
	}
	return out
}

func (r *DriverRepo) ByID(ctx context.Context, id string) (model.Driver, error) {
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, d := range r.load(ctx) {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Driver{}, ErrNotFound
}

func (r *DriverRepo) ByEmail(ctx context.Context, email string) (model.Driver, error) {
	email = normalizeEmail(email)
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, d := range r.load(ctx) {
		if normalizeEmail(d.Email) == email {
			return d, nil
		}
	}
	return model.Driver{}, ErrNotFound
}

func (r *DriverRepo) ByPhone(ctx context.Context, phone string) (model.Driver, error) {
	phone = strings.TrimSpace(phone)
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, d := range r.load(ctx) {
		if d.Phone == phone {
			return d, nil
		}
	}
	return model.Driver{}, ErrNotFound
}

// Create appends a new driver after scanning email, phone and vehicle
// number for duplicates.
func (r *DriverRepo) Create(ctx context.Context, d model.Driver) (model.Driver, error) {
	d.Email = normalizeEmail(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.VehicleNumber = strings.ToUpper(strings.TrimSpace(d.VehicleNumber))

	r.Store.Lock()
	defer r.Store.Unlock()

	drivers := r.load(ctx)
	for _, existing := range drivers {
		if normalizeEmail(existing.Email) == d.Email {
			return model.Driver{}, ErrEmailExists
		}
		if existing.Phone == d.Phone {
			return model.Driver{}, ErrPhoneExists
		}
		if existing.VehicleNumber == d.VehicleNumber {
			return model.Driver{}, ErrVehicleExists
		}
	}

	now := time.Now().UTC()
	d.ID = utils.GenerateID()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Status == "" {
		d.Status = model.DriverOffline
	}

	drivers = append(drivers, d)
	if err := r.save(ctx, drivers); err != nil {
		return model.Driver{}, err
	}
	return d, nil
}

// ClaimAvailable flips the driver from available to busy inside one
// locked cycle. The status re-check happens under the store lock, so of
// two concurrent claims exactly one wins; the loser gets ok=false and no
// write happens.
func (r *DriverRepo) ClaimAvailable(ctx context.Context, id string) (model.Driver, bool, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	drivers := r.load(ctx)
	for i := range drivers {
		if drivers[i].ID != id {
			continue
		}
		if !drivers[i].IsActive || !drivers[i].IsVerified || drivers[i].Status != model.DriverAvailable {
			return model.Driver{}, false, nil
		}
		drivers[i].Status = model.DriverBusy
		drivers[i].UpdatedAt = bumpTime(drivers[i].UpdatedAt)
		if err := r.save(ctx, drivers); err != nil {
			return model.Driver{}, false, err
		}
		return drivers[i], true, nil
	}
	return model.Driver{}, false, nil
}

func (r *DriverRepo) Update(ctx context.Context, id string, p model.DriverPatch) (model.Driver, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	drivers := r.load(ctx)
	for i := range drivers {
		if drivers[i].ID != id {
			continue
		}
		applyDriverPatch(&drivers[i], p)
		drivers[i].UpdatedAt = bumpTime(drivers[i].UpdatedAt)
		if err := r.save(ctx, drivers); err != nil {
			return model.Driver{}, err
		}
		return drivers[i], nil
	}
	return model.Driver{}, ErrNotFound
}

func (r *DriverRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	drivers := r.load(ctx)
	for i := range drivers {
		if drivers[i].ID == id {
			drivers = append(drivers[:i], drivers[i+1:]...)
			return true, r.save(ctx, drivers)
		}
	}
	return false, nil
}

func applyDriverPatch(d *model.Driver, p model.DriverPatch) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Email != nil {
		d.Email = normalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		d.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Password != nil {
		d.Password = *p.Password
	}
	if p.OriginalPassword != nil {
		d.OriginalPassword = *p.OriginalPassword
	}
	if p.VehicleNumber != nil {
		d.VehicleNumber = strings.ToUpper(strings.TrimSpace(*p.VehicleNumber))
	}
	if p.LicenseNumber != nil {
		d.LicenseNumber = *p.LicenseNumber
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}
	if p.IsVerified != nil {
		d.IsVerified = *p.IsVerified
	}
	if p.Rating != nil {
		d.Rating = *p.Rating
	}
	if p.TotalRides != nil {
		d.TotalRides = *p.TotalRides
	}
	if p.Location != nil {
		d.Location = p.Location
	}
	if p.Avatar != nil {
		d.Avatar = *p.Avatar
	}
	if p.LastLoginAt != nil {
		d.LastLoginAt = p.LastLoginAt
	}
}
