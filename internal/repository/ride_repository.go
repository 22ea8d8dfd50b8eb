package repository

import (
	"context"
	"log"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

type RideRepo struct{ Store *store.Store }

func NewRideRepo(s *store.Store) *RideRepo { return &RideRepo{Store: s} }

func (r *RideRepo) load(ctx context.Context) []model.Ride {
	var rides []model.Ride
	if err := r.Store.ReadJSON(ctx, store.KeyRides, &rides); err != nil {
		log.Printf("rides: read failed, serving empty collection: %v", err)
		return nil
	}
	return rides
}

func (r *RideRepo) save(ctx context.Context, rides []model.Ride) error {
	return r.Store.WriteJSON(ctx, store.KeyRides, rides)
}

func (r *RideRepo) All(ctx context.Context) []model.Ride {
	r.Store.Lock()
	defer r.Store.Unlock()
	return r.load(ctx)
}

func (r *RideRepo) ByID(ctx context.Context, id string) (model.Ride, error) {
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, ride := range r.load(ctx) {
		if ride.ID == id {
			return ride, nil
		}
	}
	return model.Ride{}, ErrNotFound
}

// ByUser returns the rides booked by userID, newest first.
func (r *RideRepo) ByUser(ctx context.Context, userID string) []model.Ride {
	r.Store.Lock()
	defer r.Store.Unlock()
	var out []model.Ride
	rides := r.load(ctx)
	for i := len(rides) - 1; i >= 0; i-- {
		if rides[i].UserID == userID {
			out = append(out, rides[i])
		}
	}
	return out
}

// ByDriver returns the rides assigned to driverID, newest first.
func (r *RideRepo) ByDriver(ctx context.Context, driverID string) []model.Ride {
	r.Store.Lock()
	defer r.Store.Unlock()
	var out []model.Ride
	rides := r.load(ctx)
	for i := len(rides) - 1; i >= 0; i-- {
		if rides[i].DriverID == driverID {
			out = append(out, rides[i])
		}
	}
	return out
}

func (r *RideRepo) Create(ctx context.Context, ride model.Ride) (model.Ride, error) {
	now := time.Now().UTC()
	ride.ID = utils.GenerateID()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	if ride.Status == "" {
		ride.Status = model.RideRequested
	}

	r.Store.Lock()
	defer r.Store.Unlock()
	rides := append(r.load(ctx), ride)
	if err := r.save(ctx, rides); err != nil {
		return model.Ride{}, err
	}
	return ride, nil
}

func (r *RideRepo) Update(ctx context.Context, id string, p model.RidePatch) (model.Ride, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	rides := r.load(ctx)
	for i := range rides {
		if rides[i].ID != id {
			continue
		}
		if p.DriverID != nil {
			rides[i].DriverID = *p.DriverID
		}
		if p.Status != nil {
			rides[i].Status = *p.Status
		}
		if p.Progress != nil {
			rides[i].Progress = *p.Progress
		}
		rides[i].UpdatedAt = bumpTime(rides[i].UpdatedAt)
		if err := r.save(ctx, rides); err != nil {
			return model.Ride{}, err
		}
		return rides[i], nil
	}
	return model.Ride{}, ErrNotFound
}

func (r *RideRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	rides := r.load(ctx)
	for i := range rides {
		if rides[i].ID == id {
			rides = append(rides[:i], rides[i+1:]...)
			return true, r.save(ctx, rides)
		}
	}
	return false, nil
}
