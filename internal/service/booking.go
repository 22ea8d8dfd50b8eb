package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/queue"
	"github.com/autonow/autonow-backend/internal/repository"
)

// ErrNoDriver is returned when no verified driver is available to take a
// ride. The ride stays in the requested state.
var ErrNoDriver = errors.New("no driver available")

// ErrRideState is returned when a transition is requested from the wrong
// ride state, e.g. starting a ride that was never assigned.
var ErrRideState = errors.New("invalid ride state")

// Booking drives the ride lifecycle: quote, create, match, progress,
// complete. The strategies supply the demo's simulated pricing and
// dispatch decisions.
type Booking struct {
	Rides    *repository.RideRepo
	Drivers  *repository.DriverRepo
	quoter   Quoter
	matcher  Matcher
	progress Progress
	pub      *Publisher
}

func NewBooking(rides *repository.RideRepo, drivers *repository.DriverRepo,
	quoter Quoter, matcher Matcher, progress Progress, pub *Publisher) *Booking {
	return &Booking{
		Rides:    rides,
		Drivers:  drivers,
		quoter:   quoter,
		matcher:  matcher,
		progress: progress,
		pub:      pub,
	}
}

// BookRide quotes the trip, persists the ride and assigns a driver. When
// no driver is available the ride is kept as requested and ErrNoDriver is
// returned alongside it so the caller can surface both.
func (b *Booking) BookRide(ctx context.Context, userID string, pickup, dropoff model.Location) (model.Ride, error) {
	q := b.quoter.Quote(pickup, dropoff)
	ride, err := b.Rides.Create(ctx, model.Ride{
		UserID:     userID,
		Pickup:     pickup,
		Dropoff:    dropoff,
		Fare:       q.Fare,
		DistanceKm: q.DistanceKm,
		ETAMinutes: q.ETAMinutes,
		Status:     model.RideRequested,
	})
	if err != nil {
		return model.Ride{}, err
	}

	driver, err := b.claimDriver(ctx)
	if err != nil {
		return ride, err
	}
	assigned := model.RideAssigned
	ride, err = b.Rides.Update(ctx, ride.ID, model.RidePatch{DriverID: &driver.ID, Status: &assigned})
	if err != nil {
		return ride, err
	}

	_ = b.pub.Publish(ctx, queue.RideBookedQueue, queue.RideBookedEvent{
		RideID:     ride.ID,
		UserID:     ride.UserID,
		DriverID:   ride.DriverID,
		Pickup:     pickup.Address,
		Dropoff:    dropoff.Address,
		Fare:       ride.Fare,
		DistanceKm: ride.DistanceKm,
		ETAMinutes: ride.ETAMinutes,
		BookedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	return ride, nil
}

// claimDriver matches and claims an available driver. The matcher picks
// from a snapshot of the available set, so the claim re-checks status
// under the store lock and the loop re-matches when a concurrent booking
// won the same driver first.
func (b *Booking) claimDriver(ctx context.Context) (model.Driver, error) {
	for attempt := 0; attempt < 3; attempt++ {
		cand, ok := b.matcher.Match(b.Drivers.Available(ctx))
		if !ok {
			return model.Driver{}, ErrNoDriver
		}
		driver, claimed, err := b.Drivers.ClaimAvailable(ctx, cand.ID)
		if err != nil {
			return model.Driver{}, fmt.Errorf("claim driver: %w", err)
		}
		if claimed {
			return driver, nil
		}
	}
	return model.Driver{}, ErrNoDriver
}

// StartRide moves an assigned ride into progress.
func (b *Booking) StartRide(ctx context.Context, rideID string) (model.Ride, error) {
	ride, err := b.Rides.ByID(ctx, rideID)
	if err != nil {
		return model.Ride{}, err
	}
	if ride.Status != model.RideAssigned {
		return model.Ride{}, ErrRideState
	}
	inProgress := model.RideInProgress
	return b.Rides.Update(ctx, rideID, model.RidePatch{Status: &inProgress})
}

// AdvanceProgress applies one simulated progress tick and completes the
// ride when it reaches 100.
func (b *Booking) AdvanceProgress(ctx context.Context, rideID string) (model.Ride, error) {
	ride, err := b.Rides.ByID(ctx, rideID)
	if err != nil {
		return model.Ride{}, err
	}
	if ride.Status != model.RideInProgress {
		return model.Ride{}, ErrRideState
	}
	next := b.progress.Next(ride.Progress)
	ride, err = b.Rides.Update(ctx, rideID, model.RidePatch{Progress: &next})
	if err != nil {
		return model.Ride{}, err
	}
	if next >= 100 {
		return b.CompleteRide(ctx, rideID)
	}
	return ride, nil
}

// CompleteRide finishes the ride, frees the driver and bumps the driver's
// ride count.
func (b *Booking) CompleteRide(ctx context.Context, rideID string) (model.Ride, error) {
	ride, err := b.Rides.ByID(ctx, rideID)
	if err != nil {
		return model.Ride{}, err
	}
	if ride.Status != model.RideInProgress && ride.Status != model.RideAssigned {
		return model.Ride{}, ErrRideState
	}
	completed := model.RideCompleted
	full := 100
	ride, err = b.Rides.Update(ctx, rideID, model.RidePatch{Status: &completed, Progress: &full})
	if err != nil {
		return model.Ride{}, err
	}
	b.releaseDriver(ctx, ride.DriverID, true)

	_ = b.pub.Publish(ctx, queue.RideCompletedQueue, queue.RideCompletedEvent{
		RideID:      ride.ID,
		UserID:      ride.UserID,
		DriverID:    ride.DriverID,
		Fare:        ride.Fare,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return ride, nil
}

// CancelRide cancels a ride that has not completed and frees its driver.
func (b *Booking) CancelRide(ctx context.Context, rideID string) (model.Ride, error) {
	ride, err := b.Rides.ByID(ctx, rideID)
	if err != nil {
		return model.Ride{}, err
	}
	if ride.Status == model.RideCompleted || ride.Status == model.RideCancelled {
		return model.Ride{}, ErrRideState
	}
	cancelled := model.RideCancelled
	ride, err = b.Rides.Update(ctx, rideID, model.RidePatch{Status: &cancelled})
	if err != nil {
		return model.Ride{}, err
	}
	b.releaseDriver(ctx, ride.DriverID, false)
	return ride, nil
}

func (b *Booking) releaseDriver(ctx context.Context, driverID string, countRide bool) {
	if driverID == "" {
		return
	}
	driver, err := b.Drivers.ByID(ctx, driverID)
	if err != nil {
		return
	}
	patch := model.DriverPatch{}
	available := model.DriverAvailable
	patch.Status = &available
	if countRide {
		total := driver.TotalRides + 1
		patch.TotalRides = &total
	}
	if _, err := b.Drivers.Update(ctx, driverID, patch); err != nil {
		// The ride state already changed; a stuck busy flag corrects
		// itself the next time the driver toggles availability.
		return
	}
}
