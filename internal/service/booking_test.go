package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/repository"
	"github.com/autonow/autonow-backend/internal/store"
)

var (
	almaty  = model.Location{Lat: 43.2389, Lng: 76.8897, Address: "Almaty center"}
	airport = model.Location{Lat: 43.3521, Lng: 77.0405, Address: "Almaty airport"}
)

func newTestBooking(t *testing.T) (*Booking, *repository.DriverRepo) {
	t.Helper()
	st := store.New(store.NewMemory())
	rng := NewRand(1)
	drivers := repository.NewDriverRepo(st)
	b := NewBooking(
		repository.NewRideRepo(st),
		drivers,
		NewRandQuoter(rng),
		NewRandMatcher(rng),
		NewRandProgress(rng),
		NewPublisher(""), // no broker in tests
	)
	return b, drivers
}

func addAvailableDriver(t *testing.T, drivers *repository.DriverRepo, email, phone, vehicle string) model.Driver {
	t.Helper()
	d, err := drivers.Create(context.Background(), model.Driver{
		Name: "D", Email: email, Phone: phone, Password: "x",
		VehicleNumber: vehicle, Status: model.DriverAvailable,
		IsActive: true, IsVerified: true,
	})
	require.NoError(t, err)
	return d
}

func TestQuoterPricesFromDistance(t *testing.T) {
	q := NewRandQuoter(NewRand(1))
	quote := q.Quote(almaty, airport)
	assert.Greater(t, quote.DistanceKm, 10.0) // ~17km great-circle
	assert.Less(t, quote.DistanceKm, 30.0)
	assert.Greater(t, quote.Fare, q.BaseFare)
	assert.GreaterOrEqual(t, quote.ETAMinutes, 1)

	// Degenerate trips are floored, never zero-priced.
	tiny := q.Quote(almaty, almaty)
	assert.GreaterOrEqual(t, tiny.DistanceKm, 0.5)
	assert.Greater(t, tiny.Fare, 0.0)
}

func TestBookRideAssignsDriver(t *testing.T) {
	ctx := context.Background()
	b, drivers := newTestBooking(t)
	d := addAvailableDriver(t, drivers, "d@x.com", "+1", "KZ 001 AA")

	ride, err := b.BookRide(ctx, "user-1", almaty, airport)
	require.NoError(t, err)
	assert.Equal(t, model.RideAssigned, ride.Status)
	assert.Equal(t, d.ID, ride.DriverID)
	assert.Greater(t, ride.Fare, 0.0)

	// The assigned driver is busy and out of the matching pool.
	got, err := drivers.ByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DriverBusy, got.Status)
	assert.Empty(t, drivers.Available(ctx))
}

func TestBookRideWithoutDrivers(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBooking(t)

	ride, err := b.BookRide(ctx, "user-1", almaty, airport)
	assert.ErrorIs(t, err, ErrNoDriver)
	// The ride is still persisted, waiting in the requested state.
	assert.Equal(t, model.RideRequested, ride.Status)
	got, err := b.Rides.ByID(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RideRequested, got.Status)
}

func TestRideProgressRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	b, drivers := newTestBooking(t)
	d := addAvailableDriver(t, drivers, "d@x.com", "+1", "KZ 001 AA")

	ride, err := b.BookRide(ctx, "user-1", almaty, airport)
	require.NoError(t, err)

	ride, err = b.StartRide(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RideInProgress, ride.Status)

	// Each tick advances at least 5 points, so 20 ticks always finish.
	for i := 0; i < 20 && ride.Status == model.RideInProgress; i++ {
		ride, err = b.AdvanceProgress(ctx, ride.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, model.RideCompleted, ride.Status)
	assert.Equal(t, 100, ride.Progress)

	// Completion frees the driver and counts the ride.
	got, err := drivers.ByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DriverAvailable, got.Status)
	assert.Equal(t, d.TotalRides+1, got.TotalRides)
}

func TestStartRequiresAssignedState(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBooking(t)

	ride, err := b.BookRide(ctx, "user-1", almaty, airport)
	assert.ErrorIs(t, err, ErrNoDriver)

	_, err = b.StartRide(ctx, ride.ID)
	assert.ErrorIs(t, err, ErrRideState)
}

func TestCancelRide(t *testing.T) {
	ctx := context.Background()
	b, drivers := newTestBooking(t)
	d := addAvailableDriver(t, drivers, "d@x.com", "+1", "KZ 001 AA")

	ride, err := b.BookRide(ctx, "user-1", almaty, airport)
	require.NoError(t, err)

	cancelled, err := b.CancelRide(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RideCancelled, cancelled.Status)

	// Cancelling frees the driver without crediting a ride.
	got, err := drivers.ByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DriverAvailable, got.Status)
	assert.Equal(t, d.TotalRides, got.TotalRides)

	_, err = b.CancelRide(ctx, ride.ID)
	assert.ErrorIs(t, err, ErrRideState)
}

// Run with -race: the strategies share one random source across
// goroutines and the driver claim must stay single-winner.
func TestConcurrentBookingsAssignDriverOnce(t *testing.T) {
	ctx := context.Background()
	b, drivers := newTestBooking(t)
	d := addAvailableDriver(t, drivers, "d@x.com", "+1", "KZ 001 AA")

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.BookRide(ctx, fmt.Sprintf("user-%d", i), almaty, airport)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrNoDriver):
		default:
			t.Fatalf("unexpected booking error: %v", err)
		}
	}
	// The sole driver is claimed by exactly one booking; the rest stay
	// requested.
	assert.Equal(t, 1, wins)

	assigned := 0
	for _, ride := range b.Rides.All(ctx) {
		if ride.Status == model.RideAssigned {
			assigned++
			assert.Equal(t, d.ID, ride.DriverID)
		}
	}
	assert.Equal(t, 1, assigned)

	got, err := drivers.ByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DriverBusy, got.Status)
}

func TestRandMatcherEmptyPool(t *testing.T) {
	m := NewRandMatcher(NewRand(1))
	_, ok := m.Match(nil)
	assert.False(t, ok)
}

func TestRandProgressClampsAtHundred(t *testing.T) {
	p := NewRandProgress(NewRand(1))
	for i := 0; i < 100; i++ {
		next := p.Next(90)
		assert.Greater(t, next, 90)
		assert.LessOrEqual(t, next, 100)
	}
}
