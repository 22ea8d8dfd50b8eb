// Package service implements the booking flow on top of the repositories.
// The demo's fare, matching and trip-progress behavior is random by
// design; the strategy interfaces here fence that randomness off so real
// pricing or dispatch logic can replace it without touching handlers.
package service

import (
	"math"
	"math/rand"
	"sync"

	"github.com/autonow/autonow-backend/internal/model"
)

// Rand is the random source behind the default strategies. rand.Rand is
// not safe for concurrent use and the strategies run inside concurrent
// request handlers, so every draw goes through one mutex. A single Rand
// can back all three strategies.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRand(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Quote is the priced estimate for a requested ride.
type Quote struct {
	Fare       float64
	DistanceKm float64
	ETAMinutes int
}

// Quoter prices a pickup/dropoff pair.
type Quoter interface {
	Quote(pickup, dropoff model.Location) Quote
}

// Matcher picks a driver for a ride from the currently available set.
type Matcher interface {
	Match(available []model.Driver) (model.Driver, bool)
}

// Progress advances the simulated completion percentage of an in-flight
// ride.
type Progress interface {
	Next(current int) int
}

// RandQuoter prices rides from the great-circle distance plus bounded
// jitter, the way the demo faked metered fares.
type RandQuoter struct {
	BaseFare float64
	PerKm    float64
	AvgSpeed float64 // km/h used for the ETA estimate
	rng      *Rand
}

func NewRandQuoter(rng *Rand) *RandQuoter {
	return &RandQuoter{BaseFare: 2.5, PerKm: 1.2, AvgSpeed: 35, rng: rng}
}

func (q *RandQuoter) Quote(pickup, dropoff model.Location) Quote {
	dist := haversineKm(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)
	if dist < 0.5 {
		dist = 0.5
	}
	jitter := 0.9 + q.rng.Float64()*0.2
	fare := (q.BaseFare + q.PerKm*dist) * jitter
	eta := int(math.Ceil(dist/q.AvgSpeed*60)) + q.rng.Intn(5)
	if eta < 1 {
		eta = 1
	}
	return Quote{
		Fare:       math.Round(fare*100) / 100,
		DistanceKm: math.Round(dist*100) / 100,
		ETAMinutes: eta,
	}
}

// RandMatcher assigns a uniformly random available driver.
type RandMatcher struct{ rng *Rand }

func NewRandMatcher(rng *Rand) *RandMatcher { return &RandMatcher{rng: rng} }

func (m *RandMatcher) Match(available []model.Driver) (model.Driver, bool) {
	if len(available) == 0 {
		return model.Driver{}, false
	}
	return available[m.rng.Intn(len(available))], true
}

// RandProgress advances a ride 5–20 points per tick, clamped at 100.
type RandProgress struct{ rng *Rand }

func NewRandProgress(rng *Rand) *RandProgress { return &RandProgress{rng: rng} }

func (p *RandProgress) Next(current int) int {
	next := current + 5 + p.rng.Intn(16)
	if next > 100 {
		next = 100
	}
	return next
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
