package repository

import (
	"context"
	"log"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

// DriverSessionRepo mirrors SessionRepo over the driver_sessions key.
type DriverSessionRepo struct{ Store *store.Store }

func NewDriverSessionRepo(s *store.Store) *DriverSessionRepo {
	return &DriverSessionRepo{Store: s}
}

func (r *DriverSessionRepo) load(ctx context.Context) []model.DriverSession {
	var sessions []model.DriverSession
	if err := r.Store.ReadJSON(ctx, store.KeyDriverSessions, &sessions); err != nil {
		log.Printf("driver_sessions: read failed, serving empty collection: %v", err)
		return nil
	}
	return sessions
}

func (r *DriverSessionRepo) save(ctx context.Context, sessions []model.DriverSession) error {
	return r.Store.WriteJSON(ctx, store.KeyDriverSessions, sessions)
}

func (r *DriverSessionRepo) All(ctx context.Context) []model.DriverSession {
	r.Store.Lock()
	defer r.Store.Unlock()
	return r.load(ctx)
}

func (r *DriverSessionRepo) Create(ctx context.Context, driverID, userAgent, ip string) (model.DriverSession, error) {
	now := time.Now().UTC()
	s := model.DriverSession{
		ID:        utils.GenerateID(),
		DriverID:  driverID,
		Token:     utils.GenerateToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
		IsActive:  true,
		UserAgent: userAgent,
		IPAddress: ip,
	}

	r.Store.Lock()
	defer r.Store.Unlock()
	sessions := append(r.load(ctx), s)
	if err := r.save(ctx, sessions); err != nil {
		return model.DriverSession{}, err
	}
	return s, nil
}

func (r *DriverSessionRepo) ActiveByToken(ctx context.Context, token string) (model.DriverSession, error) {
	now := time.Now().UTC()
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, s := range r.load(ctx) {
		if s.Token == token && s.Valid(now) {
			return s, nil
		}
	}
	return model.DriverSession{}, ErrNotFound
}

func (r *DriverSessionRepo) Invalidate(ctx context.Context, token string) (bool, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	sessions := r.load(ctx)
	for i := range sessions {
		if sessions[i].Token == token && sessions[i].IsActive {
			sessions[i].IsActive = false
			return true, r.save(ctx, sessions)
		}
	}
	return false, nil
}

func (r *DriverSessionRepo) InvalidateAllForDriver(ctx context.Context, driverID string) (int, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	sessions := r.load(ctx)
	n := 0
	for i := range sessions {
		if sessions[i].DriverID == driverID && sessions[i].IsActive {
			sessions[i].IsActive = false
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, r.save(ctx, sessions)
}

func (r *DriverSessionRepo) Prune(ctx context.Context, now time.Time) (int, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	sessions := r.load(ctx)
	kept := make([]model.DriverSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Valid(now) {
			kept = append(kept, s)
		}
	}
	removed := len(sessions) - len(kept)
	return removed, r.save(ctx, kept)
}
