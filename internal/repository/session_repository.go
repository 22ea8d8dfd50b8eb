package repository

import (
	"context"
	"log"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

// SessionTTL is the fixed lifetime of a session from creation.
const SessionTTL = 24 * time.Hour

type SessionRepo struct{ Store *store.Store }

func NewSessionRepo(s *store.Store) *SessionRepo { return &SessionRepo{Store: s} }

func (r *SessionRepo) load(ctx context.Context) []model.Session {
	var sessions []model.Session
	if err := r.Store.ReadJSON(ctx, store.KeySessions, &sessions); err != nil {
		log.Printf("sessions: read failed, serving empty collection: %v", err)
		return nil
	}
	return sessions
}

func (r *SessionRepo) save(ctx context.Context, sessions []model.Session) error {
	return r.Store.WriteJSON(ctx, store.KeySessions, sessions)
}

func (r *SessionRepo) All(ctx context.Context) []model.Session {
	r.Store.Lock()
	defer r.Store.Unlock()
	return r.load(ctx)
}

// Create always succeeds: there is no duplicate-session prevention, each
// login mints a fresh token with a fixed 24-hour expiry.
func (r *SessionRepo) Create(ctx context.Context, userID, userAgent, ip string) (model.Session, error) {
	now := time.Now().UTC()
	s := model.Session{
		ID:        utils.GenerateID(),
		UserID:    userID,
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
		return model.Session{}, err
	}
	return s, nil
}

// ActiveByToken returns the session for token only while it is valid:
// isActive and not yet expired. Expired-but-active records ("soft
// zombies") are treated as not found.
func (r *SessionRepo) ActiveByToken(ctx context.Context, token string) (model.Session, error) {
	now := time.Now().UTC()
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, s := range r.load(ctx) {
		if s.Token == token && s.Valid(now) {
			return s, nil
		}
	}
	return model.Session{}, ErrNotFound
}

// Invalidate flips isActive off for the single session holding token.
func (r *SessionRepo) Invalidate(ctx context.Context, token string) (bool, error) {
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

// InvalidateAllForUser flips isActive off for every session owned by
// userID. Used at logout-everywhere.
func (r *SessionRepo) InvalidateAllForUser(ctx context.Context, userID string) (int, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	sessions := r.load(ctx)
	n := 0
	for i := range sessions {
		if sessions[i].UserID == userID && sessions[i].IsActive {
			sessions[i].IsActive = false
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, r.save(ctx, sessions)
}

// Prune drops sessions that are inactive or past expiry, rewriting the
// collection. Running it twice without intervening mutation is a no-op
// the second time.
func (r *SessionRepo) Prune(ctx context.Context, now time.Time) (int, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	sessions := r.load(ctx)
	kept := make([]model.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Valid(now) {
			kept = append(kept, s)
		}
	}
	removed := len(sessions) - len(kept)
	return removed, r.save(ctx, kept)
}
