package repository

import (
	"context"
	"log"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

// ResetTTL is the lifetime of a password-reset token.
const ResetTTL = time.Hour

type PasswordResetRepo struct{ Store *store.Store }

func NewPasswordResetRepo(s *store.Store) *PasswordResetRepo {
	return &PasswordResetRepo{Store: s}
}

func (r *PasswordResetRepo) load(ctx context.Context) []model.PasswordReset {
	var resets []model.PasswordReset
	if err := r.Store.ReadJSON(ctx, store.KeyPasswordResets, &resets); err != nil {
		log.Printf("password_resets: read failed, serving empty collection: %v", err)
		return nil
	}
	return resets
}

func (r *PasswordResetRepo) save(ctx context.Context, resets []model.PasswordReset) error {
	return r.Store.WriteJSON(ctx, store.KeyPasswordResets, resets)
}

// Create issues a fresh one-hour reset token for userID.
func (r *PasswordResetRepo) Create(ctx context.Context, userID string) (model.PasswordReset, error) {
	now := time.Now().UTC()
	reset := model.PasswordReset{
		ID:        utils.GenerateID(),
		UserID:    userID,
		Token:     utils.GenerateToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(ResetTTL),
	}

	r.Store.Lock()
	defer r.Store.Unlock()
	resets := append(r.load(ctx), reset)
	if err := r.save(ctx, resets); err != nil {
		return model.PasswordReset{}, err
	}
	return reset, nil
}

// UsableByToken returns the reset for token only while it is unexpired and
// unused. Anything else is a uniform not-found.
func (r *PasswordResetRepo) UsableByToken(ctx context.Context, token string) (model.PasswordReset, error) {
	now := time.Now().UTC()
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, reset := range r.load(ctx) {
		if reset.Token == token && !reset.IsUsed && now.Before(reset.ExpiresAt) {
			return reset, nil
		}
	}
	return model.PasswordReset{}, ErrNotFound
}

// MarkUsed consumes the reset. Single use is a convention checked here,
// not a lock: the lookup and the mark are separate steps.
func (r *PasswordResetRepo) MarkUsed(ctx context.Context, id string) error {
	r.Store.Lock()
	defer r.Store.Unlock()

	resets := r.load(ctx)
	for i := range resets {
		if resets[i].ID == id {
			resets[i].IsUsed = true
			return r.save(ctx, resets)
		}
	}
	return ErrNotFound
}

// Prune drops resets that are used or past expiry.
func (r *PasswordResetRepo) Prune(ctx context.Context, now time.Time) (int, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	resets := r.load(ctx)
	kept := make([]model.PasswordReset, 0, len(resets))
	for _, reset := range resets {
		if !reset.IsUsed && now.Before(reset.ExpiresAt) {
			kept = append(kept, reset)
		}
	}
	removed := len(resets) - len(kept)
	return removed, r.save(ctx, kept)
}
