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

type UserRepo struct{ Store *store.Store }

func NewUserRepo(s *store.Store) *UserRepo { return &UserRepo{Store: s} }

// load reads the whole collection. A failed read is logged and served as
// empty; callers cannot distinguish "empty" from "failed", which is the
// documented degradation of the storage layer.
func (r *UserRepo) load(ctx context.Context) []model.User {
	var users []model.User
	if err := r.Store.ReadJSON(ctx, store.KeyUsers, &users); err != nil {
		log.Printf("users: read failed, serving empty collection: %v", err)
		return nil
	}
	return users
}

func (r *UserRepo) save(ctx context.Context, users []model.User) error {
	return r.Store.WriteJSON(ctx, store.KeyUsers, users)
}

// All returns every user record.
func (r *UserRepo) All(ctx context.Context) []model.User {
	r.Store.Lock()
	defer r.Store.Unlock()
	return r.load(ctx)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (model.User, error) {
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, u := range r.load(ctx) {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (model.User, error) {
	email = normalizeEmail(email)
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, u := range r.load(ctx) {
		if normalizeEmail(u.Email) == email {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (r *UserRepo) ByPhone(ctx context.Context, phone string) (model.User, error) {
	phone = strings.TrimSpace(phone)
	r.Store.Lock()
	defer r.Store.Unlock()
	for _, u := range r.load(ctx) {
		if u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

// Create appends a new user after a uniqueness scan over email and phone.
// ID and timestamps are assigned here; createdAt equals updatedAt on a
// fresh record.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	u.Email = normalizeEmail(u.Email)
	u.Phone = strings.TrimSpace(u.Phone)

	r.Store.Lock()
	defer r.Store.Unlock()

	users := r.load(ctx)
	for _, existing := range users {
		if normalizeEmail(existing.Email) == u.Email {
			return model.User{}, ErrEmailExists
		}
		if existing.Phone == u.Phone {
			return model.User{}, ErrPhoneExists
		}
	}

	now := time.Now().UTC()
	u.ID = utils.GenerateID()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	users = append(users, u)
	if err := r.save(ctx, users); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Update shallow-merges the patch into the record and bumps updatedAt.
func (r *UserRepo) Update(ctx context.Context, id string, p model.UserPatch) (model.User, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	users := r.load(ctx)
	for i := range users {
		if users[i].ID != id {
			continue
		}
		applyUserPatch(&users[i], p)
		users[i].UpdatedAt = bumpTime(users[i].UpdatedAt)
		if err := r.save(ctx, users); err != nil {
			return model.User{}, err
		}
		return users[i], nil
	}
	return model.User{}, ErrNotFound
}

// Delete splices the record out of the collection and reports whether
// anything was removed.
func (r *UserRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.Store.Lock()
	defer r.Store.Unlock()

	users := r.load(ctx)
	for i := range users {
		if users[i].ID == id {
			users = append(users[:i], users[i+1:]...)
			return true, r.save(ctx, users)
		}
	}
	return false, nil
}

func applyUserPatch(u *model.User, p model.UserPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = normalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.OriginalPassword != nil {
		u.OriginalPassword = *p.OriginalPassword
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.LastLoginAt != nil {
		u.LastLoginAt = p.LastLoginAt
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
