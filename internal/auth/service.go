// Package auth composes the repositories into the authentication
// operations: credential checks, session lifecycle, password resets and
// expiry cleanup.
package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/autonow/autonow-backend/internal/model"
	"github.com/autonow/autonow-backend/internal/repository"
	"github.com/autonow/autonow-backend/internal/store"
	"github.com/autonow/autonow-backend/internal/utils"
)

// Password hash modes.
const (
	HashLegacy = "legacy"
	HashBcrypt = "bcrypt"
)

// denyReason distinguishes authentication failures internally. The public
// surface collapses all of them into a nil result so a caller cannot probe
// which half of a credential was wrong; the reason is only logged.
type denyReason string

const (
	denyNotFound      denyReason = "not_found"
	denyInactive      denyReason = "inactive"
	denyBadCredential denyReason = "bad_credential"
)

type Service struct {
	Users          *repository.UserRepo
	Drivers        *repository.DriverRepo
	Sessions       *repository.SessionRepo
	DriverSessions *repository.DriverSessionRepo
	Resets         *repository.PasswordResetRepo

	store      *store.Store
	hashMode   string
	bcryptCost int
}

func NewService(s *store.Store, hashMode string, bcryptCost int) *Service {
	if hashMode != HashBcrypt {
		hashMode = HashLegacy
	}
	return &Service{
		Users:          repository.NewUserRepo(s),
		Drivers:        repository.NewDriverRepo(s),
		Sessions:       repository.NewSessionRepo(s),
		DriverSessions: repository.NewDriverSessionRepo(s),
		Resets:         repository.NewPasswordResetRepo(s),
		store:          s,
		hashMode:       hashMode,
		bcryptCost:     bcryptCost,
	}
}

// hash produces the stored hash and the originalPassword value for a new
// credential. Bcrypt mode never retains the plaintext.
func (s *Service) hash(password string) (hash, original string, err error) {
	if s.hashMode == HashBcrypt {
		h, err := utils.BcryptPassword(password, s.bcryptCost)
		return h, "", err
	}
	return utils.HashPassword(password), password, nil
}

// RegisterUser creates a user account with a hashed credential.
func (s *Service) RegisterUser(ctx context.Context, name, email, phone, password string) (model.User, error) {
	hash, original, err := s.hash(password)
	if err != nil {
		return model.User{}, err
	}
	return s.Users.Create(ctx, model.User{
		Name:             name,
		Email:            email,
		Phone:            phone,
		Password:         hash,
		OriginalPassword: original,
		Role:             model.RoleUser,
		IsActive:         true,
	})
}

// RegisterDriver creates a driver account. New drivers start offline and
// unverified; an admin flips isVerified before they can be matched.
func (s *Service) RegisterDriver(ctx context.Context, name, email, phone, password, vehicle, license string) (model.Driver, error) {
	hash, original, err := s.hash(password)
	if err != nil {
		return model.Driver{}, err
	}
	return s.Drivers.Create(ctx, model.Driver{
		Name:             name,
		Email:            email,
		Phone:            phone,
		Password:         hash,
		OriginalPassword: original,
		VehicleNumber:    vehicle,
		LicenseNumber:    license,
		Status:           model.DriverOffline,
		IsActive:         true,
		Rating:           5.0,
	})
}

// AuthenticateUser checks an email/password pair. On success lastLoginAt
// is bumped and the updated user returned; every failure returns nil.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) *model.User {
	u, err := s.Users.ByEmail(ctx, email)
	return s.finishUserAuth(ctx, u, err, password, "email="+email)
}

// AuthenticateUserByPhone is AuthenticateUser keyed by phone.
func (s *Service) AuthenticateUserByPhone(ctx context.Context, phone, password string) *model.User {
	u, err := s.Users.ByPhone(ctx, phone)
	return s.finishUserAuth(ctx, u, err, password, "phone="+phone)
}

func (s *Service) finishUserAuth(ctx context.Context, u model.User, lookupErr error, password, who string) *model.User {
	if reason := checkCredential(lookupErr, u.IsActive, u.Password, password); reason != "" {
		log.Printf("auth: user login denied [%s reason=%s]", who, reason)
		return nil
	}
	now := time.Now().UTC()
	updated, err := s.Users.Update(ctx, u.ID, model.UserPatch{LastLoginAt: &now})
	if err != nil {
		// The credential already checked out; a failed lastLoginAt bump
		// should not turn a valid login into a denial.
		log.Printf("auth: lastLoginAt update failed [user=%s]: %v", u.ID, err)
		u.LastLoginAt = &now
		return &u
	}
	return &updated
}

// AuthenticateDriver checks a driver email/password pair.
func (s *Service) AuthenticateDriver(ctx context.Context, email, password string) *model.Driver {
	d, err := s.Drivers.ByEmail(ctx, email)
	return s.finishDriverAuth(ctx, d, err, password, "email="+email)
}

// AuthenticateDriverByPhone is AuthenticateDriver keyed by phone.
func (s *Service) AuthenticateDriverByPhone(ctx context.Context, phone, password string) *model.Driver {
	d, err := s.Drivers.ByPhone(ctx, phone)
	return s.finishDriverAuth(ctx, d, err, password, "phone="+phone)
}

func (s *Service) finishDriverAuth(ctx context.Context, d model.Driver, lookupErr error, password, who string) *model.Driver {
	if reason := checkCredential(lookupErr, d.IsActive, d.Password, password); reason != "" {
		log.Printf("auth: driver login denied [%s reason=%s]", who, reason)
		return nil
	}
	now := time.Now().UTC()
	updated, err := s.Drivers.Update(ctx, d.ID, model.DriverPatch{LastLoginAt: &now})
	if err != nil {
		log.Printf("auth: lastLoginAt update failed [driver=%s]: %v", d.ID, err)
		d.LastLoginAt = &now
		return &d
	}
	return &updated
}

func checkCredential(lookupErr error, isActive bool, hash, password string) denyReason {
	switch {
	case errors.Is(lookupErr, repository.ErrNotFound):
		return denyNotFound
	case lookupErr != nil:
		return denyNotFound
	case !isActive:
		return denyInactive
	case !utils.VerifyPassword(password, hash):
		return denyBadCredential
	}
	return ""
}

// CreateSession mints a session for the user and refreshes the identity
// mirror key the UI reads at startup.
func (s *Service) CreateSession(ctx context.Context, u model.User, userAgent, ip string) (model.Session, error) {
	sess, err := s.Sessions.Create(ctx, u.ID, userAgent, ip)
	if err != nil {
		return model.Session{}, err
	}
	key := store.KeyAuthUser
	if u.Role == model.RoleAdmin {
		key = store.KeyAdminUser
	}
	if err := s.store.WriteJSON(ctx, key, u.Public()); err != nil {
		log.Printf("auth: identity mirror write failed [user=%s]: %v", u.ID, err)
	}
	return sess, nil
}

// CreateDriverSession mints a driver session and refreshes auth_driver.
func (s *Service) CreateDriverSession(ctx context.Context, d model.Driver, userAgent, ip string) (model.DriverSession, error) {
	sess, err := s.DriverSessions.Create(ctx, d.ID, userAgent, ip)
	if err != nil {
		return model.DriverSession{}, err
	}
	if err := s.store.WriteJSON(ctx, store.KeyAuthDriver, d.Public()); err != nil {
		log.Printf("auth: identity mirror write failed [driver=%s]: %v", d.ID, err)
	}
	return sess, nil
}

// Logout invalidates the single session holding token and clears the user
// identity mirrors.
func (s *Service) Logout(ctx context.Context, token string) (bool, error) {
	ok, err := s.Sessions.Invalidate(ctx, token)
	if ok {
		s.clearMirror(ctx, store.KeyAuthUser, store.KeyAdminUser)
	}
	return ok, err
}

// LogoutAll invalidates every session owned by userID.
func (s *Service) LogoutAll(ctx context.Context, userID string) (int, error) {
	n, err := s.Sessions.InvalidateAllForUser(ctx, userID)
	if n > 0 {
		s.clearMirror(ctx, store.KeyAuthUser, store.KeyAdminUser)
	}
	return n, err
}

// LogoutDriver invalidates the driver session holding token.
func (s *Service) LogoutDriver(ctx context.Context, token string) (bool, error) {
	ok, err := s.DriverSessions.Invalidate(ctx, token)
	if ok {
		s.clearMirror(ctx, store.KeyAuthDriver)
	}
	return ok, err
}

// LogoutAllDriver invalidates every session owned by driverID.
func (s *Service) LogoutAllDriver(ctx context.Context, driverID string) (int, error) {
	n, err := s.DriverSessions.InvalidateAllForDriver(ctx, driverID)
	if n > 0 {
		s.clearMirror(ctx, store.KeyAuthDriver)
	}
	return n, err
}

func (s *Service) clearMirror(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Remove(ctx, key); err != nil {
			log.Printf("auth: identity mirror clear failed [key=%s]: %v", key, err)
		}
	}
}

// CreatePasswordReset issues a one-hour single-use reset token.
func (s *Service) CreatePasswordReset(ctx context.Context, userID string) (model.PasswordReset, error) {
	if _, err := s.Users.ByID(ctx, userID); err != nil {
		return model.PasswordReset{}, err
	}
	return s.Resets.Create(ctx, userID)
}

// UsePasswordReset validates the token (exists, unexpired, unused), sets
// the new password and consumes the reset. The steps are sequential and
// non-atomic; expired and used tokens surface as ErrNotFound.
func (s *Service) UsePasswordReset(ctx context.Context, token, newPassword string) error {
	reset, err := s.Resets.UsableByToken(ctx, token)
	if err != nil {
		return err
	}
	hash, original, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.Users.Update(ctx, reset.UserID, model.UserPatch{
		Password:         &hash,
		OriginalPassword: &original,
	}); err != nil {
		return err
	}
	return s.Resets.MarkUsed(ctx, reset.ID)
}

// CleanupExpiredData removes expired or inactive sessions, driver
// sessions and password resets. It runs once at startup; long-lived
// processes can also run it on a ticker.
func (s *Service) CleanupExpiredData(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	total := 0
	n, err := s.Sessions.Prune(ctx, now)
	if err != nil {
		return total, err
	}
	total += n
	n, err = s.DriverSessions.Prune(ctx, now)
	if err != nil {
		return total, err
	}
	total += n
	n, err = s.Resets.Prune(ctx, now)
	if err != nil {
		return total, err
	}
	total += n
	if total > 0 {
		log.Printf("auth: cleanup removed %d expired records", total)
	}
	return total, nil
}

// StartCleanupLoop runs CleanupExpiredData on the given interval until ctx
// is cancelled.
func (s *Service) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExpiredData(ctx); err != nil {
				log.Printf("auth: scheduled cleanup failed: %v", err)
			}
		}
	}
}
