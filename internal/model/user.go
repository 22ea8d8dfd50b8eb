package model

import "time"

// Role values stored in the `role` field of users.
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleDriver = "driver"
)

// User represents an account record as persisted under the
// `autonow_db_users` key. The json tags reproduce the field names of the
// previously persisted data exactly; renaming any of them breaks reads of
// existing stores.
//
// Password holds the hashed form. OriginalPassword carries the plaintext
// the account was created with; the admin panel displays it. It is kept
// for compatibility with existing data and left empty when the bcrypt
// hash mode is enabled.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Password         string     `json:"password"`
	OriginalPassword string     `json:"originalPassword"`
	Role             string     `json:"role"`
	IsActive         bool       `json:"isActive"`
	Avatar           string     `json:"avatar,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
}

// UserPatch carries the fields an update may change. Nil pointers are
// left untouched by the shallow merge.
type UserPatch struct {
	Name             *string
	Email            *string
	Phone            *string
	Password         *string
	OriginalPassword *string
	Role             *string
	IsActive         *bool
	Avatar           *string
	LastLoginAt      *time.Time
}

// PublicUser is the password-stripped view returned by handlers and
// written to the identity mirror keys.
type PublicUser struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	Avatar      string     `json:"avatar,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Public returns the user without its password fields.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
