package types

import "time"

const (
	// AccessLevelDefault is assigned to new accounts when no level is
	// requested at registration.
	AccessLevelDefault = "Level 1"

	// AccessLevelCouncil is the distinguished administrative tier; only
	// accounts holding it may list other personnel.
	AccessLevelCouncil = "05 Council"
)

// User represents one registered account.
type User struct {
	// ID is the opaque unique identifier assigned at creation.
	ID string `json:"id" db:"id"`

	// Username is the unique, case-sensitive login name. Must be at
	// least three characters.
	Username string `json:"username" db:"username"`

	// AccessLevel is the clearance tier governing authorization. Always
	// present; defaults to AccessLevelDefault.
	AccessLevel string `json:"accessLevel" db:"access_level"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// Never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is set once at creation and immutable thereafter.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PublicUser is the outward projection of a user. It never carries the
// password hash.
type PublicUser struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	AccessLevel string    `json:"accessLevel"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Public returns the outward projection of u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		AccessLevel: u.AccessLevel,
		CreatedAt:   u.CreatedAt,
	}
}
