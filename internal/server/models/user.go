// Package models defines the persistent entities of the board backend.
package models

import "time"

// Known avatar styles. A freshly created user starts with the gravatar
// style; the manual style means an operator-uploaded image stored in the
// avatar object store.
const (
	AvatarStyleGravatar = "gravatar"
	AvatarStyleManual   = "manual"
)

// User is an account record. Email is nil when the user has not provided an
// address; an empty submitted value is normalized to nil before assignment.
// LastLoginTime is nil until the first successful login.
type User struct {
	ID            string
	Name          string
	PasswordSalt  string
	PasswordHash  string
	Email         *string
	AccessRank    string
	CreationTime  time.Time
	LastLoginTime *time.Time
	AvatarStyle   string
}
