package model

import (
	"strings"
	"time"
)

// Role is the authorization level of an identity.
type Role int

const (
	// RoleUser is a regular account.
	RoleUser Role = iota
	// RoleAdmin may manage other accounts.
	RoleAdmin
)

// String returns the wire name of the role.
func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

// ParseRole converts a wire name to a Role. Unknown names report false.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "admin":
		return RoleAdmin, true
	default:
		return RoleUser, false
	}
}

// Identity is the canonical account record owned by the identity store.
type Identity struct {
	ID       int64
	Username string
	Role     Role
}

// RegisterRequest is a registration as received from a client. Role is
// the raw requested role name.
type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Address   string
	Phone     string
	Role      string
}

// Credential holds the secret material and personal data of an identity.
// IdentityID references Identity.ID without a storage-level foreign key.
type Credential struct {
	ID           int64
	IdentityID   int64
	FirstName    string
	LastName     string
	Address      string
	Phone        string
	PasswordHash string
	Salt         string
	LastLogin    *time.Time
	IsActive     bool
}

// Profile is the joined, caller-facing view of an active account.
type Profile struct {
	ID        int64
	Username  string
	Role      Role
	FirstName string
	LastName  string
	Address   string
	Phone     string
}

// ProfileUpdate is a sparse set of profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Address   *string
	Phone     *string
}

// profileKeys maps accepted wire keys to their setters. The legacy names
// "adresse" and "num_phone" are kept for older clients.
var profileKeys = map[string]func(*ProfileUpdate, string){
	"first_name": func(u *ProfileUpdate, v string) { u.FirstName = &v },
	"last_name":  func(u *ProfileUpdate, v string) { u.LastName = &v },
	"address":    func(u *ProfileUpdate, v string) { u.Address = &v },
	"adresse":    func(u *ProfileUpdate, v string) { u.Address = &v },
	"phone":      func(u *ProfileUpdate, v string) { u.Phone = &v },
	"num_phone":  func(u *ProfileUpdate, v string) { u.Phone = &v },
}

// NewProfileUpdate builds a ProfileUpdate from an arbitrary field map.
// Keys outside the allow-list are ignored.
func NewProfileUpdate(fields map[string]string) ProfileUpdate {
	var u ProfileUpdate
	for k, v := range fields {
		if set, ok := profileKeys[k]; ok {
			set(&u, v)
		}
	}
	return u
}

// Empty reports whether the update touches no field.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Address == nil && u.Phone == nil
}

// Apply copies the set fields onto c.
func (u ProfileUpdate) Apply(c *Credential) {
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		c.LastName = *u.LastName
	}
	if u.Address != nil {
		c.Address = *u.Address
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
}

// NormalizeUsername returns the case-folded form used for uniqueness and lookup.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
