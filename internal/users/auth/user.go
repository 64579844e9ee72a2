// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session), the storage contracts they
are persisted through, and the request pipeline that binds an inbound request to
a user: the signed session cookie is verified, the server-side session is
loaded, and the claimed identity is resolved through the user cache with a
fallback to the primary store.

# Architecture

  - Entities: [User], [Session], [ProfileUpdate].
  - Repositories: Postgres for users, Redis for sessions and the user cache.
  - Pipeline: [SessionManager] (Load, Resolve, Require).
  - Use cases: [Service] (register, login, logout, change password).
*/
package auth

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taibuivan/userhub/pkg/pointer"
)

// # Domain Entities

// Gender enumerates the accepted values of [User.Gender].
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// User represents a registered account.
//
// Optional profile columns are pointers so that "never set" stays distinct from
// an empty string in both the store and the JSON projection.
type User struct {
	ID           string    `json:"id"`
	Name         *string   `json:"name"`
	Email        string    `json:"email"`
	Username     *string   `json:"username"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Gender       *string   `json:"gender"`
	Image        *string   `json:"image"`
	Bio          *string   `json:"bio"`
	Setup        bool      `json:"setup"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Complete reports whether every identity-completing profile field is filled.
func (user *User) Complete() bool {
	for _, field := range []*string{user.Name, user.Username, user.Gender, user.Bio} {
		if strings.TrimSpace(pointer.Val(field)) == "" {
			return false
		}
	}
	return true
}

// HasImage reports whether an avatar reference is stored.
func (user *User) HasImage() bool {
	return pointer.Val(user.Image) != ""
}

// ProfileUpdate is a partial update of a [User]. Nil fields are left untouched.
type ProfileUpdate struct {
	Name         *string
	Username     *string
	Gender       *string
	Bio          *string
	Image        *string
	ClearImage   bool
	PasswordHash *string
	Setup        *bool
}

// Merge returns a copy of user with the non-nil fields of update applied.
// Timestamps are left to the store.
func (update ProfileUpdate) Merge(user User) User {
	if update.Name != nil {
		user.Name = update.Name
	}
	if update.Username != nil {
		user.Username = update.Username
	}
	if update.Gender != nil {
		user.Gender = update.Gender
	}
	if update.Bio != nil {
		user.Bio = update.Bio
	}
	if update.Image != nil {
		user.Image = update.Image
	}
	if update.ClearImage {
		user.Image = nil
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.Setup != nil {
		user.Setup = *update.Setup
	}
	return user
}

// # Identity

// IdentityField is the login discriminator a session was established with.
type IdentityField string

const (
	IdentityUsername IdentityField = "username"
	IdentityEmail    IdentityField = "email"
)

// Valid reports whether field is one of the supported identity keys.
func (field IdentityField) Valid() bool {
	return field == IdentityUsername || field == IdentityEmail
}

// Of returns the value of this identity key on user.
func (field IdentityField) Of(user *User) string {
	if field == IdentityUsername {
		if user.Username == nil {
			return ""
		}
		return *user.Username
	}
	return user.Email
}

// NormalizeEmail trims and lowercases an address so lookups are case-insensitive.
// No rune is expanded ("ß" stays "ß"). A Caser is stateful, so one is built per call.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

// # Session

// Session is the server-side state behind a session cookie.
//
// It is either fully present (identity key, value and user id all set) or
// absent. The ID is the Redis key suffix and never leaves the server unsigned.
type Session struct {
	ID            string        `json:"-"`
	IdentityKey   IdentityField `json:"identity_key"`
	IdentityValue string        `json:"identity_value"`
	UserID        string        `json:"user_id"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Valid reports whether the session carries a complete identity claim.
func (session *Session) Valid() bool {
	return session != nil &&
		session.IdentityKey.Valid() &&
		session.IdentityValue != "" &&
		session.UserID != ""
}

// # Field Identifiers

// Field names used in validation errors and request payloads.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldOldPassword = "old_password"
	FieldNewPassword = "new_password"
)

// # Constraints

const (
	// MinPasswordLength is the shortest accepted plaintext password.
	MinPasswordLength = 6

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72

	// MaxEmailLength matches the width of the email column.
	MaxEmailLength = 255
)
