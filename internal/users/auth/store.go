// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Find operations return the full record including the password hash. Only the
// JSON projection drops it.
type UserRepository interface {

	/*
		Create persists a brand-new account with only its credentials set.

		Parameters:
		  - context: context.Context
		  - email: string (already normalized)
		  - passwordHash: string

		Returns:
		  - *User: Created entity with generated id and timestamps
		  - error: apperr.Conflict when the email is taken, or persistence failures
	*/
	Create(context context.Context, email, passwordHash string) (*User, error)

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindBy returns the account whose identity field equals value.

		Parameters:
		  - context: context.Context
		  - field: IdentityField (username or email)
		  - value: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindBy(context context.Context, field IdentityField, value string) (*User, error)

	/*
		FindByIdentity returns the account matching both the identity field and the id.

		Parameters:
		  - context: context.Context
		  - field: IdentityField
		  - value: string
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound when either half does not match
	*/
	FindByIdentity(context context.Context, field IdentityField, value, id string) (*User, error)

	/*
		Update applies the non-nil fields of update and refreshes updated_at.

		Parameters:
		  - context: context.Context
		  - id: string
		  - update: ProfileUpdate

		Returns:
		  - *User: The persisted record after the write
		  - error: apperr.NotFound when id does not exist, apperr.Conflict on a unique violation
	*/
	Update(context context.Context, id string, update ProfileUpdate) (*User, error)

	/*
		Delete removes the account.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound when id does not exist
	*/
	Delete(context context.Context, id string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for server-side sessions.
type SessionRepository interface {

	/*
		Save stores session under its ID for ttl.

		Parameters:
		  - context: context.Context
		  - session: *Session
		  - ttl: time.Duration

		Returns:
		  - error: Transport failures
	*/
	Save(context context.Context, session *Session, ttl time.Duration) error

	/*
		Find loads the session and slides its expiry forward by ttl.

		Parameters:
		  - context: context.Context
		  - id: string
		  - ttl: time.Duration

		Returns:
		  - *Session: nil when absent, expired or incomplete
		  - error: Transport failures
	*/
	Find(context context.Context, id string, ttl time.Duration) (*Session, error)

	// Delete removes the session. Deleting an absent session is not an error.
	Delete(context context.Context, id string) error
}

// # User Cache

// UserCache holds the outward projection of users keyed by id.
//
// The cache is advisory. A miss never means the user does not exist.
type UserCache interface {
	// Get returns the cached projection, or nil on a miss.
	Get(context context.Context, id string) (*User, error)
	// Put stores the projection of user unless a projection with a later
	// UpdatedAt is already held, so concurrent writers converge on the last
	// store write.
	Put(context context.Context, user *User) error
	// Delete drops the entry for id.
	Delete(context context.Context, id string) error
}
