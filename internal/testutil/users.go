// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package testutil provides in-memory collaborators for package tests.

The fakes honor the same contracts as the real adapters (NOT_FOUND, CONFLICT on
unique email and username) so that service and HTTP tests exercise the real
error paths without a database or an object store.
*/
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/users/auth"
	"github.com/taibuivan/userhub/pkg/uuid"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// UserStore is an in-memory [auth.UserRepository].
type UserStore struct {
	mu    sync.Mutex
	users map[string]auth.User
	now   time.Time

	// Reads counts every Find* call, so tests can prove a cache hit skipped the store.
	Reads int
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[string]auth.User),
		now:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances the store clock so every write gets a distinct updated_at.
func (store *UserStore) tick() time.Time {
	store.now = store.now.Add(time.Second)
	return store.now
}

func (store *UserStore) Create(_ context.Context, email, passwordHash string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.users {
		if existing.Email == email {
			return nil, apperr.Conflict("Email already exists")
		}
	}

	now := store.tick()
	user := auth.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	store.users[user.ID] = user
	return clone(user), nil
}

func (store *UserStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.Reads++

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return clone(user), nil
}

func (store *UserStore) FindBy(_ context.Context, field auth.IdentityField, value string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.Reads++

	for _, user := range store.users {
		if value != "" && field.Of(&user) == value {
			return clone(user), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *UserStore) FindByIdentity(_ context.Context, field auth.IdentityField, value, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.Reads++

	user, ok := store.users[id]
	if !ok || value == "" || field.Of(&user) != value {
		return nil, apperr.NotFound("User")
	}
	return clone(user), nil
}

func (store *UserStore) Update(_ context.Context, id string, update auth.ProfileUpdate) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}

	if update.Username != nil {
		for otherID, other := range store.users {
			if otherID != id && other.Username != nil && *other.Username == *update.Username {
				return nil, apperr.Conflict("Username already exists")
			}
		}
	}

	merged := update.Merge(user)
	merged.UpdatedAt = store.tick()
	store.users[id] = merged
	return clone(merged), nil
}

func (store *UserStore) Delete(_ context.Context, id string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(store.users, id)
	return nil
}

// Get returns the persisted record without counting a read.
func (store *UserStore) Get(id string) (*auth.User, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return nil, false
	}
	return clone(user), true
}

// Seed inserts user as is, filling the id and timestamps when empty.
func (store *UserStore) Seed(user auth.User) *auth.User {
	store.mu.Lock()
	defer store.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = store.tick()
		user.UpdatedAt = user.CreatedAt
	}
	store.users[user.ID] = user
	return clone(user)
}

// Count returns the number of stored users.
func (store *UserStore) Count() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.users)
}

// FakeEmail returns a random lowercase address.
func FakeEmail() string {
	return auth.NormalizeEmail(gofakeit.Email())
}

// clone copies user including its pointer fields.
func clone(user auth.User) *auth.User {
	copied := user
	copied.Name = copyString(user.Name)
	copied.Username = copyString(user.Username)
	copied.Gender = copyString(user.Gender)
	copied.Image = copyString(user.Image)
	copied.Bio = copyString(user.Bio)
	return &copied
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
