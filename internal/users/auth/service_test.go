// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/sec"
	"github.com/taibuivan/userhub/internal/testutil"
	"github.com/taibuivan/userhub/internal/users/auth"
	"github.com/taibuivan/userhub/pkg/pointer"
)

func newService(t *testing.T) (*auth.Service, *testutil.UserStore, *auth.RedisUserCache) {
	t.Helper()
	store, _ := newRedisCache(t)
	users := testutil.NewUserStore()
	userCache := auth.NewUserCache(store)
	return auth.NewService(users, userCache, sec.NewHasher(bcrypt.MinCost)), users, userCache
}

/*
TestService_Register hashes the password and rejects a second registration.
*/
func TestService_Register(t *testing.T) {
	ctx := context.Background()
	service, users, _ := newService(t)
	email := testutil.FakeEmail()

	user, err := service.Register(ctx, auth.RegisterInput{Email: email, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, email, user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = service.Register(ctx, auth.RegisterInput{Email: email, Password: "another1"})
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, 1, users.Count())
}

/*
TestService_RegisterNormalizesEmail treats case variants as the same address.
*/
func TestService_RegisterNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	service, users, _ := newService(t)

	user, err := service.Register(ctx, auth.RegisterInput{Email: "  Aiko@Example.COM ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "aiko@example.com", user.Email)

	_, err = service.Register(ctx, auth.RegisterInput{Email: "aiko@example.com", Password: "secret1"})
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, 1, users.Count())
}

/*
TestService_RegisterKeepsDistinctAddresses only lowercases, so addresses that
differ beyond case never collide.
*/
func TestService_RegisterKeepsDistinctAddresses(t *testing.T) {
	ctx := context.Background()
	service, users, _ := newService(t)

	sharp, err := service.Register(ctx, auth.RegisterInput{Email: " Straße@X.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "straße@x.com", sharp.Email)

	_, err = service.Register(ctx, auth.RegisterInput{Email: "strasse@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, 2, users.Count())
}

/*
TestService_OversizedPasswordIsValidationError rejects input bcrypt cannot hash.
*/
func TestService_OversizedPasswordIsValidationError(t *testing.T) {
	ctx := context.Background()
	service, users, _ := newService(t)
	oversized := strings.Repeat("p", auth.MaxPasswordBytes+1)

	_, err := service.Register(ctx, auth.RegisterInput{Email: "a@x.com", Password: oversized})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, 0, users.Count())

	registered, err := service.Register(ctx, auth.RegisterInput{Email: "a@x.com", Password: strings.Repeat("p", auth.MaxPasswordBytes)})
	require.NoError(t, err)

	_, err = service.ChangePassword(ctx, registered, auth.ChangePasswordInput{OldPassword: "secret1", NewPassword: oversized})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestService_Login covers unknown identity, wrong password and the username preference.
*/
func TestService_Login(t *testing.T) {
	ctx := context.Background()
	service, users, userCache := newService(t)

	registered, err := service.Register(ctx, auth.RegisterInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = users.Update(ctx, registered.ID, auth.ProfileUpdate{Username: pointer.To("aiko")})
	require.NoError(t, err)

	_, _, err = service.Login(ctx, auth.LoginInput{Email: "nobody@x.com", Password: "secret1"})
	assert.True(t, apperr.IsNotFound(err))

	_, _, err = service.Login(ctx, auth.LoginInput{Username: "aiko", Password: "wrong"})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	// Username wins even when the email is wrong.
	user, field, err := service.Login(ctx, auth.LoginInput{Username: "aiko", Email: "nobody@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, auth.IdentityUsername, field)
	assert.Equal(t, registered.ID, user.ID)

	cached, err := userCache.Get(ctx, registered.ID)
	require.NoError(t, err)
	require.NotNil(t, cached, "login warms the cache")
}

/*
TestService_ChangePassword checks the same-password rule and the authoritative hash.
*/
func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	service, users, userCache := newService(t)

	registered, err := service.Register(ctx, auth.RegisterInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	// The resolved projection carries no hash; the service must not rely on it.
	current := *registered
	current.PasswordHash = ""

	_, err = service.ChangePassword(ctx, &current, auth.ChangePasswordInput{OldPassword: "secret1", NewPassword: "secret1"})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = service.ChangePassword(ctx, &current, auth.ChangePasswordInput{OldPassword: "wrong1", NewPassword: "secret2"})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	updated, err := service.ChangePassword(ctx, &current, auth.ChangePasswordInput{OldPassword: "secret1", NewPassword: "secret2"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, updated.ID)

	stored, _ := users.Get(registered.ID)
	assert.True(t, sec.NewHasher(bcrypt.MinCost).Verify("secret2", stored.PasswordHash))

	cached, err := userCache.Get(ctx, registered.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.True(t, stored.UpdatedAt.Equal(cached.UpdatedAt))
}

/*
TestService_Logout drops the cached projection.
*/
func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	service, _, userCache := newService(t)

	require.NoError(t, userCache.Put(ctx, &auth.User{ID: "u1", Email: "a@x.com"}))
	require.NoError(t, service.Logout(ctx, &auth.Session{ID: "sid", UserID: "u1"}))

	cached, err := userCache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

/*
TestUser_Complete requires every identity-completing field.
*/
func TestUser_Complete(t *testing.T) {
	user := auth.User{Name: pointer.To("Aiko"), Username: pointer.To("aiko"), Gender: pointer.To(auth.GenderFemale)}
	assert.False(t, user.Complete())

	user.Bio = pointer.To(" ")
	assert.False(t, user.Complete())

	user.Bio = pointer.To("hello")
	assert.True(t, user.Complete())
}
