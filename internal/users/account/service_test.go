// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/cache"
	"github.com/taibuivan/userhub/internal/platform/media"
	"github.com/taibuivan/userhub/internal/testutil"
	"github.com/taibuivan/userhub/internal/users/account"
	"github.com/taibuivan/userhub/internal/users/auth"
	"github.com/taibuivan/userhub/pkg/pointer"
)

type fixture struct {
	service *account.Service
	users   *testutil.UserStore
	cache   *auth.RedisUserCache
	images  *testutil.ImageHost
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		users:  testutil.NewUserStore(),
		cache:  auth.NewUserCache(cache.New(client, slog.New(slog.NewJSONHandler(io.Discard, nil)))),
		images: testutil.NewImageHost(),
		redis:  server,
	}
	f.service = account.NewService(f.users, f.cache, f.images)
	return f
}

// assertCacheMatchesStore checks read-after-write convergence for id.
func (f *fixture) assertCacheMatchesStore(t *testing.T, id string) {
	t.Helper()
	stored, ok := f.users.Get(id)
	require.True(t, ok)
	cached, err := f.cache.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, cached)

	want, err := json.Marshal(stored)
	require.NoError(t, err)
	got, err := json.Marshal(cached)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func pngUpload() media.Upload {
	return media.Upload{Body: bytes.NewReader([]byte("png")), Size: 3, ContentType: "image/png", Extension: "png"}
}

/*
TestUpdateProfile_CompletesSetup merges fields, flips setup and writes through.
*/
func TestUpdateProfile_CompletesSetup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.users.Seed(auth.User{Email: "a@x.com"})

	updated, err := f.service.UpdateProfile(ctx, user, account.UpdateProfileInput{
		Name:     pointer.To("Aiko"),
		Username: pointer.To("aiko"),
		Gender:   pointer.To(auth.GenderFemale),
	})
	require.NoError(t, err)
	assert.False(t, updated.Setup)
	f.assertCacheMatchesStore(t, user.ID)

	updated, err = f.service.UpdateProfile(ctx, updated, account.UpdateProfileInput{Bio: pointer.To("Reads a lot")})
	require.NoError(t, err)
	assert.True(t, updated.Setup)
	assert.Equal(t, "aiko", pointer.Val(updated.Username))
	f.assertCacheMatchesStore(t, user.ID)
}

/*
TestUpdateProfile_UsernameTaken rejects another user's username without mutating.
*/
func TestUpdateProfile_UsernameTaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.users.Seed(auth.User{Email: "owner@x.com", Username: pointer.To("taken")})
	user := f.users.Seed(auth.User{Email: "a@x.com", Name: pointer.To("Before")})

	_, err := f.service.UpdateProfile(ctx, user, account.UpdateProfileInput{
		Name:     pointer.To("After"),
		Username: pointer.To("taken"),
	})
	assert.True(t, apperr.IsConflict(err))

	stored, _ := f.users.Get(user.ID)
	assert.Equal(t, "Before", pointer.Val(stored.Name))
	assert.Nil(t, stored.Username)
	assert.Equal(t, user.UpdatedAt, stored.UpdatedAt)

	// Keeping one's own username is not a conflict.
	self := f.users.Seed(auth.User{Email: "b@x.com", Username: pointer.To("mine")})
	_, err = f.service.UpdateProfile(ctx, self, account.UpdateProfileInput{Username: pointer.To("mine")})
	assert.NoError(t, err)
}

/*
TestUpdateImage_OldDeleteFailureIsTolerated persists the new URL even if the old object stays.
*/
func TestUpdateImage_OldDeleteFailureIsTolerated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	oldKey := "uploads/0190a3c4-1111-7000-8000-000000000001.png"
	user := f.users.Seed(auth.User{Email: "a@x.com", Image: pointer.To(testutil.URL(oldKey))})

	f.images.FailDelete = true
	updated, err := f.service.UpdateImage(ctx, user, pngUpload())
	require.NoError(t, err)

	require.NotNil(t, updated.Image)
	assert.NotEqual(t, testutil.URL(oldKey), *updated.Image)
	newKey, ok := media.KeyFromURL(*updated.Image)
	require.True(t, ok)
	assert.True(t, f.images.Has(newKey))
	f.assertCacheMatchesStore(t, user.ID)
}

/*
TestUpdateImage_DeletesPreviousObject removes the replaced avatar from the host.
*/
func TestUpdateImage_DeletesPreviousObject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	oldKey := "uploads/0190a3c4-1111-7000-8000-000000000001.png"
	user := f.users.Seed(auth.User{Email: "a@x.com", Image: pointer.To(testutil.URL(oldKey))})

	_, err := f.service.UpdateImage(ctx, user, pngUpload())
	require.NoError(t, err)
	assert.Equal(t, []string{oldKey}, f.images.Deleted)
}

/*
TestUpdateImage_UploadFailure leaves the profile untouched.
*/
func TestUpdateImage_UploadFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.users.Seed(auth.User{Email: "a@x.com"})

	f.images.FailUpload = true
	_, err := f.service.UpdateImage(ctx, user, pngUpload())
	assert.True(t, apperr.HasCode(err, apperr.CodeInternal))

	stored, _ := f.users.Get(user.ID)
	assert.Nil(t, stored.Image)
}

/*
TestDeleteImage covers the missing image, a refused host delete and success.
*/
func TestDeleteImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bare := f.users.Seed(auth.User{Email: "bare@x.com"})
	_, err := f.service.DeleteImage(ctx, bare)
	assert.True(t, apperr.IsNotFound(err))

	key := "uploads/0190a3c4-2222-7000-8000-000000000002.png"
	user := f.users.Seed(auth.User{Email: "a@x.com", Image: pointer.To(testutil.URL(key))})

	f.images.FailDelete = true
	_, err = f.service.DeleteImage(ctx, user)
	assert.True(t, apperr.HasCode(err, apperr.CodeInternal))
	stored, _ := f.users.Get(user.ID)
	assert.Equal(t, testutil.URL(key), pointer.Val(stored.Image), "reference is kept when the host refuses")

	f.images.FailDelete = false
	updated, err := f.service.DeleteImage(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, updated.Image)
	assert.Equal(t, []string{key}, f.images.Deleted)
	f.assertCacheMatchesStore(t, user.ID)
}

/*
TestDeleteAccount removes the row and the cached projection.
*/
func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.users.Seed(auth.User{Email: "a@x.com"})
	require.NoError(t, f.cache.Put(ctx, user))

	require.NoError(t, f.service.DeleteAccount(ctx, user))

	_, ok := f.users.Get(user.ID)
	assert.False(t, ok)
	assert.False(t, f.redis.Exists("user:"+user.ID))

	assert.True(t, apperr.IsNotFound(f.service.DeleteAccount(ctx, user)))
}
