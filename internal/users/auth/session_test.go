// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/sec"
	"github.com/taibuivan/userhub/internal/testutil"
	"github.com/taibuivan/userhub/internal/users/auth"
	"github.com/taibuivan/userhub/pkg/pointer"
)

type sessionFixture struct {
	manager  *auth.SessionManager
	sessions *auth.RedisSessionRepository
	cache    *auth.RedisUserCache
	store    *testutil.UserStore
	signer   *sec.CookieSigner
	redis    *miniredis.Miniredis
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	store, server := newRedisCache(t)

	fixture := &sessionFixture{
		sessions: auth.NewSessionRepository(store),
		cache:    auth.NewUserCache(store),
		store:    testutil.NewUserStore(),
		signer:   sec.NewCookieSigner("0123456789abcdef0123456789abcdef", "userhub"),
		redis:    server,
	}
	fixture.manager = auth.NewSessionManager(fixture.sessions, fixture.store, fixture.cache, fixture.signer,
		auth.SessionOptions{TTL: time.Hour})
	return fixture
}

// claimed returns a context carrying a session for user.
func claimed(user *auth.User, field auth.IdentityField) context.Context {
	return auth.WithSession(context.Background(), &auth.Session{
		ID:            "sid",
		IdentityKey:   field,
		IdentityValue: field.Of(user),
		UserID:        user.ID,
	})
}

/*
TestResolve_Unauthenticated rejects a request without a claimed session.
*/
func TestResolve_Unauthenticated(t *testing.T) {
	fixture := newSessionFixture(t)

	_, err := fixture.manager.Resolve(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

/*
TestResolve_CacheFirstWithStoreFallback verifies miss, populate, then hit without a store read.
*/
func TestResolve_CacheFirstWithStoreFallback(t *testing.T) {
	fixture := newSessionFixture(t)
	user := fixture.store.Seed(auth.User{Email: "a@x.com", Username: pointer.To("aiko"), PasswordHash: "hash"})
	ctx := claimed(user, auth.IdentityUsername)

	resolved, err := fixture.manager.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, 1, fixture.store.Reads)
	assert.True(t, fixture.redis.Exists("user:"+user.ID))

	again, err := fixture.manager.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixture.store.Reads, "cache hit must not touch the store")
	assert.Equal(t, user.ID, again.ID)
	assert.Empty(t, again.PasswordHash)
}

/*
TestResolve_StaleSession stays unauthenticated when the store rejects the claim.
*/
func TestResolve_StaleSession(t *testing.T) {
	fixture := newSessionFixture(t)
	user := fixture.store.Seed(auth.User{Email: "a@x.com"})

	tampered := auth.WithSession(context.Background(), &auth.Session{
		ID:            "sid",
		IdentityKey:   auth.IdentityEmail,
		IdentityValue: "someone-else@x.com",
		UserID:        user.ID,
	})

	_, err := fixture.manager.Resolve(tampered)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	assert.False(t, fixture.redis.Exists("user:"+user.ID))
}

/*
TestResolve_CachedIdentityMustMatch sends a session claiming an outdated username
to the store instead of trusting the cached projection.
*/
func TestResolve_CachedIdentityMustMatch(t *testing.T) {
	fixture := newSessionFixture(t)
	ctx := context.Background()
	user := fixture.store.Seed(auth.User{Email: "a@x.com", Username: pointer.To("aiko")})
	otherDevice := claimed(user, auth.IdentityUsername)

	renamed, err := fixture.store.Update(ctx, user.ID, auth.ProfileUpdate{Username: pointer.To("aiko-2")})
	require.NoError(t, err)
	require.NoError(t, auth.WriteThrough(ctx, fixture.cache, renamed))
	reads := fixture.store.Reads

	_, err = fixture.manager.Resolve(otherDevice)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	assert.Equal(t, reads+1, fixture.store.Reads, "a mismatching cache entry falls through to the store")

	current, err := fixture.manager.Resolve(claimed(renamed, auth.IdentityUsername))
	require.NoError(t, err)
	assert.Equal(t, "aiko-2", pointer.Val(current.Username))
	assert.Equal(t, reads+1, fixture.store.Reads, "a matching cache entry is used directly")
}

/*
TestLoadAndRequire drives the middleware with valid, forged and missing cookies.
*/
func TestLoadAndRequire(t *testing.T) {
	fixture := newSessionFixture(t)
	user := fixture.store.Seed(auth.User{Email: "a@x.com"})

	require.NoError(t, fixture.sessions.Save(context.Background(), &auth.Session{
		ID: "sid", IdentityKey: auth.IdentityEmail, IdentityValue: "a@x.com", UserID: user.ID,
	}, time.Hour))
	signed, err := fixture.signer.Sign("sid", time.Hour)
	require.NoError(t, err)

	var seen *auth.User
	handler := fixture.manager.Load(fixture.manager.Require(func(writer http.ResponseWriter, request *http.Request, current *auth.User) {
		seen = current
		assert.Same(t, current, auth.UserFrom(request.Context()))
		writer.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		cookie string
		status int
	}{
		{name: "valid", cookie: signed, status: http.StatusNoContent},
		{name: "forged", cookie: signed + "x", status: http.StatusUnauthorized},
		{name: "missing", cookie: "", status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: tc.cookie})
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tc.status, recorder.Code)
			if tc.status == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, user.ID, seen.ID)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}

/*
TestEstablishAndDestroy verifies id rotation and cookie attributes.
*/
func TestEstablishAndDestroy(t *testing.T) {
	fixture := newSessionFixture(t)
	user := fixture.store.Seed(auth.User{Email: "a@x.com", Username: pointer.To("aiko")})

	require.NoError(t, fixture.sessions.Save(context.Background(), &auth.Session{
		ID: "old", IdentityKey: auth.IdentityEmail, IdentityValue: "a@x.com", UserID: user.ID,
	}, time.Hour))
	previous, err := fixture.sessions.Find(context.Background(), "old", time.Hour)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, "/login", nil).WithContext(auth.WithSession(context.Background(), previous))
	recorder := httptest.NewRecorder()
	require.NoError(t, fixture.manager.Establish(recorder, request, user, auth.IdentityUsername))

	assert.False(t, fixture.redis.Exists("session:old"), "login must rotate the session id")

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	sessionID, err := fixture.signer.Verify(cookies[0].Value)
	require.NoError(t, err)
	established, err := fixture.sessions.Find(context.Background(), sessionID, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, established)
	assert.Equal(t, auth.IdentityUsername, established.IdentityKey)
	assert.Equal(t, "aiko", established.IdentityValue)

	// Destroy the new session.
	request = httptest.NewRequest(http.MethodGet, "/logout", nil).WithContext(auth.WithSession(context.Background(), established))
	recorder = httptest.NewRecorder()
	cleared, err := fixture.manager.Destroy(recorder, request)
	require.NoError(t, err)
	require.NotNil(t, cleared)
	assert.False(t, fixture.redis.Exists("session:"+sessionID))

	cookies = recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)

	// Nothing left to clear.
	cleared, err = fixture.manager.Destroy(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/logout", nil))
	require.NoError(t, err)
	assert.Nil(t, cleared)
}

/*
TestRebind follows a username change of a username-based session.
*/
func TestRebind(t *testing.T) {
	fixture := newSessionFixture(t)
	user := fixture.store.Seed(auth.User{Email: "a@x.com", Username: pointer.To("aiko")})

	session := &auth.Session{ID: "sid", IdentityKey: auth.IdentityUsername, IdentityValue: "aiko", UserID: user.ID}
	require.NoError(t, fixture.sessions.Save(context.Background(), session, time.Hour))

	renamed := *user
	renamed.Username = pointer.To("aiko-2")
	require.NoError(t, fixture.manager.Rebind(auth.WithSession(context.Background(), session), &renamed))

	found, err := fixture.sessions.Find(context.Background(), "sid", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "aiko-2", found.IdentityValue)
}
