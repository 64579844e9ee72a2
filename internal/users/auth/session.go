// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/ctxkey"
	"github.com/taibuivan/userhub/internal/platform/ctxutil"
	"github.com/taibuivan/userhub/internal/platform/metrics"
	"github.com/taibuivan/userhub/internal/platform/respond"
	"github.com/taibuivan/userhub/internal/platform/sec"
)

// # Context Helpers

// WithSession attaches a claimed session to ctx.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, session)
}

// SessionFrom returns the claimed session in ctx, or nil.
func SessionFrom(ctx context.Context) *Session {
	session, _ := ctx.Value(ctxkey.KeySession).(*Session)
	return session
}

// WithUser attaches the resolved user to ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// UserFrom returns the resolved user in ctx, or nil.
func UserFrom(ctx context.Context) *User {
	user, _ := ctx.Value(ctxkey.KeyUser).(*User)
	return user
}

// # Session Manager

// CookieCodec signs and verifies the opaque session id carried by the cookie.
type CookieCodec interface {
	Sign(sessionID string, timeToLive time.Duration) (string, error)
	Verify(value string) (string, error)
}

// SessionOptions configures cookie and session lifetime.
type SessionOptions struct {
	// TTL is the sliding lifetime of both the cookie and the server-side state.
	TTL time.Duration
	// Secure marks the cookie HTTPS-only. Disabled in development.
	Secure bool
}

// SessionManager binds requests to a user identity.
//
// Per request the session moves through three states:
//
//   - Unauthenticated: no valid cookie, or no server-side state behind it.
//   - Claimed: the session names an identity key, value and user id ([Load]).
//   - Resolved: the claimed user was confirmed via cache or store ([Resolve]).
type SessionManager struct {
	sessions SessionRepository
	users    UserRepository
	cache    UserCache
	codec    CookieCodec
	options  SessionOptions
}

// NewSessionManager constructs a [SessionManager].
func NewSessionManager(sessions SessionRepository, users UserRepository, cache UserCache, codec CookieCodec, options SessionOptions) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		users:    users,
		cache:    cache,
		codec:    codec,
		options:  options,
	}
}

/*
Load is the middleware that moves a request from Unauthenticated to Claimed.

Description: A missing or forged cookie, or a cookie whose server-side state has
expired, leaves the request Unauthenticated. Only session store transport errors
abort the request.
*/
func (manager *SessionManager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		cookie, err := request.Cookie(constants.SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(writer, request)
			return
		}

		sessionID, err := manager.codec.Verify(cookie.Value)
		if err != nil {
			metrics.SessionResolutions.WithLabelValues("invalid_cookie").Inc()
			next.ServeHTTP(writer, request)
			return
		}

		session, err := manager.sessions.Find(request.Context(), sessionID, manager.options.TTL)
		if err != nil {
			respond.Error(writer, request, apperr.Internal(err))
			return
		}
		if session == nil {
			metrics.SessionResolutions.WithLabelValues("expired").Inc()
			next.ServeHTTP(writer, request)
			return
		}

		ctx := WithSession(request.Context(), session)
		ctx = ctxutil.EnrichLogger(ctx, slog.String("user_id", session.UserID))
		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

/*
Resolve performs the Claimed to Resolved transition.

Description: The user cache is consulted first. A hit whose identity value
matches the session is used without touching the store. On a miss, or when the
cached identity differs (for example after a username change made from another
session), the store is queried with both the identity key and the user id; a
match populates the cache. A store miss leaves the request Unauthenticated while
the stale session itself stays in place.

Parameters:
  - context: context.Context (carrying the claimed session)

Returns:
  - *User: The resolved projection
  - error: apperr.Unauthorized when unresolved, or transport errors
*/
func (manager *SessionManager) Resolve(context context.Context) (*User, error) {
	session := SessionFrom(context)
	if !session.Valid() {
		metrics.SessionResolutions.WithLabelValues("anonymous").Inc()
		return nil, apperr.Unauthorized("Unauthorized user")
	}

	cached, err := manager.cache.Get(context, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth_session_resolve_cache_failed: %w", err)
	}
	if cached != nil {
		if session.IdentityKey.Of(cached) == session.IdentityValue {
			metrics.SessionResolutions.WithLabelValues("cache").Inc()
			return cached, nil
		}
		// The identity changed since this session was established. The store
		// decides whether the session still resolves.
		metrics.SessionResolutions.WithLabelValues("cache_mismatch").Inc()
	}

	user, err := manager.users.FindByIdentity(context, session.IdentityKey, session.IdentityValue, session.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			metrics.SessionResolutions.WithLabelValues("stale").Inc()
			return nil, apperr.Unauthorized("Unauthorized user")
		}
		return nil, fmt.Errorf("auth_session_resolve_store_failed: %w", err)
	}

	// A failed warm-up only costs the next request a store lookup.
	if err := manager.cache.Put(context, user); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "session_cache_populate_failed", slog.Any("error", err))
	}

	metrics.SessionResolutions.WithLabelValues("store").Inc()
	ctxutil.GetLogger(context).DebugContext(context, "session_resolved_from_store")
	return user, nil
}

// Require adapts a handler that needs a resolved user. Unresolved requests get 401.
func (manager *SessionManager) Require(handler func(writer http.ResponseWriter, request *http.Request, current *User)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		user, err := manager.Resolve(request.Context())
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		handler(writer, request.WithContext(WithUser(request.Context(), user)), user)
	}
}

/*
Establish creates a fresh session for user and sets the signed cookie.

Description: Any session already claimed by the request is destroyed first so a
login always rotates the session id.

Parameters:
  - writer: http.ResponseWriter
  - request: *http.Request
  - user: *User
  - field: IdentityField (the identity key the login used)

Returns:
  - error: Token generation, signing or storage failures
*/
func (manager *SessionManager) Establish(writer http.ResponseWriter, request *http.Request, user *User, field IdentityField) error {
	context := request.Context()

	if previous := SessionFrom(context); previous != nil {
		if err := manager.sessions.Delete(context, previous.ID); err != nil {
			return fmt.Errorf("auth_session_rotate_failed: %w", err)
		}
	}

	sessionID, err := sec.GenerateSecureToken(constants.SessionIDBytes)
	if err != nil {
		return fmt.Errorf("auth_session_id_failed: %w", err)
	}

	session := &Session{
		ID:            sessionID,
		IdentityKey:   field,
		IdentityValue: field.Of(user),
		UserID:        user.ID,
		CreatedAt:     time.Now().UTC(),
	}

	if err := manager.sessions.Save(context, session, manager.options.TTL); err != nil {
		return fmt.Errorf("auth_session_save_failed: %w", err)
	}

	signed, err := manager.codec.Sign(sessionID, manager.options.TTL)
	if err != nil {
		return fmt.Errorf("auth_session_sign_failed: %w", err)
	}

	http.SetCookie(writer, manager.cookie(signed, int(manager.options.TTL.Seconds())))
	return nil
}

/*
Rebind keeps the claimed identity value in step with a changed profile.

Description: A session established by username would stop resolving once the
username changes. Rebind rewrites the session state in place, keeping its id.

Parameters:
  - context: context.Context (carrying the claimed session)
  - user: *User (as persisted after the change)

Returns:
  - error: Storage failures
*/
func (manager *SessionManager) Rebind(context context.Context, user *User) error {
	session := SessionFrom(context)
	if !session.Valid() || session.UserID != user.ID {
		return nil
	}

	value := session.IdentityKey.Of(user)
	if value == "" || value == session.IdentityValue {
		return nil
	}

	rebound := *session
	rebound.IdentityValue = value
	if err := manager.sessions.Save(context, &rebound, manager.options.TTL); err != nil {
		return fmt.Errorf("auth_session_rebind_failed: %w", err)
	}

	return nil
}

/*
Destroy removes the claimed session state and empties the cookie.

Parameters:
  - writer: http.ResponseWriter
  - request: *http.Request

Returns:
  - *Session: The session that was cleared, nil when there was none
  - error: Storage failures
*/
func (manager *SessionManager) Destroy(writer http.ResponseWriter, request *http.Request) (*Session, error) {
	session := SessionFrom(request.Context())

	// The cookie goes regardless, even a forged or expired one.
	http.SetCookie(writer, manager.cookie("", -1))

	if session == nil {
		return nil, nil
	}

	if err := manager.sessions.Delete(request.Context(), session.ID); err != nil {
		return nil, fmt.Errorf("auth_session_destroy_failed: %w", err)
	}

	return session, nil
}

// cookie builds the session cookie. A negative maxAge expires it immediately.
func (manager *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     constants.SessionCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   manager.options.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
