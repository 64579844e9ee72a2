// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire service.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Sessions: Cookie naming and lifetime.
  - Cache: Key namespaces and TTLs.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "userhub"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Avatar uploads are the largest bodies this service accepts.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// StartupTimeout bounds connecting to external dependencies at boot.
	StartupTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Sessions

const (
	// SessionCookieName is the cookie carrying the signed session identifier.
	SessionCookieName = "session"

	// SessionCookiePath scopes the cookie to the whole API.
	SessionCookiePath = "/"

	// SessionIDBytes is the entropy of a freshly minted session identifier.
	SessionIDBytes = 32
)

// # Cache Taxonomy

const (
	// CacheNamespaceUser holds user projections keyed by user id.
	CacheNamespaceUser = "user"

	// CacheNamespaceSession holds server-side session state keyed by session id.
	CacheNamespaceSession = "session"

	// UserCacheTTL is the fixed lifetime of a cached user projection.
	UserCacheTTL = 3600 * time.Second
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # Uploads

const (
	// ImageFormField is the multipart field carrying an avatar upload.
	ImageFormField = "image"

	// ImageFolder is the object key prefix for avatars on the image host.
	ImageFolder = "uploads"

	// DefaultMaxImageBytes caps an avatar upload.
	DefaultMaxImageBytes = 5 << 20
)
