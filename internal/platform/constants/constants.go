// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Session lifetime, cookie names and purge scheduling.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "crm-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// SessionTTL is the fixed lifetime of a session, counted from its creation.
	SessionTTL = 30 * 24 * time.Hour

	// SessionTokenLength is the byte length of the random session token (256 bits).
	SessionTokenLength = 32

	// SessionCreateAttempts bounds token regeneration after a (userid, tokenhash) collision.
	SessionCreateAttempts = 3

	// SessionTokenCookieName carries the opaque session token.
	SessionTokenCookieName = "auth-token"

	// SessionUserCookieName carries the owning user id, paired with the token.
	SessionUserCookieName = "auth-user-id"

	// SessionCookiePath scopes both session cookies to the whole site.
	SessionCookiePath = "/"

	// UnknownUserAgent is recorded when a client sends no User-Agent header.
	UnknownUserAgent = "unknown"
)

// # Session Purge

const (
	// DefaultPurgeInterval is how often expired sessions are physically removed.
	DefaultPurgeInterval = 24 * time.Hour

	// PurgeLockTTL bounds how long one replica may hold the purge lock.
	PurgeLockTTL = 10 * time.Minute

	// PurgeTimeout is the deadline for a single purge sweep.
	PurgeTimeout = 5 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaUsers  = "users"
	SchemaSystem = "system"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession = "auth:session:"
	RedisKeyPurgeLock  = RedisPrefixSession + "purge_lock"
)
