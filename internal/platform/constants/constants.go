// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package constants provides centralized, immutable values for the entire portal.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Session cookie configuration and persisted token keys.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "sigepsi-portal"
	AppVersion = "0.3.0"
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

	// GatewayRequestTimeout is the deadline for a single outbound call to the
	// records backend, including a possible refresh-and-retry cycle.
	GatewayRequestTimeout = 25 * time.Second

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

	// LoginRateLimit is the number of login attempts allowed per IP per window.
	LoginRateLimit = 10

	// LoginRateWindow is the sliding window for login attempt counting.
	LoginRateWindow = 1 * time.Minute
)

// # Session

const (
	// SessionCookieName identifies the browser session that owns a token set.
	SessionCookieName = "sigepsi_sid"

	// SessionCookiePath scopes the session cookie to the whole portal.
	SessionCookiePath = "/"

	// SessionCookieTTL is the lifetime of the browser session cookie. Token
	// validity is decided by the session layer, never by the cookie.
	SessionCookieTTL = 30 * 24 * time.Hour

	// SessionIdleEviction is how long a browser session's in-memory wiring may
	// sit unused before the hub evicts it. Tokens persist in Redis, so an
	// evicted session is rebuilt transparently on its next request.
	SessionIdleEviction = 1 * time.Hour

	// SessionSweepInterval is how often the hub scans for idle sessions.
	SessionSweepInterval = 10 * time.Minute
)

// # Portal Paths

const (
	// PathLogin is the public login view.
	PathLogin = "/login"

	// PathPsicologo is the psychologist landing view.
	PathPsicologo = "/psicologo"

	// PathAdmin is the administrator landing view.
	PathAdmin = "/admin"

	// PathReportes is the aggregate reports view (observer landing).
	PathReportes = "/reportes"

	// PathPerfil is the own-profile view.
	PathPerfil = "/perfil"
)

// # Persisted Token Keys (Redis Taxonomy)

const (
	// RedisPrefixSession namespaces all token entries of one browser session.
	RedisPrefixSession = "portal:session:"

	// KeyAccessToken is the persisted access token entry.
	KeyAccessToken = "access_token"

	// KeyRefreshToken is the persisted refresh token entry.
	KeyRefreshToken = "refresh_token"

	// KeyTokenType is the persisted token type entry (usually "Bearer").
	KeyTokenType = "token_type"

	// KeyExpiresAt is the persisted absolute expiry, epoch milliseconds as string.
	KeyExpiresAt = "expires_at"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)
