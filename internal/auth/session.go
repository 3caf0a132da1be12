// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sigepsi/portal/internal/platform/apperr"
	"github.com/sigepsi/portal/internal/platform/constants"
)

// ErrMalformedTokenResponse reports a login/refresh response with no
// extractable access token, or unparseable text purporting to be JSON.
var ErrMalformedTokenResponse = &apperr.AppError{
	Code:       "MALFORMED_TOKEN_RESPONSE",
	Message:    "The authentication service returned an unreadable response",
	HTTPStatus: http.StatusBadGateway,
}

// # Session State

// Session holds one browser session's credential set and identity snapshot.
//
// # Invariant
//
// The session is authenticated iff AccessToken is non-empty, ExpiresAt is
// non-zero, and the current time is strictly before ExpiresAt. It is never
// "authenticated with unknown expiry".
type Session struct {
	AccessToken  string
	TokenType    string
	ExpiresAt    time.Time
	RefreshToken string
	User         *User
}

// Manager is the exclusive owner of one browser session's mutable state.
//
// All mutation funnels through its operations (Login, Logout, Refresh);
// every other component only reads the derived accessors. The manager also
// owns the [TokenStore] lifecycle: it is the only writer of persisted keys.
type Manager struct {
	mu      sync.RWMutex
	session Session

	store   TokenStore
	gateway *Gateway
	logger  *slog.Logger

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewManager constructs a session manager bound to its persistent store.
//
// The gateway is attached separately ([Manager.AttachGateway]) because its
// HTTP client's transports need the manager first. Call [Manager.Restore]
// after wiring to load any persisted session.
func NewManager(store TokenStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// AttachGateway binds the backend auth client. Must be called once during
// wiring, before any operation that reaches the network.
func (manager *Manager) AttachGateway(gateway *Gateway) {
	manager.gateway = gateway
}

// # Boot

/*
Restore loads the persisted token set, if any.

Description: Reads the four flat entries from the store. Missing entries mean
"logged out". A persisted set that is already expired by wall clock is cleared
eagerly. A live set repopulates the identity snapshot from decoded token
claims without any network call; the route gates handle the redirect side.

Parameters:
  - context: context.Context
*/
func (manager *Manager) Restore(context context.Context) {
	accessToken := manager.store.Get(context, constants.KeyAccessToken)
	if accessToken == "" {
		manager.Clear(context)
		return
	}

	expiresAt := parseEpochMillis(manager.store.Get(context, constants.KeyExpiresAt))
	if expiresAt.IsZero() || !manager.now().Before(expiresAt) {
		manager.logger.Info("persisted_session_expired")
		manager.Clear(context)
		return
	}

	tokenType := manager.store.Get(context, constants.KeyTokenType)
	if tokenType == "" {
		tokenType = "Bearer"
	}

	claims, _ := DecodeToken(accessToken)

	manager.mu.Lock()
	manager.session = Session{
		AccessToken:  accessToken,
		TokenType:    tokenType,
		ExpiresAt:    expiresAt,
		RefreshToken: manager.store.Get(context, constants.KeyRefreshToken),
		User:         ensureIdentity(mergeUsers(nil, userFromClaims(claims))),
	}
	manager.mu.Unlock()
}

// # Authentication Flow

/*
Login authenticates against the records backend and establishes the session.

Description: Sends credentials, interprets the loosely-structured token
envelope, computes the absolute expiry, merges the identity snapshot from
decoded claims and any embedded user object, persists the token set, and
finally attempts one best-effort current-user fetch. The follow-up never
fails the login.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - *User: Established identity snapshot
  - error: Unauthorized, malformed-response, or gateway failures
*/
func (manager *Manager) Login(context context.Context, username, password string) (*User, error) {
	body, err := manager.gateway.Login(context, username, password)
	if err != nil {
		return nil, err
	}

	envelope, err := parseTokenEnvelope(body)
	if err != nil {
		// Fail fast: no partial session state is committed.
		return nil, err
	}

	claims, _ := DecodeToken(envelope.AccessToken)
	expiresAt := resolveExpiry(manager.now(), envelope, claims)
	if expiresAt.IsZero() {
		// A session with unknown expiry can never become authenticated.
		return nil, ErrMalformedTokenResponse
	}

	envelopeUser := envelope.User
	if envelopeUser == nil && len(envelope.Roles) > 0 {
		// Some generations put roles at the envelope top level.
		envelopeUser = &User{Active: true, Roles: NormalizeAll(envelope.Roles)}
	}
	user := ensureIdentity(mergeUsers(userFromClaims(claims), envelopeUser))

	tokenType := envelope.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	manager.commit(context, Session{
		AccessToken:  envelope.AccessToken,
		TokenType:    tokenType,
		ExpiresAt:    expiresAt,
		RefreshToken: envelope.RefreshToken,
		User:         user,
	})

	// Best-effort authoritative identity. Silently keep the merged fallback
	// when the backend call fails — login itself already succeeded.
	if fetched, err := manager.gateway.CurrentUser(context); err == nil && fetched != nil {
		manager.mu.Lock()
		manager.session.User = mergeUsers(user, fetched)
		user = manager.session.User
		manager.mu.Unlock()
	} else if err != nil {
		manager.logger.Warn("current_user_fetch_failed", slog.Any("error", err))
	}

	return user, nil
}

/*
Logout terminates the session.

Description: With no access token present this is a trivial success that
still clears persisted state. Otherwise the backend logout endpoint is
invoked and the session is cleared regardless of its outcome — the caller
always observes a clean, logged-out state.

Parameters:
  - context: context.Context
*/
func (manager *Manager) Logout(context context.Context) {
	manager.mu.RLock()
	hasToken := manager.session.AccessToken != ""
	manager.mu.RUnlock()

	if hasToken {
		if err := manager.gateway.Logout(context); err != nil {
			manager.logger.Warn("backend_logout_failed", slog.Any("error", err))
		}
	}

	manager.Clear(context)
}

/*
Refresh exchanges the stored refresh token for a new access token.

Description: A missing refresh token is a no-op success — the recovery
transport decides what that means for the failed request. On success the
access token, type, and expiry are updated in place; a newly supplied
refresh token replaces the old one.

Parameters:
  - context: context.Context

Returns:
  - error: Gateway or malformed-response failures
*/
func (manager *Manager) Refresh(context context.Context) error {
	manager.mu.RLock()
	refreshToken := manager.session.RefreshToken
	manager.mu.RUnlock()

	if refreshToken == "" {
		return nil
	}

	body, err := manager.gateway.RefreshToken(context, refreshToken)
	if err != nil {
		return err
	}

	envelope, err := parseTokenEnvelope(body)
	if err != nil {
		return err
	}

	claims, _ := DecodeToken(envelope.AccessToken)
	expiresAt := resolveExpiry(manager.now(), envelope, claims)
	if expiresAt.IsZero() {
		return ErrMalformedTokenResponse
	}

	manager.mu.Lock()
	updated := manager.session
	updated.AccessToken = envelope.AccessToken
	updated.ExpiresAt = expiresAt
	if envelope.TokenType != "" {
		updated.TokenType = envelope.TokenType
	}
	if envelope.RefreshToken != "" {
		updated.RefreshToken = envelope.RefreshToken
	}
	if updated.User == nil {
		updated.User = ensureIdentity(mergeUsers(nil, userFromClaims(claims)))
	}
	manager.mu.Unlock()

	manager.commit(context, updated)
	return nil
}

/*
ChangeOwnPassword updates the signed-in account's password.

Description: Pure pass-through to the backend; no local state changes.

Parameters:
  - context: context.Context
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized or gateway failures
*/
func (manager *Manager) ChangeOwnPassword(context context.Context, currentPassword, newPassword string) error {
	return manager.gateway.ChangePassword(context, currentPassword, newPassword)
}

// Clear resets every session field and removes all persisted entries.
func (manager *Manager) Clear(context context.Context) {
	manager.mu.Lock()
	manager.session = Session{}
	manager.mu.Unlock()

	manager.store.Set(context, constants.KeyAccessToken, "")
	manager.store.Set(context, constants.KeyRefreshToken, "")
	manager.store.Set(context, constants.KeyTokenType, "")
	manager.store.Set(context, constants.KeyExpiresAt, "")
}

// # Derived Accessors

// IsAuthenticated reports whether the session holds a live, unexpired token.
func (manager *Manager) IsAuthenticated() bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	return manager.session.AccessToken != "" &&
		!manager.session.ExpiresAt.IsZero() &&
		manager.now().Before(manager.session.ExpiresAt)
}

// AccessToken returns the current bearer credential, "" when logged out.
func (manager *Manager) AccessToken() string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.session.AccessToken
}

// TokenType returns the credential type, defaulting to "Bearer".
func (manager *Manager) TokenType() string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	if manager.session.TokenType == "" {
		return "Bearer"
	}
	return manager.session.TokenType
}

// ExpiresAt returns the absolute expiry instant, zero when logged out.
func (manager *Manager) ExpiresAt() time.Time {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.session.ExpiresAt
}

// RefreshToken returns the stored refresh credential, "" when absent.
func (manager *Manager) RefreshToken() string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.session.RefreshToken
}

// CurrentUser returns a copy of the cached identity snapshot, nil when
// logged out.
func (manager *Manager) CurrentUser() *User {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	if manager.session.User == nil {
		return nil
	}
	clone := *manager.session.User
	clone.Roles = append([]string{}, manager.session.User.Roles...)
	return &clone
}

// Roles returns the canonical role set of the signed-in account.
//
// A known user with no roles at all yields the single synthetic
// [RoleObservador] — deliberate default-deny to the minimal-privilege tier,
// not an error.
func (manager *Manager) Roles() []string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	if manager.session.User == nil {
		return nil
	}
	if len(manager.session.User.Roles) == 0 {
		return []string{RoleObservador}
	}
	return append([]string{}, manager.session.User.Roles...)
}

// HasRole reports whether the account holds the given role. The input is
// normalized before comparison, so raw backend spellings are accepted.
func (manager *Manager) HasRole(role string) bool {
	canonical := Normalize(role)
	for _, held := range manager.Roles() {
		if held == canonical {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the account holds at least one of the given
// roles. An empty input never matches.
func (manager *Manager) HasAnyRole(roles []string) bool {
	for _, role := range roles {
		if manager.HasRole(role) {
			return true
		}
	}
	return false
}

// # Internals

// commit replaces the session and persists the token set atomically with
// respect to other manager operations.
func (manager *Manager) commit(context context.Context, session Session) {
	manager.mu.Lock()
	manager.session = session
	manager.mu.Unlock()

	manager.store.Set(context, constants.KeyAccessToken, session.AccessToken)
	manager.store.Set(context, constants.KeyRefreshToken, session.RefreshToken)
	manager.store.Set(context, constants.KeyTokenType, session.TokenType)
	manager.store.Set(context, constants.KeyExpiresAt, strconv.FormatInt(session.ExpiresAt.UnixMilli(), 10))
}

// resolveExpiry computes the absolute expiry instant, preferring an explicit
// positive seconds-to-live, then an explicit instant, then the token's own
// expiry claim.
func resolveExpiry(now time.Time, envelope tokenEnvelope, claims Claims) time.Time {
	if envelope.ExpiresIn > 0 {
		return now.Add(time.Duration(envelope.ExpiresIn) * time.Second)
	}
	if !envelope.ExpiresAt.IsZero() {
		return envelope.ExpiresAt
	}
	return claims.ExpiresAt
}

// parseEpochMillis interprets a persisted expiry entry. Anything unreadable
// reads as "no expiry recorded".
func parseEpochMillis(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil || millis <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}
