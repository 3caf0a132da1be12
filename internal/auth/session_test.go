// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigepsi/portal/internal/platform/constants"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unsignedToken builds a decodable token carrying the given claims.
func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	body, err := json.Marshal(claims)
	require.NoError(t, err)

	encode := base64.RawURLEncoding.EncodeToString
	return encode(header) + "." + encode(body) + "." + encode([]byte("sig"))
}

// newTestManager wires a manager against a fake records backend.
func newTestManager(t *testing.T, backend http.Handler) (*Manager, *MemoryStore) {
	t.Helper()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	store := NewMemoryStore()
	manager := NewManager(store, testLogger())
	manager.AttachGateway(NewGateway(server.URL, server.Client(), testLogger()))
	return manager, store
}

/*
TestManager_LoginEstablishesSession covers the full login path: envelope
interpretation, claim merge, persistence, and the best-effort current-user
follow-up.
*/
func TestManager_LoginEstablishesSession(t *testing.T) {
	token := unsignedToken(t, map[string]interface{}{
		"sub": "cap.herrera", "id": 7, "roles": []string{"psicólogo"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		var credentials map[string]string
		require.NoError(t, json.NewDecoder(request.Body).Decode(&credentials))
		assert.Equal(t, "cap.herrera", credentials["username"])

		json.NewEncoder(writer).Encode(map[string]interface{}{
			"accessToken": token, "tokenType": "Bearer", "expiresIn": 3600, "refreshToken": "rrr",
		})
	})
	mux.HandleFunc("GET /auth/current-user", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id": 7, "username": "cap.herrera", "email": "herrera@sigepsi.mil.ec",
				"roles": []string{"PSICOLOGO"},
			},
		})
	})

	manager, store := newTestManager(t, mux)

	user, err := manager.Login(context.Background(), "cap.herrera", "secreta")
	require.NoError(t, err)

	assert.True(t, manager.IsAuthenticated())
	assert.Equal(t, "cap.herrera", user.Username)
	assert.Equal(t, "herrera@sigepsi.mil.ec", user.Email, "follow-up fetch fills fields")
	assert.Equal(t, []string{RolePsicologo}, user.Roles)

	// All four entries persisted.
	ctx := context.Background()
	assert.Equal(t, token, store.Get(ctx, constants.KeyAccessToken))
	assert.Equal(t, "rrr", store.Get(ctx, constants.KeyRefreshToken))
	assert.Equal(t, "Bearer", store.Get(ctx, constants.KeyTokenType))
	assert.NotEmpty(t, store.Get(ctx, constants.KeyExpiresAt))
}

/*
TestManager_LoginFailures verifies credential rejection and the fail-fast
behavior on unreadable or expiry-less token responses.
*/
func TestManager_LoginFailures(t *testing.T) {
	t.Run("invalid_credentials", func(t *testing.T) {
		manager, store := newTestManager(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := manager.Login(context.Background(), "cap.herrera", "wrong")
		require.Error(t, err)
		assert.False(t, manager.IsAuthenticated())
		assert.Zero(t, store.Len(), "no partial state persisted")
	})

	t.Run("malformed_envelope", func(t *testing.T) {
		manager, _ := newTestManager(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Write([]byte(`{"truncated`))
		}))

		_, err := manager.Login(context.Background(), "u", "p")
		assert.ErrorIs(t, err, ErrMalformedTokenResponse)
	})

	t.Run("no_expiry_anywhere", func(t *testing.T) {
		// Token without exp claim, envelope without expiresIn/expiresAt.
		token := unsignedToken(t, map[string]interface{}{"sub": "x"})
		manager, _ := newTestManager(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			json.NewEncoder(writer).Encode(map[string]string{"accessToken": token})
		}))

		_, err := manager.Login(context.Background(), "u", "p")
		assert.ErrorIs(t, err, ErrMalformedTokenResponse)
		assert.False(t, manager.IsAuthenticated())
	})
}

/*
TestManager_LoginOpaqueToken verifies that a token with no decodable claims,
an envelope without a user, and an unreachable current-user endpoint still
yield a usable identity: an active account on the observer tier, never a nil
snapshot.
*/
func TestManager_LoginOpaqueToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]interface{}{
			"accessToken": "opaque-session-credential", "expiresIn": 3600,
		})
	})
	mux.HandleFunc("GET /auth/current-user", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusServiceUnavailable)
	})

	manager, _ := newTestManager(t, mux)

	user, err := manager.Login(context.Background(), "u", "p")
	require.NoError(t, err)

	require.NotNil(t, user, "an established session always carries an identity")
	assert.True(t, user.Active)
	assert.True(t, manager.IsAuthenticated())
	assert.Equal(t, []string{RoleObservador}, manager.Roles())
	assert.Equal(t, constants.PathReportes, FallbackPath(manager.Roles()),
		"an accepted login never lands back on the login page")
}

/*
TestManager_LoginBareTokenResponse verifies a bare-text login response whose
expiry comes from the token's own claim, with the follow-up fetch failing.
*/
func TestManager_LoginBareTokenResponse(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute)
	token := unsignedToken(t, map[string]interface{}{"sub": "sgop.quinde", "exp": expiry.Unix()})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/plain")
		writer.Write([]byte(token))
	})
	mux.HandleFunc("GET /auth/current-user", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusServiceUnavailable)
	})

	manager, store := newTestManager(t, mux)

	user, err := manager.Login(context.Background(), "sgop.quinde", "p")
	require.NoError(t, err)

	assert.True(t, manager.IsAuthenticated())
	assert.Equal(t, "Bearer", manager.TokenType(), "bare responses default the type")
	assert.Equal(t, "sgop.quinde", user.Username)
	assert.WithinDuration(t, expiry, manager.ExpiresAt(), time.Second)
	assert.Equal(t, []string{RoleObservador}, manager.Roles(), "claim carries no roles")
	assert.Equal(t, token, store.Get(context.Background(), constants.KeyAccessToken))
}

/*
TestManager_AuthenticationExpiry verifies that authentication status derives
strictly from token presence plus unexpired wall clock.
*/
func TestManager_AuthenticationExpiry(t *testing.T) {
	token := unsignedToken(t, map[string]interface{}{"sub": "x", "roles": []string{"observador"}})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]interface{}{"accessToken": token, "expiresIn": 60})
	})
	mux.HandleFunc("GET /auth/current-user", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})

	manager, _ := newTestManager(t, mux)
	_, err := manager.Login(context.Background(), "u", "p")
	require.NoError(t, err)
	require.True(t, manager.IsAuthenticated())

	// Wind the clock past the expiry instant.
	manager.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.False(t, manager.IsAuthenticated())
	assert.NotEmpty(t, manager.AccessToken(), "expiry does not erase the token, only its validity")
}

/*
TestManager_LogoutAlwaysClears verifies the caller observes a clean session
even when the backend logout endpoint fails.
*/
func TestManager_LogoutAlwaysClears(t *testing.T) {
	token := unsignedToken(t, map[string]interface{}{"sub": "x"})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]interface{}{"accessToken": token, "expiresIn": 3600})
	})
	mux.HandleFunc("GET /auth/current-user", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /auth/logout", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
	})

	manager, store := newTestManager(t, mux)
	_, err := manager.Login(context.Background(), "u", "p")
	require.NoError(t, err)

	manager.Logout(context.Background())

	assert.False(t, manager.IsAuthenticated())
	assert.Empty(t, manager.AccessToken())
	assert.Nil(t, manager.CurrentUser())
	assert.Zero(t, store.Len(), "all persisted entries removed")
}

/*
TestManager_RefreshWithoutToken verifies that refresh is a silent no-op when
no refresh credential exists.
*/
func TestManager_RefreshWithoutToken(t *testing.T) {
	manager, _ := newTestManager(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Error("no backend call expected")
	}))

	assert.NoError(t, manager.Refresh(context.Background()))
	assert.False(t, manager.IsAuthenticated())
}

/*
TestManager_RefreshRotatesToken verifies a successful refresh swaps the access
token in place and honors a rotated refresh token.
*/
func TestManager_RefreshRotatesToken(t *testing.T) {
	oldToken := unsignedToken(t, map[string]interface{}{"sub": "x"})
	newToken := unsignedToken(t, map[string]interface{}{"sub": "x", "fresh": true})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		json.NewEncoder(writer).Encode(map[string]interface{}{
			"accessToken": oldToken, "expiresIn": 3600, "refreshToken": "refresh-1",
		})
	})
	mux.HandleFunc("GET /auth/current-user", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /auth/refresh-token", func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer refresh-1", request.Header.Get("Authorization"))
		json.NewEncoder(writer).Encode(map[string]interface{}{
			"accessToken": newToken, "expiresIn": 3600, "refreshToken": "refresh-2",
		})
	})

	manager, store := newTestManager(t, mux)
	_, err := manager.Login(context.Background(), "u", "p")
	require.NoError(t, err)

	require.NoError(t, manager.Refresh(context.Background()))

	assert.Equal(t, newToken, manager.AccessToken())
	assert.Equal(t, "refresh-2", manager.RefreshToken())
	assert.Equal(t, newToken, store.Get(context.Background(), constants.KeyAccessToken))
}

/*
TestManager_Restore verifies session restoration from persisted entries and
the eager clearing of an expired persisted set.
*/
func TestManager_Restore(t *testing.T) {
	ctx := context.Background()
	token := unsignedToken(t, map[string]interface{}{"sub": "cap.herrera", "roles": []string{"admin"}})

	t.Run("live_set_restores", func(t *testing.T) {
		store := NewMemoryStore()
		expiry := time.Now().Add(time.Hour).UnixMilli()
		store.Set(ctx, constants.KeyAccessToken, token)
		store.Set(ctx, constants.KeyTokenType, "Bearer")
		store.Set(ctx, constants.KeyExpiresAt, strconv.FormatInt(expiry, 10))
		store.Set(ctx, constants.KeyRefreshToken, "rrr")

		manager := NewManager(store, testLogger())
		manager.Restore(ctx)

		assert.True(t, manager.IsAuthenticated())
		require.NotNil(t, manager.CurrentUser())
		assert.Equal(t, "cap.herrera", manager.CurrentUser().Username)
		assert.Equal(t, []string{RoleAdministrador}, manager.Roles())
	})

	t.Run("expired_set_clears", func(t *testing.T) {
		store := NewMemoryStore()
		expiry := time.Now().Add(-time.Minute).UnixMilli()
		store.Set(ctx, constants.KeyAccessToken, token)
		store.Set(ctx, constants.KeyExpiresAt, strconv.FormatInt(expiry, 10))

		manager := NewManager(store, testLogger())
		manager.Restore(ctx)

		assert.False(t, manager.IsAuthenticated())
		assert.Zero(t, store.Len())
	})

	t.Run("opaque_token_restores_identity", func(t *testing.T) {
		store := NewMemoryStore()
		store.Set(ctx, constants.KeyAccessToken, "opaque-session-credential")
		store.Set(ctx, constants.KeyExpiresAt, strconv.FormatInt(time.Now().Add(time.Hour).UnixMilli(), 10))

		manager := NewManager(store, testLogger())
		manager.Restore(ctx)

		assert.True(t, manager.IsAuthenticated())
		require.NotNil(t, manager.CurrentUser(), "restored sessions always carry an identity")
		assert.Equal(t, []string{RoleObservador}, manager.Roles())
	})

	t.Run("empty_store_stays_logged_out", func(t *testing.T) {
		manager := NewManager(NewMemoryStore(), testLogger())
		manager.Restore(ctx)
		assert.False(t, manager.IsAuthenticated())
	})
}

/*
TestManager_RoleAccessors verifies the minimal-privilege fallback and the
input normalization of the role predicates.
*/
func TestManager_RoleAccessors(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testLogger())

	// Logged out: no roles at all.
	assert.Nil(t, manager.Roles())
	assert.False(t, manager.HasRole("admin"))

	manager.session = Session{
		AccessToken: "ttt",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        &User{Username: "vega", Active: true},
	}

	// Known user with zero provisioned roles falls back to read-only.
	assert.Equal(t, []string{RoleObservador}, manager.Roles())
	assert.True(t, manager.HasRole("observador"), "predicate input is normalized")
	assert.True(t, manager.HasAnyRole([]string{"admin", "observer"}))
	assert.False(t, manager.HasAnyRole([]string{"admin", "psicólogo"}))
	assert.False(t, manager.HasAnyRole(nil), "empty input never matches")
}
