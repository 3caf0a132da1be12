// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package middleware_test

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

	"github.com/sigepsi/portal/internal/auth"
	"github.com/sigepsi/portal/internal/platform/constants"
	"github.com/sigepsi/portal/internal/platform/ctxutil"
	"github.com/sigepsi/portal/internal/platform/middleware"
	"github.com/sigepsi/portal/pkg/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// adminToken builds a decodable token carrying the administrator role.
func adminToken(t *testing.T) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]interface{}{"sub": "tcrn.moya", "roles": []string{"admin"}})
	require.NoError(t, err)

	encode := base64.RawURLEncoding.EncodeToString
	return encode(header) + "." + encode(body) + "." + encode([]byte("sig"))
}

// newHubWithSession creates a hub whose store already holds a signed-in
// administrator, and returns the session cookie that reaches it.
func newHubWithSession(t *testing.T) (*auth.Hub, *http.Cookie) {
	t.Helper()

	ctx := context.Background()
	store := auth.NewMemoryStore()
	store.Set(ctx, constants.KeyAccessToken, adminToken(t))
	store.Set(ctx, constants.KeyTokenType, "Bearer")
	store.Set(ctx, constants.KeyExpiresAt, strconv.FormatInt(time.Now().Add(time.Hour).UnixMilli(), 10))

	hub := auth.NewHub("http://backend.invalid",
		func(string) auth.TokenStore { return store }, nil, testLogger())
	t.Cleanup(hub.Close)

	return hub, &http.Cookie{Name: constants.SessionCookieName, Value: uuid.New()}
}

// okHandler records whether the gate let the request through.
func okHandler(reached *bool) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*reached = true
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestLoadSession_MintsCookie verifies a cookie-less request receives a fresh
session cookie and a wired session in context.
*/
func TestLoadSession_MintsCookie(t *testing.T) {
	hub := auth.NewHub("http://backend.invalid",
		func(string) auth.TokenStore { return auth.NewMemoryStore() }, nil, testLogger())
	t.Cleanup(hub.Close)

	var sessionSeen bool
	handler := middleware.LoadSession(hub)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		sessionSeen = ctxutil.GetSession(request.Context()) != nil
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, sessionSeen)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, uuid.IsValid(cookies[0].Value))
}

/*
TestRequireSession verifies unauthenticated handling: views redirect to the
login page, API routes get a JSON 401.
*/
func TestRequireSession(t *testing.T) {
	hub := auth.NewHub("http://backend.invalid",
		func(string) auth.TokenStore { return auth.NewMemoryStore() }, nil, testLogger())
	t.Cleanup(hub.Close)

	var reached bool
	handler := middleware.LoadSession(hub)(middleware.RequireSession(okHandler(&reached)))

	t.Run("view_redirects_to_login", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/psicologo", nil))

		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, constants.PathLogin, recorder.Header().Get("Location"))
		assert.False(t, reached)
	})

	t.Run("api_gets_json_401", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/fichas", nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Header().Get("Content-Type"), "application/json")
		assert.False(t, reached)
	})
}

/*
TestRequireRoles verifies that a signed-in account with the wrong role is
redirected to its own landing page, never back to login.
*/
func TestRequireRoles(t *testing.T) {
	hub, cookie := newHubWithSession(t)

	var reached bool
	gate := middleware.LoadSession(hub)(
		middleware.RequireRoles(auth.RolePsicologo)(okHandler(&reached)))

	t.Run("wrong_role_lands_on_own_page", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/psicologo", nil)
		request.AddCookie(cookie)

		recorder := httptest.NewRecorder()
		gate.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, constants.PathAdmin, recorder.Header().Get("Location"))
		assert.False(t, reached)
	})

	t.Run("matching_role_passes", func(t *testing.T) {
		adminGate := middleware.LoadSession(hub)(
			middleware.RequireRoles("administrador")(okHandler(&reached)))

		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		request.AddCookie(cookie)

		recorder := httptest.NewRecorder()
		adminGate.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, reached, "raw role spelling is normalized before comparison")
	})
}

/*
TestRequireGuest verifies the login page bounces signed-in accounts to their
landing page.
*/
func TestRequireGuest(t *testing.T) {
	hub, cookie := newHubWithSession(t)

	var reached bool
	gate := middleware.LoadSession(hub)(middleware.RequireGuest(okHandler(&reached)))

	t.Run("authenticated_bounced_to_landing", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/login", nil)
		request.AddCookie(cookie)

		recorder := httptest.NewRecorder()
		gate.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, constants.PathAdmin, recorder.Header().Get("Location"))
		assert.False(t, reached)
	})

	t.Run("anonymous_passes", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		gate.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, reached)
	})
}
