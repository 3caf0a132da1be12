// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package fichas_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigepsi/portal/internal/auth"
	"github.com/sigepsi/portal/internal/fichas"
	"github.com/sigepsi/portal/internal/platform/constants"
	"github.com/sigepsi/portal/internal/platform/ctxutil"
)

// newFixture stands up a fake records backend and a signed-in browser
// session whose client points at it.
func newFixture(t *testing.T, backend http.Handler) (*chi.Mux, *auth.BrowserSession, string) {
	t.Helper()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]interface{}{"sub": "cap.herrera", "roles": []string{"psicologo"}})
	require.NoError(t, err)
	encode := base64.RawURLEncoding.EncodeToString
	token := encode(header) + "." + encode(body) + "." + encode([]byte("sig"))

	ctx := context.Background()
	store := auth.NewMemoryStore()
	store.Set(ctx, constants.KeyAccessToken, token)
	store.Set(ctx, constants.KeyExpiresAt, strconv.FormatInt(time.Now().Add(time.Hour).UnixMilli(), 10))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := auth.NewHub(server.URL, func(string) auth.TokenStore { return store }, nil, logger)
	t.Cleanup(hub.Close)

	session := hub.Session(ctx, "0198c6a2-aaaa-7bbb-8ccc-0123456789ab")
	require.True(t, session.Manager.IsAuthenticated())

	router := chi.NewRouter()
	handler := fichas.NewHandler(fichas.NewService(server.URL))
	router.Route("/api/fichas", handler.RegisterRoutes)

	return router, session, token
}

// do serves one request with the session injected, mimicking the gates.
func do(router *chi.Mux, session *auth.BrowserSession, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request = request.WithContext(ctxutil.WithSession(request.Context(), session))
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestFichas_ListPassthrough verifies the backend payload, status, and query
arrive unmodified at both ends, with the request signed.
*/
func TestFichas_ListPassthrough(t *testing.T) {
	var seenAuth, seenQuery string
	backend := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seenAuth = request.Header.Get("Authorization")
		seenQuery = request.URL.RawQuery
		writer.WriteHeader(http.StatusOK)
		writer.Write([]byte(`{"data":[{"id":1,"estado":"BORRADOR"}]}`))
	})

	router, session, token := newFixture(t, backend)

	recorder := do(router, session, httptest.NewRequest(http.MethodGet, "/api/fichas?estado=BORRADOR", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":[{"id":1,"estado":"BORRADOR"}]}`, recorder.Body.String())
	assert.Equal(t, "Bearer "+token, seenAuth)
	assert.Equal(t, "estado=BORRADOR", seenQuery)
}

/*
TestFichas_SaveSection verifies the section bounds check happens before any
backend call, and valid saves relay the body intact.
*/
func TestFichas_SaveSection(t *testing.T) {
	var backendCalls int
	var seenBody string
	backend := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		backendCalls++
		payload, _ := io.ReadAll(request.Body)
		seenBody = string(payload)
		writer.WriteHeader(http.StatusOK)
		writer.Write([]byte(`{"data":{"seccion":3}}`))
	})

	router, session, _ := newFixture(t, backend)

	t.Run("section_out_of_range", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPut, "/api/fichas/9/secciones/12", strings.NewReader(`{"r":1}`))
		recorder := do(router, session, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
		assert.Zero(t, backendCalls, "invalid sections never reach the backend")
	})

	t.Run("valid_section_relays", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPut, "/api/fichas/9/secciones/3", strings.NewReader(`{"respuestas":[1,2]}`))
		recorder := do(router, session, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 1, backendCalls)
		assert.JSONEq(t, `{"respuestas":[1,2]}`, seenBody)
	})
}

/*
TestFichas_BackendErrorPassthrough verifies backend failures relay as-is
rather than being re-wrapped.
*/
func TestFichas_BackendErrorPassthrough(t *testing.T) {
	backend := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusConflict)
		writer.Write([]byte(`{"error":"la ficha ya fue finalizada"}`))
	})

	router, session, _ := newFixture(t, backend)

	recorder := do(router, session, httptest.NewRequest(http.MethodPost, "/api/fichas/9/finalizar", nil))

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.JSONEq(t, `{"error":"la ficha ya fue finalizada"}`, recorder.Body.String())
}
