// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package middleware

import (
	"net/http"
	"strings"

	"github.com/sigepsi/portal/internal/auth"
	"github.com/sigepsi/portal/internal/platform/constants"
	"github.com/sigepsi/portal/internal/platform/ctxutil"
	"github.com/sigepsi/portal/pkg/uuid"
)

// # Session Loading

// LoadSession resolves the browser session cookie and injects the wired
// session into the request context.
//
// # Flow
//  1. Read the session cookie; mint a fresh UUID v7 identity when absent.
//  2. Fetch-or-build the wired session from the hub.
//  3. Inject [*auth.BrowserSession] into the request context.
//
// Every route below the portal's session group runs through this; the gates
// ([RequireSession], [RequireRoles], [RequireGuest]) assume it already ran.
func LoadSession(hub *auth.Hub) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Cookie Resolution ──────────────────────────────────────────
			sessionID := ""
			if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && uuid.IsValid(cookie.Value) {
				sessionID = cookie.Value
			}

			if sessionID == "" {
				sessionID = uuid.New()

				http.SetCookie(writer, &http.Cookie{
					Name:     constants.SessionCookieName,
					Value:    sessionID,
					Path:     constants.SessionCookiePath,
					MaxAge:   int(constants.SessionCookieTTL.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			// ── 2. Session Wiring ─────────────────────────────────────────────
			session := hub.Session(request.Context(), sessionID)

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithSession(request.Context(), session)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Route Gates

// RequireSession blocks unauthenticated requests.
//
// # Usage
//
// Must be registered in the router AFTER [LoadSession].
//
// View routes are redirected to the login page; API routes receive a JSON 401
// so the front-end scripts can react without following a redirect.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		session := ctxutil.GetSession(request.Context())
		if session == nil || !session.Manager.IsAuthenticated() {
			reject(writer, request, http.StatusUnauthorized, "UNAUTHORIZED",
				"Authentication required", constants.PathLogin)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRoles blocks requests whose account holds none of the given roles.
//
// # Usage
//
// Must be registered AFTER [LoadSession]. It implies [RequireSession], so
// routes need only one gate. Role inputs accept raw spellings; they are
// canonicalized before comparison.
//
// An authenticated account with the wrong roles is redirected to its own
// landing page rather than the login page, so a mistyped URL never ejects a
// signed-in user.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			session := ctxutil.GetSession(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if session == nil || !session.Manager.IsAuthenticated() {
				reject(writer, request, http.StatusUnauthorized, "UNAUTHORIZED",
					"Authentication required", constants.PathLogin)
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !session.Manager.HasAnyRole(roles) {
				reject(writer, request, http.StatusForbidden, "FORBIDDEN",
					"Insufficient permissions", auth.FallbackPath(session.Manager.Roles()))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireGuest blocks authenticated requests; the login view mounts it so a
// signed-in account is bounced straight to its role landing page.
//
// # Usage
//
// Must be registered AFTER [LoadSession].
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		session := ctxutil.GetSession(request.Context())
		if session != nil && session.Manager.IsAuthenticated() {
			http.Redirect(writer, request, auth.FallbackPath(session.Manager.Roles()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// reject answers a gate violation: JSON for API routes, redirect for views.
func reject(writer http.ResponseWriter, request *http.Request, status int, code, message, location string) {
	if strings.HasPrefix(request.URL.Path, "/api/") {
		writeError(writer, status, code, message)
		return
	}
	http.Redirect(writer, request, location, http.StatusSeeOther)
}
