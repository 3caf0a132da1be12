// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and the
session lookups every gated handler starts with.
*/
package requestutil

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sigepsi/portal/internal/auth"
	"github.com/sigepsi/portal/internal/platform/apperr"
	"github.com/sigepsi/portal/internal/platform/ctxutil"
)

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredSession ensures the request belongs to an authenticated browser
session and returns it.

Returns:
  - *auth.BrowserSession: The wired, authenticated session
  - error: apperr.Unauthorized if the session is missing or signed out
*/
func RequiredSession(request *http.Request) (*auth.BrowserSession, error) {

	// Get the browser session
	session := ctxutil.GetSession(request.Context())

	// If the session is absent or signed out, return an error
	if session == nil || !session.Manager.IsAuthenticated() {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return session, nil
}

/*
RequiredUser returns the identity snapshot of the signed-in account.

Returns:
  - *auth.User: The cached identity snapshot
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUser(request *http.Request) (*auth.User, error) {

	// Get the authenticated session
	session, err := RequiredSession(request)

	// If the session is absent or signed out, return an error
	if err != nil {
		return nil, err
	}

	return session.Manager.CurrentUser(), nil
}
