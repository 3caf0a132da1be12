// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/sigepsi/portal/internal/platform/apperr"
	"github.com/sigepsi/portal/internal/platform/constants"
)

// # Backend Auth Client

// Gateway is the HTTP client for the records backend's auth endpoints.
//
// Its http.Client carries the session's signing and recovery transports, so
// non-auth calls made through it are signed and 401-recovered transparently.
// The auth endpoints themselves are exempt from both (see isAuthEndpoint).
type Gateway struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGateway creates a backend auth client.
//
// # Parameters
//   - baseURL: Records backend base URL, no trailing slash.
//   - client: HTTP client already wired with the session transports.
//   - logger: Structured logger.
func NewGateway(baseURL string, client *http.Client, logger *slog.Logger) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

/*
Login exchanges credentials for a token envelope.

Description: Returns the raw response body — the envelope shape varies across
backend generations and is interpreted by the session layer.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - []byte: Raw token envelope body
  - error: Unauthorized on credential rejection, gateway failures otherwise
*/
func (gateway *Gateway) Login(context context.Context, username, password string) ([]byte, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	response, err := gateway.post(context, "/auth/login", payload, "")
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, apperr.GatewayUnavailable(err)
	}

	switch {
	case response.StatusCode == http.StatusOK:
		return body, nil
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return nil, apperr.Unauthorized("Invalid username or password")
	default:
		return nil, apperr.FromStatus(response.StatusCode, backendMessage(body))
	}
}

/*
CurrentUser fetches the authoritative identity of the signed-in account.

Parameters:
  - context: context.Context

Returns:
  - *User: Parsed identity, nil when the payload carries no identity
  - error: Gateway failures
*/
func (gateway *Gateway) CurrentUser(context context.Context) (*User, error) {
	body, err := gateway.getJSON(context, "/auth/current-user")
	if err != nil {
		return nil, err
	}

	user, ok := parseUserPayload(body)
	if !ok {
		return nil, nil
	}
	return user, nil
}

/*
CurrentUserWithPsicologo fetches the identity joined with its psychologist
profile, relayed verbatim to the profile view.

Parameters:
  - context: context.Context

Returns:
  - json.RawMessage: Backend payload as-is
  - error: Gateway failures
*/
func (gateway *Gateway) CurrentUserWithPsicologo(context context.Context) (json.RawMessage, error) {
	body, err := gateway.getJSON(context, "/auth/current-user-with-psicologo")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

/*
RefreshToken exchanges a refresh token for a fresh token envelope.

Description: The refresh token itself is the bearer credential for this one
call; the signing transport leaves auth endpoints alone.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - []byte: Raw token envelope body
  - error: Unauthorized on a rejected refresh token, gateway failures otherwise
*/
func (gateway *Gateway) RefreshToken(context context.Context, refreshToken string) ([]byte, error) {
	payload, _ := json.Marshal(map[string]string{
		"refreshToken": refreshToken,
	})

	response, err := gateway.post(context, "/auth/refresh-token", payload, "Bearer "+refreshToken)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, apperr.GatewayUnavailable(err)
	}

	switch {
	case response.StatusCode == http.StatusOK:
		return body, nil
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return nil, apperr.Unauthorized("Refresh token rejected")
	default:
		return nil, apperr.FromStatus(response.StatusCode, backendMessage(body))
	}
}

/*
Logout invalidates the session's tokens server-side.

Parameters:
  - context: context.Context

Returns:
  - error: Gateway failures; the caller clears local state regardless
*/
func (gateway *Gateway) Logout(context context.Context) error {
	response, err := gateway.post(context, "/auth/logout", nil, "")
	if err != nil {
		return err
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	if response.StatusCode >= 400 {
		return apperr.FromStatus(response.StatusCode, "")
	}
	return nil
}

/*
ChangePassword updates the signed-in account's password.

Parameters:
  - context: context.Context
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized when the current password is wrong, gateway failures otherwise
*/
func (gateway *Gateway) ChangePassword(context context.Context, currentPassword, newPassword string) error {
	payload, _ := json.Marshal(map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	})

	response, err := gateway.post(context, "/auth/change-password", payload, "")
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return apperr.GatewayUnavailable(err)
	}

	switch {
	case response.StatusCode < 300:
		return nil
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return apperr.Unauthorized("Current password is incorrect")
	default:
		return apperr.FromStatus(response.StatusCode, backendMessage(body))
	}
}

/*
ValidateToken asks the backend whether the current access token is still
accepted. Used by the readiness probe, never by the request path.

Parameters:
  - context: context.Context

Returns:
  - bool: Whether the token is valid
  - error: Gateway failures
*/
func (gateway *Gateway) ValidateToken(context context.Context) (bool, error) {
	response, err := gateway.get(context, "/auth/validate-token")
	if err != nil {
		return false, err
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	return response.StatusCode == http.StatusOK, nil
}

// # Transport Plumbing

func (gateway *Gateway) get(context context.Context, path string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(context, http.MethodGet, gateway.baseURL+path, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := gateway.client.Do(request)
	if err != nil {
		return nil, apperr.GatewayUnavailable(err)
	}
	return response, nil
}

// getJSON performs a GET and returns the body of a 2xx response.
func (gateway *Gateway) getJSON(context context.Context, path string) ([]byte, error) {
	response, err := gateway.get(context, path)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, apperr.GatewayUnavailable(err)
	}

	if response.StatusCode >= 400 {
		if response.StatusCode == http.StatusUnauthorized {
			return nil, apperr.Unauthorized("Session no longer valid")
		}
		return nil, apperr.FromStatus(response.StatusCode, backendMessage(body))
	}
	return body, nil
}

// post sends a JSON body. A non-empty authorization overrides whatever the
// signing transport would attach.
func (gateway *Gateway) post(context context.Context, path string, payload []byte, authorization string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, gateway.baseURL+path, body)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if authorization != "" {
		request.Header.Set(constants.HeaderAuthorization, authorization)
	}

	response, err := gateway.client.Do(request)
	if err != nil {
		return nil, apperr.GatewayUnavailable(err)
	}
	return response, nil
}

// backendMessage pulls a human-readable message out of a backend error body.
func backendMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return envelope.Message
}
