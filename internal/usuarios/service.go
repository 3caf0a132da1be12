// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package usuarios relays the user-account administration endpoints.

Mounted behind the administrator gate only. Account records, like every
proxied resource, pass through unmodified; the portal checks identifiers and
request shape, never account semantics.
*/
package usuarios

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sigepsi/portal/internal/platform/relay"
	"github.com/sigepsi/portal/internal/platform/validate"
)

// Service proxies account-administration calls.
type Service struct {
	baseURL string
}

// NewService creates the account-administration proxy service.
func NewService(baseURL string) *Service {
	return &Service{baseURL: baseURL}
}

// List relays the account list with filter query passthrough.
func (service *Service) List(context context.Context, client *http.Client, query url.Values) (*relay.Result, error) {
	return relay.Do(context, client, http.MethodGet, service.baseURL+"/usuarios", query, nil)
}

// Get relays one account record.
func (service *Service) Get(context context.Context, client *http.Client, id string) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Required("id", id).Err(); err != nil {
		return nil, err
	}
	return relay.Do(context, client, http.MethodGet, service.baseURL+"/usuarios/"+url.PathEscape(id), nil, nil)
}

// Create relays an account creation payload.
func (service *Service) Create(context context.Context, client *http.Client, payload []byte) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Custom("body", len(payload) == 0, "Request body is required").Err(); err != nil {
		return nil, err
	}
	return relay.Do(context, client, http.MethodPost, service.baseURL+"/usuarios", nil, payload)
}

// Update relays an account update payload.
func (service *Service) Update(context context.Context, client *http.Client, id string, payload []byte) (*relay.Result, error) {
	v := &validate.Validator{}
	v.Required("id", id)
	v.Custom("body", len(payload) == 0, "Request body is required")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return relay.Do(context, client, http.MethodPut, service.baseURL+"/usuarios/"+url.PathEscape(id), nil, payload)
}

// SetActive relays an account activation or deactivation.
func (service *Service) SetActive(context context.Context, client *http.Client, id string, active bool) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Required("id", id).Err(); err != nil {
		return nil, err
	}

	action := "/activar"
	if !active {
		action = "/desactivar"
	}
	return relay.Do(context, client, http.MethodPost, service.baseURL+"/usuarios/"+url.PathEscape(id)+action, nil, nil)
}

// ListPasswordRequests relays the pending password-reset request queue.
func (service *Service) ListPasswordRequests(context context.Context, client *http.Client) (*relay.Result, error) {
	return relay.Do(context, client, http.MethodGet, service.baseURL+"/usuarios/solicitudes-password", nil, nil)
}

// ResolvePasswordRequest approves or rejects one password-reset request.
func (service *Service) ResolvePasswordRequest(context context.Context, client *http.Client, id string, approve bool) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Required("id", id).Err(); err != nil {
		return nil, err
	}

	action := "/aprobar"
	if !approve {
		action = "/rechazar"
	}
	return relay.Do(context, client, http.MethodPost,
		service.baseURL+"/usuarios/solicitudes-password/"+url.PathEscape(id)+action, nil, nil)
}
