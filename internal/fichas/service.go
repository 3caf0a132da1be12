// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package fichas relays the multi-step psychological evaluation form endpoints.

A "ficha" is the evaluation record: it is opened as a draft, filled in one
numbered section at a time, and finalized once complete. The portal validates
only identifiers and request shape — clinical content is the backend's
domain and passes through untouched.
*/
package fichas

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sigepsi/portal/internal/platform/relay"
	"github.com/sigepsi/portal/internal/platform/validate"
)

// SectionCount is the number of steps in the evaluation form.
const SectionCount = 8

// Service proxies evaluation-form calls for one request's browser session.
type Service struct {
	baseURL string
}

// NewService creates the evaluation-form proxy service.
func NewService(baseURL string) *Service {
	return &Service{baseURL: baseURL}
}

/*
List relays the evaluation list, passing filter/pagination query through.

Parameters:
  - context: context.Context
  - client: *http.Client (the session's signed client)
  - query: url.Values

Returns:
  - *relay.Result: Backend status and payload
  - error: Transport failures only
*/
func (service *Service) List(context context.Context, client *http.Client, query url.Values) (*relay.Result, error) {
	return relay.Do(context, client, http.MethodGet, service.baseURL+"/fichas", query, nil)
}

/*
Get relays one evaluation record.

Parameters:
  - context: context.Context
  - client: *http.Client
  - id: string

Returns:
  - *relay.Result: Backend status and payload
  - error: Validation or transport failures
*/
func (service *Service) Get(context context.Context, client *http.Client, id string) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Required("id", id).Err(); err != nil {
		return nil, err
	}
	return relay.Do(context, client, http.MethodGet, service.baseURL+"/fichas/"+url.PathEscape(id), nil, nil)
}

/*
CreateDraft opens a new evaluation draft.

Parameters:
  - context: context.Context
  - client: *http.Client
  - payload: []byte (evaluee identification, relayed as-is)

Returns:
  - *relay.Result: Backend status and payload
  - error: Validation or transport failures
*/
func (service *Service) CreateDraft(context context.Context, client *http.Client, payload []byte) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Custom("body", len(payload) == 0, "Request body is required").Err(); err != nil {
		return nil, err
	}
	return relay.Do(context, client, http.MethodPost, service.baseURL+"/fichas", nil, payload)
}

/*
SaveSection stores one numbered section of a draft evaluation.

Parameters:
  - context: context.Context
  - client: *http.Client
  - id: string
  - section: int (1-based step number)
  - payload: []byte (section answers, relayed as-is)

Returns:
  - *relay.Result: Backend status and payload
  - error: Validation or transport failures
*/
func (service *Service) SaveSection(context context.Context, client *http.Client, id string, section int, payload []byte) (*relay.Result, error) {
	v := &validate.Validator{}
	v.Required("id", id)
	v.Range("seccion", section, 1, SectionCount)
	v.Custom("body", len(payload) == 0, "Request body is required")
	if err := v.Err(); err != nil {
		return nil, err
	}

	target := fmt.Sprintf("%s/fichas/%s/secciones/%d", service.baseURL, url.PathEscape(id), section)
	return relay.Do(context, client, http.MethodPut, target, nil, payload)
}

/*
Finalize closes a draft evaluation; the backend rejects incomplete drafts.

Parameters:
  - context: context.Context
  - client: *http.Client
  - id: string

Returns:
  - *relay.Result: Backend status and payload
  - error: Validation or transport failures
*/
func (service *Service) Finalize(context context.Context, client *http.Client, id string) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Required("id", id).Err(); err != nil {
		return nil, err
	}
	return relay.Do(context, client, http.MethodPost, service.baseURL+"/fichas/"+url.PathEscape(id)+"/finalizar", nil, nil)
}
