// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package reportes relays the aggregate report endpoints.

Reports are the observer role's whole surface: read-only summaries and
per-unit breakdowns with no record-level detail. Any authenticated role may
read them.
*/
package reportes

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sigepsi/portal/internal/platform/relay"
	"github.com/sigepsi/portal/internal/platform/validate"
)

// Service proxies aggregate-report calls.
type Service struct {
	baseURL string
}

// NewService creates the report proxy service.
func NewService(baseURL string) *Service {
	return &Service{baseURL: baseURL}
}

// Summary relays the global evaluation summary, query passthrough included
// (date ranges, evaluation states).
func (service *Service) Summary(context context.Context, client *http.Client, query url.Values) (*relay.Result, error) {
	return relay.Do(context, client, http.MethodGet, service.baseURL+"/reportes/resumen", query, nil)
}

// UnitBreakdown relays the per-unit breakdown for one military unit.
func (service *Service) UnitBreakdown(context context.Context, client *http.Client, unit string, query url.Values) (*relay.Result, error) {
	v := &validate.Validator{}
	if err := v.Required("unidad", unit).Err(); err != nil {
		return nil, err
	}
	return relay.Do(context, client, http.MethodGet,
		service.baseURL+"/reportes/unidades/"+url.PathEscape(unit), query, nil)
}
