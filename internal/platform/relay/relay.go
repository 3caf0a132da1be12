// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package relay performs proxied calls to the records backend on behalf of a
browser session.

The proxy layer never interprets resource payloads — the backend's JSON is
relayed to the front-end byte for byte, status code included. Only transport
failures are translated, into the portal's own error taxonomy.
*/
package relay

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/sigepsi/portal/internal/platform/apperr"
)

// Result is a completed backend exchange: the status and raw body to relay.
type Result struct {
	Status int
	Body   []byte
}

/*
Do executes one backend call through the session's signed, 401-recovering
HTTP client and captures the response for relaying.

Parameters:
  - context: context.Context
  - client: *http.Client (the browser session's wired client)
  - method: string
  - target: string (absolute backend URL)
  - query: url.Values (nil for none)
  - payload: []byte (nil for no body)

Returns:
  - *Result: Backend status and raw body, whatever they are
  - error: apperr.GatewayUnavailable on transport failure
*/
func Do(context context.Context, client *http.Client, method, target string, query url.Values, payload []byte) (*Result, error) {
	if len(query) > 0 {
		target = target + "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(context, method, target, body)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return nil, apperr.GatewayUnavailable(err)
	}
	defer response.Body.Close()

	captured, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, apperr.GatewayUnavailable(err)
	}

	return &Result{Status: response.StatusCode, Body: captured}, nil
}
