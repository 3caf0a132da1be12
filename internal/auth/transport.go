// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/sigepsi/portal/internal/platform/constants"
)

// # Endpoint Classification

// isAuthEndpoint reports whether path is a credential-exchange endpoint.
// These carry their own authorization semantics: login is anonymous and
// refresh signs with the refresh token, so neither is signed with the access
// token nor retried on 401.
func isAuthEndpoint(path string) bool {
	return strings.HasSuffix(path, "/auth/login") ||
		strings.HasSuffix(path, "/auth/refresh-token")
}

// # Request Signer

// SigningTransport attaches the session's bearer credential to every
// outbound backend request.
//
// Requests that already carry an Authorization header, target an auth
// endpoint, or belong to an unauthenticated session pass through untouched.
type SigningTransport struct {
	Base    http.RoundTripper
	Manager *Manager
}

// RoundTrip implements http.RoundTripper.
func (transport *SigningTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	if request.Header.Get(constants.HeaderAuthorization) != "" ||
		isAuthEndpoint(request.URL.Path) ||
		!transport.Manager.IsAuthenticated() {
		return transport.Base.RoundTrip(request)
	}

	signed := request.Clone(request.Context())
	signed.Header.Set(constants.HeaderAuthorization,
		transport.Manager.TokenType()+" "+transport.Manager.AccessToken())
	return transport.Base.RoundTrip(signed)
}

// # 401 Recovery Coordinator

// RecoveryTransport transparently recovers from expired-token rejections.
//
// On a 401 from a non-auth endpoint it runs one token refresh and replays
// the original request once with the new credential. Concurrent 401s share
// a single refresh cycle: the first caller becomes the refresher, the rest
// block on the cycle's completion and replay with its outcome.
//
// # Invariant
//
// At most one refresh call is in flight per session at any moment.
type RecoveryTransport struct {
	Base    http.RoundTripper
	Manager *Manager
	Logger  *slog.Logger

	mu         sync.Mutex
	refreshing bool
	done       chan struct{}
}

// RoundTrip implements http.RoundTripper.
func (transport *RecoveryTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	// Replaying needs a rewindable body. Small JSON payloads only on this
	// path, so buffering in memory is fine.
	if request.Body != nil && request.GetBody == nil {
		payload, err := io.ReadAll(request.Body)
		request.Body.Close()
		if err != nil {
			return nil, err
		}
		request.Body = io.NopCloser(bytes.NewReader(payload))
		request.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}

	response, err := transport.Base.RoundTrip(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusUnauthorized || isAuthEndpoint(request.URL.Path) {
		return response, nil
	}

	if !transport.awaitRefresh(request) {
		// Recovery did not produce a usable credential for this caller; the
		// original rejection stands so it sees the truthful status.
		return response, nil
	}

	// The original response is superseded; release its connection.
	io.Copy(io.Discard, response.Body)
	response.Body.Close()

	retry := request.Clone(request.Context())
	if request.GetBody != nil {
		body, err := request.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set(constants.HeaderAuthorization,
		transport.Manager.TokenType()+" "+transport.Manager.AccessToken())

	transport.Logger.Debug("retrying_after_refresh",
		slog.String("method", request.Method),
		slog.String("path", request.URL.Path),
	)
	return transport.Base.RoundTrip(retry)
}

// awaitRefresh ensures one refresh cycle runs and reports whether the
// session is authenticated afterwards. Callers arriving during an in-flight
// cycle wait for it instead of starting their own.
//
// Only the refresher may clear the session, and only when its own cycle
// fails or no refresh credential exists. A waiter whose context is canceled
// mid-cycle just gives up on its request; the cycle it was queued behind may
// still succeed for everyone else.
func (transport *RecoveryTransport) awaitRefresh(request *http.Request) bool {
	transport.mu.Lock()
	if transport.refreshing {
		done := transport.done
		transport.mu.Unlock()

		select {
		case <-done:
			return transport.Manager.IsAuthenticated()
		case <-request.Context().Done():
			return false
		}
	}

	transport.refreshing = true
	transport.done = make(chan struct{})
	done := transport.done
	transport.mu.Unlock()

	succeeded := false
	if transport.Manager.RefreshToken() == "" {
		transport.Logger.Info("token_rejected_no_refresh_token")
	} else if err := transport.Manager.Refresh(request.Context()); err != nil {
		transport.Logger.Warn("token_refresh_failed", slog.Any("error", err))
	} else {
		succeeded = transport.Manager.IsAuthenticated()
	}

	if !succeeded {
		// Detached context: the persisted entries must go even when the
		// request that triggered the cycle has already been canceled.
		transport.Manager.Clear(context.WithoutCancel(request.Context()))
	}

	transport.mu.Lock()
	transport.refreshing = false
	transport.mu.Unlock()
	close(done)

	return succeeded
}
