// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sigepsi/portal/internal/platform/constants"
)

// # Session Registry

// BrowserSession is one browser's fully wired auth stack: the session
// manager, its backend auth client, and an HTTP client whose transport
// signs requests and recovers 401s against that same manager.
type BrowserSession struct {
	ID      string
	Manager *Manager
	Gateway *Gateway

	// Client is the signed, 401-recovering HTTP client. The proxy layer uses
	// it for every records-backend call made on this session's behalf.
	Client *http.Client
}

type hubEntry struct {
	session  *BrowserSession
	lastSeen time.Time
}

// Hub hands out wired [BrowserSession] instances keyed by session cookie.
//
// Sessions are built lazily on first sight of a cookie and evicted after
// sitting idle; eviction only drops in-memory wiring, never persisted tokens.
type Hub struct {
	mu      sync.Mutex
	entries map[string]*hubEntry

	baseURL  string
	newStore func(sessionID string) TokenStore
	base     http.RoundTripper
	logger   *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHub creates the session registry and starts its idle sweeper.
//
// # Parameters
//   - baseURL: Records backend base URL.
//   - newStore: Factory producing a per-session [TokenStore].
//   - base: Underlying transport for backend calls; nil means http.DefaultTransport.
//   - logger: Structured logger.
func NewHub(baseURL string, newStore func(sessionID string) TokenStore, base http.RoundTripper, logger *slog.Logger) *Hub {
	if base == nil {
		base = http.DefaultTransport
	}

	hub := &Hub{
		entries:  make(map[string]*hubEntry),
		baseURL:  baseURL,
		newStore: newStore,
		base:     base,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	go hub.sweep()
	return hub
}

/*
Session returns the wired session for sessionID, building it on first use.

Description: A freshly built session restores any persisted token set before
it is returned, so a portal restart is invisible to signed-in browsers.

Parameters:
  - context: context.Context
  - sessionID: string
*/
func (hub *Hub) Session(context context.Context, sessionID string) *BrowserSession {
	hub.mu.Lock()
	if entry, present := hub.entries[sessionID]; present {
		entry.lastSeen = time.Now()
		session := entry.session
		hub.mu.Unlock()
		return session
	}
	hub.mu.Unlock()

	// Built outside the lock: wiring touches Redis via Restore.
	session := hub.build(context, sessionID)

	hub.mu.Lock()
	defer hub.mu.Unlock()

	// Lost a race with a concurrent first request for the same cookie.
	if entry, present := hub.entries[sessionID]; present {
		entry.lastSeen = time.Now()
		return entry.session
	}
	hub.entries[sessionID] = &hubEntry{session: session, lastSeen: time.Now()}
	return session
}

// Count reports the number of live in-memory sessions. Feeds the
// active-sessions gauge.
func (hub *Hub) Count() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.entries)
}

// Close stops the idle sweeper.
func (hub *Hub) Close() {
	hub.stopOnce.Do(func() { close(hub.stop) })
}

// # Wiring

// build assembles one browser session's auth stack. The manager must exist
// before the transports, and the transports before the gateway, hence the
// two-phase AttachGateway.
func (hub *Hub) build(context context.Context, sessionID string) *BrowserSession {
	logger := hub.logger.With(slog.String("session_id", sessionID))

	manager := NewManager(hub.newStore(sessionID), logger)

	transport := &RecoveryTransport{
		Base:    &SigningTransport{Base: hub.base, Manager: manager},
		Manager: manager,
		Logger:  logger,
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   constants.GatewayRequestTimeout,
	}

	gateway := NewGateway(hub.baseURL, client, logger)
	manager.AttachGateway(gateway)
	manager.Restore(context)

	return &BrowserSession{
		ID:      sessionID,
		Manager: manager,
		Gateway: gateway,
		Client:  client,
	}
}

// sweep drops sessions that have not been seen for a while.
func (hub *Hub) sweep() {
	ticker := time.NewTicker(constants.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-hub.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-constants.SessionIdleEviction)

			hub.mu.Lock()
			for sessionID, entry := range hub.entries {
				if entry.lastSeen.Before(cutoff) {
					delete(hub.entries, sessionID)
				}
			}
			hub.mu.Unlock()
		}
	}
}
