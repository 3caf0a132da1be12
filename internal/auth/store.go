// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"context"
	"sync"
)

// # Token Persistence

// TokenStore is the flat key-value store holding one browser session's raw
// credentials across portal restarts.
//
// # Contract
//
// Both operations are total: they never return errors and never panic. An
// unavailable backing store reads as "no entry" and silently drops writes —
// the session layer, not the store, decides token validity, so the worst
// outcome of a store outage is a logged-out session.
type TokenStore interface {

	/*
		Get returns the stored value for key, or "" when absent.

		Parameters:
		  - context: context.Context
		  - key: string
	*/
	Get(context context.Context, key string) string

	/*
		Set stores value under key. An empty value deletes the entry.

		Parameters:
		  - context: context.Context
		  - key: string
		  - value: string
	*/
	Set(context context.Context, key string, value string)
}

// # In-Memory Implementation

// MemoryStore implements [TokenStore] with a mutex-guarded map.
//
// Used in tests and as the degraded-mode fallback when Redis is not
// configured; entries do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get returns the stored value for key, or "" when absent.
func (store *MemoryStore) Get(_ context.Context, key string) string {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.entries[key]
}

// Set stores value under key. An empty value deletes the entry.
func (store *MemoryStore) Set(_ context.Context, key string, value string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if value == "" {
		delete(store.entries, key)
		return
	}
	store.entries[key] = value
}

// Len reports the number of stored entries. Test helper.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.entries)
}
