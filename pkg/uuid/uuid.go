// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package uuid provides time-ordered unique identifiers for the portal.

It wraps the standard UUID library to specifically generate Version 7 values,
which are optimized for key-value scans.

Advantages:

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Friendly: Session keys sharing a time prefix group together in Redis scans.
  - Compact: 128-bit storage, compatible with standard 'uuid' types.

This is the identifier type for browser sessions and request correlation IDs.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// Create a new version 7 UUID (time-sortable)
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUID: " + err.Error())
	}

	// Convert the UUID to a string
	return id.String()
}

// # Validation

// IsValid reports whether value parses as a UUID of any version.
//
// Used to reject forged or truncated session cookies before they reach the
// session hub.
func IsValid(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
