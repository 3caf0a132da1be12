// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Claims

// Claims is the identity snapshot extracted from a bearer token's payload.
//
// # Trust Model
//
// The portal never verifies token signatures — issuance and verification are
// the backend's job. Claims are decoded purely to render identity and roles
// without a network round trip; every privileged operation is still enforced
// server-side.
type Claims struct {
	// Subject is the username claim, best-effort across historical spellings.
	Subject string

	// ID is the numeric account identifier, 0 when no id claim is present.
	ID int64

	// Roles is the canonical, deduplicated role set.
	Roles []string

	// ExpiresAt is the token's own expiry instant, zero when absent.
	ExpiresAt time.Time
}

// Claim-name aliases accumulated across backend generations. Order matters:
// current names first, legacy Spanish-language names after.
var (
	roleClaimAliases    = []string{"roles", "authorities", "authority", "scope", "permisos", "perfiles", "role", "rol"}
	subjectClaimAliases = []string{"sub", "username", "user_name", "preferred_username", "nombreUsuario", "usuario"}
	idClaimAliases      = []string{"id", "userId", "user_id", "idUsuario", "usuarioId"}
)

// unverifiedParser decodes payloads without signature or expiry validation.
var unverifiedParser = jwt.NewParser()

// DecodeToken parses a bearer token's self-contained claims without
// contacting the network.
//
// Returns:
//   - Claims: Extracted identity snapshot (zero value on failure)
//   - bool: false when the token payload cannot be decoded
//
// Decode failures are never propagated as errors — callers proceed with the
// empty snapshot, which downstream resolves to minimal-privilege access.
func DecodeToken(raw string) (Claims, bool) {
	payload := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(raw, payload); err != nil {
		return Claims{}, false
	}

	claims := Claims{
		Subject: firstStringClaim(payload, subjectClaimAliases),
		ID:      firstNumericClaim(payload, idClaimAliases),
		Roles:   NormalizeAll(collectRoleClaims(payload)),
	}

	// Expiry claims are seconds-since-epoch per RFC 7519.
	if seconds, found := numericValue(payload["exp"]); found && seconds > 0 {
		claims.ExpiresAt = time.UnixMilli(int64(seconds * 1000))
	}

	return claims, true
}

// # Claim Extraction

// collectRoleClaims gathers every role-bearing claim across the alias list.
//
// It deliberately concatenates ALL candidates instead of stopping at the
// first match: different backend versions have populated different fields,
// and some responses carry both "roles" and "authorities".
func collectRoleClaims(payload jwt.MapClaims) []string {
	var collected []string

	for _, alias := range roleClaimAliases {
		value, present := payload[alias]
		if !present {
			continue
		}

		switch typed := value.(type) {
		case string:
			if alias == "scope" {
				// OAuth-style scope: a single space-separated string.
				collected = append(collected, strings.Fields(typed)...)
			} else if typed != "" {
				collected = append(collected, typed)
			}
		case []interface{}:
			for _, element := range typed {
				if name := roleName(element); name != "" {
					collected = append(collected, name)
				}
			}
		}
	}
	return collected
}

// roleName resolves a role list element, which may be a plain string or an
// object exposing a name-like field.
func roleName(element interface{}) string {
	switch typed := element.(type) {
	case string:
		return typed
	case map[string]interface{}:
		for _, key := range []string{"authority", "name", "nombre", "rol", "role"} {
			if name, ok := typed[key].(string); ok && name != "" {
				return name
			}
		}
	}
	return ""
}

// firstStringClaim returns the first non-empty string claim among aliases.
func firstStringClaim(payload jwt.MapClaims, aliases []string) string {
	for _, alias := range aliases {
		if value, ok := payload[alias].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// firstNumericClaim returns the first numeric claim among aliases, truncated
// to an integer identifier. 0 means "not present".
func firstNumericClaim(payload jwt.MapClaims, aliases []string) int64 {
	for _, alias := range aliases {
		if value, found := numericValue(payload[alias]); found {
			return int64(value)
		}
	}
	return 0
}

// numericValue extracts a float from a decoded JSON claim value.
//
// encoding/json decodes every JSON number as float64; some legacy tokens
// carry numeric identifiers as strings, which are tolerated too.
func numericValue(value interface{}) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case string:
		parsed, err := strconv.ParseFloat(typed, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
