// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package auth implements the portal's session core: token persistence, claim
decoding, role canonicalization, session state, request signing, and
transparent 401 recovery.

It consumes whatever token shape the records backend returns — issuance,
verification, and revocation all live server-side.

# Architecture

  - Manager: Exclusive owner of one browser session's mutable state.
  - Gateway: HTTP client for the backend auth endpoints.
  - Transports: RoundTripper layers signing requests and recovering 401s.
  - Hub: Browser-cookie registry handing out wired sessions.
*/
package auth

// # Domain Entities

// User is the cached identity snapshot of the signed-in account.
//
// It is assembled from decoded token claims and the backend's current-user
// record, with the network response taking precedence field-by-field. It is
// never persisted — only the raw tokens survive a portal restart.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	RoleID   int64  `json:"role_id,omitempty"`
	RoleName string `json:"role_name,omitempty"`
	Active   bool   `json:"active"`

	// Roles is the canonical, deduplicated role set. Order carries no meaning.
	Roles []string `json:"roles"`
}

// mergeUsers combines a token-derived fallback identity with a primary
// identity (login envelope user or current-user response).
//
// Non-empty primary fields win field-by-field; the fallback fills whatever
// the primary omits. The two role sets are unioned and re-normalized.
func mergeUsers(fallback, primary *User) *User {
	if primary == nil {
		if fallback == nil {
			return nil
		}
		clone := *fallback
		clone.Roles = NormalizeAll(fallback.Roles)
		return &clone
	}

	merged := *primary
	if fallback != nil {
		if merged.ID == 0 {
			merged.ID = fallback.ID
		}
		if merged.Username == "" {
			merged.Username = fallback.Username
		}
		if merged.Email == "" {
			merged.Email = fallback.Email
		}
		if merged.RoleID == 0 {
			merged.RoleID = fallback.RoleID
		}
		if merged.RoleName == "" {
			merged.RoleName = fallback.RoleName
		}
		if !merged.Active {
			merged.Active = fallback.Active
		}
		merged.Roles = NormalizeAll(append(append([]string{}, primary.Roles...), fallback.Roles...))
	} else {
		merged.Roles = NormalizeAll(primary.Roles)
	}
	return &merged
}

// ensureIdentity guarantees an established session always carries a user
// snapshot. Opaque tokens that decode to nothing, envelopes without an
// embedded user, and a failed current-user follow-up can all leave the merge
// empty; such sessions degrade to an active account with zero roles, which
// the role accessors treat as observer-tier.
func ensureIdentity(user *User) *User {
	if user != nil {
		return user
	}
	return &User{Active: true}
}

// userFromClaims builds the token-derived fallback identity.
func userFromClaims(claims Claims) *User {
	if claims.Subject == "" && claims.ID == 0 && len(claims.Roles) == 0 {
		return nil
	}
	return &User{
		ID:       claims.ID,
		Username: claims.Subject,
		Active:   true,
		Roles:    claims.Roles,
	}
}
