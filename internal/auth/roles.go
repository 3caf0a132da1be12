// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sigepsi/portal/internal/platform/constants"
)

// # Canonical Roles

// The portal performs every authorization check against this prefixed,
// canonical vocabulary. Backend spellings are mapped onto it by [Normalize].
const (
	// RoleAdministrador manages user accounts and password-reset requests.
	RoleAdministrador = "ROLE_ADMINISTRADOR"

	// RolePsicologo registers and edits evaluation records.
	RolePsicologo = "ROLE_PSICOLOGO"

	// RoleObservador has read-only access to aggregate reports. It is also
	// the role granted to authenticated accounts with no provisioned roles.
	RoleObservador = "ROLE_OBSERVADOR"
)

// rolePrefix marks a role string as canonical.
const rolePrefix = "ROLE_"

// roleAliases maps historical backend spellings (post-normalization) onto the
// canonical vocabulary. The backend has issued accented, lower-case, and
// unprefixed variants of all of these over the years.
var roleAliases = map[string]string{
	"ADMIN":              RoleAdministrador,
	"ADMINISTRADOR":      RoleAdministrador,
	"ROLE_ADMIN":         RoleAdministrador,
	"ROLE_ADMINISTRADOR": RoleAdministrador,

	"PSICOLOGO":          RolePsicologo,
	"PSICOLOGA":          RolePsicologo,
	"PSICOLOGO_CLINICO":  RolePsicologo,
	"ROLE_PSICOLOGO":     RolePsicologo,

	"OBSERVADOR":      RoleObservador,
	"OBSERVER":        RoleObservador,
	"ROLE_OBSERVADOR": RoleObservador,
}

// # Normalization

// Normalize maps an arbitrary backend role spelling onto the canonical,
// prefixed vocabulary.
//
// # Transformation Pipeline
//
//  1. Normalizes to NFD (decomposes accented chars: Ó → O + combining acute).
//  2. Removes combining marks (accents).
//  3. Trims and collapses internal whitespace to underscores.
//  4. Uppercases and resolves through the alias table.
//  5. Prefixes unknown spellings with "ROLE_" unless already prefixed.
//
// Normalize is idempotent: a canonical role normalizes to itself.
func Normalize(raw string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, raw)

	// 2. Collapse whitespace runs into single underscores
	result = strings.Join(strings.Fields(result), "_")
	if result == "" {
		return ""
	}

	// 3. Uppercase for table lookup
	result = strings.ToUpper(result)

	// 4. Resolve known historical spellings
	if canonical, found := roleAliases[result]; found {
		return canonical
	}

	// 5. Unknown roles keep their name but gain the canonical prefix
	if !strings.HasPrefix(result, rolePrefix) {
		result = rolePrefix + result
	}
	return result
}

// NormalizeAll applies [Normalize] to every element, dropping empties and
// deduplicating while preserving first-seen order.
func NormalizeAll(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))

	for _, r := range raw {
		canonical := Normalize(r)
		if canonical == "" {
			continue
		}
		if _, duplicate := seen[canonical]; duplicate {
			continue
		}
		seen[canonical] = struct{}{}
		result = append(result, canonical)
	}
	return result
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// # Fallback Landing

// FallbackPath chooses the landing view for a role set by fixed priority:
// psychologist landing, else administrator landing, else the reports view for
// any other authenticated role, else login.
//
// The reports step keeps observer-only sessions from bouncing between the
// login redirect and the guest gate.
func FallbackPath(roles []string) string {
	for _, role := range roles {
		if role == RolePsicologo {
			return constants.PathPsicologo
		}
	}

	for _, role := range roles {
		if role == RoleAdministrador {
			return constants.PathAdmin
		}
	}

	if len(roles) > 0 {
		return constants.PathReportes
	}
	return constants.PathLogin
}
