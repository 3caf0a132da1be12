// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package auth

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// # Loose Response Envelopes

// tokenEnvelope is the normalized view of a login or refresh response.
//
// The backend has shipped several envelope generations: a bare token string,
// and JSON objects using different field names for the same concepts. The
// parser scans ordered alias lists rather than binding to one shape.
type tokenEnvelope struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64 // seconds to live, 0 when absent
	ExpiresAt    time.Time
	RefreshToken string
	User         *User
	Roles        []string
}

// Field-name aliases across envelope generations, current names first.
var (
	accessTokenAliases  = []string{"accessToken", "access_token", "token", "jwt", "tokenAcceso"}
	tokenTypeAliases    = []string{"tokenType", "token_type", "type", "tipoToken"}
	expiresInAliases    = []string{"expiresIn", "expires_in", "ttl"}
	expiresAtAliases    = []string{"expiresAt", "expires_at", "expiration", "fechaExpiracion"}
	refreshTokenAliases = []string{"refreshToken", "refresh_token", "tokenRefresco"}
	userFieldAliases    = []string{"user", "usuario", "userData", "datosUsuario"}

	usernameFieldAliases = []string{"username", "user_name", "nombreUsuario", "login"}
	emailFieldAliases    = []string{"email", "correo"}
	activeFieldAliases   = []string{"active", "activo", "enabled"}
	roleIDFieldAliases   = []string{"roleId", "role_id", "rolId", "idRol"}
	roleNameFieldAliases = []string{"roleName", "role_name", "nombreRol", "rol"}
)

// parseTokenEnvelope interprets a login or refresh response body.
//
// Accepted shapes, in order:
//   - A JSON object carrying at least an access token under a known alias.
//   - A JSON string (the bare token, quoted).
//   - Plain text (the bare token).
//
// Returns an error when the body purports to be JSON but cannot be parsed,
// or when no access token can be extracted.
func parseTokenEnvelope(body []byte) (tokenEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return tokenEnvelope{}, ErrMalformedTokenResponse
	}

	// Bare quoted string: `"abc.def.ghi"`.
	if trimmed[0] == '"' {
		var bare string
		if err := json.Unmarshal(trimmed, &bare); err != nil || bare == "" {
			return tokenEnvelope{}, ErrMalformedTokenResponse
		}
		return tokenEnvelope{AccessToken: bare}, nil
	}

	// Plain text token (no JSON framing at all).
	if trimmed[0] != '{' {
		return tokenEnvelope{AccessToken: string(trimmed)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return tokenEnvelope{}, ErrMalformedTokenResponse
	}

	envelope := tokenEnvelope{
		AccessToken:  firstString(fields, accessTokenAliases),
		TokenType:    firstString(fields, tokenTypeAliases),
		ExpiresIn:    firstInteger(fields, expiresInAliases),
		RefreshToken: firstString(fields, refreshTokenAliases),
		Roles:        rawRoles(fields),
	}

	if envelope.AccessToken == "" {
		return tokenEnvelope{}, ErrMalformedTokenResponse
	}

	// Explicit expiry instant: epoch seconds or milliseconds (disambiguated
	// by magnitude, same as the claim decoder's posture) or RFC 3339.
	if number := firstInteger(fields, expiresAtAliases); number > 0 {
		envelope.ExpiresAt = epochToTime(number)
	} else if stamp := firstString(fields, expiresAtAliases); stamp != "" {
		if parsed, err := time.Parse(time.RFC3339, stamp); err == nil {
			envelope.ExpiresAt = parsed
		}
	}

	for _, alias := range userFieldAliases {
		if raw, present := fields[alias]; present {
			if user, ok := parseUserPayload(raw); ok {
				envelope.User = user
				break
			}
		}
	}

	return envelope, nil
}

// # User Payloads

// parseUserPayload interprets a user object under any historical field
// convention. It tolerates a surrounding {"data": ...} envelope, which the
// current backend generation wraps every resource in.
func parseUserPayload(raw json.RawMessage) (*User, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}

	// Unwrap a single data/user envelope level.
	for _, wrapper := range []string{"data", "user", "usuario"} {
		if inner, present := fields[wrapper]; present && len(fields) <= 2 {
			if user, ok := parseUserPayload(inner); ok {
				return user, true
			}
		}
	}

	user := &User{
		ID:       firstInteger(fields, idClaimAliases),
		Username: firstString(fields, usernameFieldAliases),
		Email:    firstString(fields, emailFieldAliases),
		RoleID:   firstInteger(fields, roleIDFieldAliases),
		RoleName: firstString(fields, roleNameFieldAliases),
		Active:   true,
		Roles:    NormalizeAll(rawRoles(fields)),
	}

	// The active flag defaults to true: most backend generations omit it for
	// accounts that can log in at all.
	for _, alias := range activeFieldAliases {
		if raw, present := fields[alias]; present {
			var active bool
			if err := json.Unmarshal(raw, &active); err == nil {
				user.Active = active
				break
			}
		}
	}

	if user.ID == 0 && user.Username == "" && len(user.Roles) == 0 {
		return nil, false
	}
	return user, true
}

// rawRoles collects role spellings from every known role field of a JSON
// object, concatenating across aliases exactly like the claim decoder.
func rawRoles(fields map[string]json.RawMessage) []string {
	var collected []string

	for _, alias := range roleClaimAliases {
		raw, present := fields[alias]
		if !present {
			continue
		}

		var value interface{}
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}

		switch typed := value.(type) {
		case string:
			if alias == "scope" {
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

// epochToTime interprets a positive epoch value as seconds or milliseconds.
// Values below 1e12 are seconds: epoch milliseconds crossed that threshold
// in 2001, epoch seconds will not until the year 33658.
func epochToTime(value int64) time.Time {
	if value < 1_000_000_000_000 {
		return time.Unix(value, 0)
	}
	return time.UnixMilli(value)
}

// # Field Scanning Helpers

// firstString returns the first non-empty string field among aliases.
func firstString(fields map[string]json.RawMessage, aliases []string) string {
	for _, alias := range aliases {
		raw, present := fields[alias]
		if !present {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
	}
	return ""
}

// firstInteger returns the first numeric field among aliases, tolerating
// numbers serialized as strings. 0 means "not present".
func firstInteger(fields map[string]json.RawMessage, aliases []string) int64 {
	for _, alias := range aliases {
		raw, present := fields[alias]
		if !present {
			continue
		}

		var number json.Number
		if err := json.Unmarshal(raw, &number); err == nil {
			if value, err := number.Int64(); err == nil {
				return value
			}
			if value, err := number.Float64(); err == nil {
				return int64(value)
			}
			continue
		}

		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			if value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
				return value
			}
		}
	}
	return 0
}
