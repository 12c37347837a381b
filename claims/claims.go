// Package claims reads bearer token payloads for display and expiry bookkeeping.
// Signatures are never verified here; that is the job of the backend and the
// identity provider.
package claims

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-school-client/internal/utils"
)

// Claims maps claim names to their decoded JSON values.
type Claims map[string]any

// Decode returns the claims of raw, or nil when raw is not a well formed token.
func Decode(raw string) Claims {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parser := jwt.NewParser(jwt.WithJSONNumber())
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return Claims(mapClaims)
}

// Expiry returns the exp claim as a time.
func (c Claims) Expiry() (time.Time, bool) {
	secs, ok := c.number("exp")
	if !ok {
		return time.Time{}, false
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), true
}

// ExpiredAt reports whether the token is unusable at now. A token without an
// exp claim is treated as expired.
func (c Claims) ExpiredAt(now time.Time) bool {
	exp, ok := c.Expiry()
	if !ok {
		return true
	}
	return !now.Before(exp)
}

// UserID is the identifier used as a correlation key for backend lookups.
func (c Claims) UserID() string {
	for _, name := range []string{"userId", "preferred_username", "sub"} {
		if v := c.String(name); v != "" {
			return v
		}
	}
	return ""
}

// Roles returns the roles claim, falling back to Keycloak's realm_access.roles.
func (c Claims) Roles() []string {
	if roles, ok := c["roles"].([]any); ok {
		return utils.ToStringSlice(roles)
	}
	if realm, ok := c["realm_access"].(map[string]any); ok {
		if roles, ok := realm["roles"].([]any); ok {
			return utils.ToStringSlice(roles)
		}
	}
	return nil
}

// String returns a string claim or "" when absent or of another type.
func (c Claims) String(name string) string {
	s, _ := c[name].(string)
	return s
}

func (c Claims) number(name string) (float64, bool) {
	switch v := c[name].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
