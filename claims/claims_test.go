package claims_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-school-client/claims"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, c jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	raw := signed(t, jwt.MapClaims{
		"exp":                exp.Unix(),
		"userId":             "T001",
		"preferred_username": "t001",
		"roles":              []string{"student"},
	})

	c := claims.Decode(raw)
	require.NotNil(t, c)

	got, ok := c.Expiry()
	require.True(t, ok)
	require.True(t, exp.Equal(got))
	require.Equal(t, "T001", c.UserID())
	require.Equal(t, []string{"student"}, c.Roles())
}

func TestDecodeIgnoresSignature(t *testing.T) {
	raw := signed(t, jwt.MapClaims{"sub": "abc"})
	tampered := raw[:len(raw)-4] + "AAAA"
	require.Equal(t, "abc", claims.Decode(tampered).UserID())
}

func TestDecodeMalformed(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":`))
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	tests := map[string]string{
		"empty":          "",
		"whitespace":     "   ",
		"not a jwt":      "opaque-token",
		"two segments":   "a.b",
		"bad base64":     "!!.??.sig",
		"truncated json": header + "." + payload + ".sig",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			require.NotPanics(t, func() {
				require.Nil(t, claims.Decode(raw))
			})
		})
	}
}

func TestExpiredAt(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	c := claims.Decode(signed(t, jwt.MapClaims{"exp": exp.Unix()}))

	require.False(t, c.ExpiredAt(exp.Add(-time.Second)))
	require.True(t, c.ExpiredAt(exp))
	require.True(t, c.ExpiredAt(exp.Add(time.Second)))

	require.True(t, claims.Claims{}.ExpiredAt(exp), "missing exp is expired")
	require.True(t, claims.Claims(nil).ExpiredAt(exp))
}

func TestUserIDFallback(t *testing.T) {
	require.Equal(t, "jane", claims.Claims{"preferred_username": "jane", "sub": "42"}.UserID())
	require.Equal(t, "42", claims.Claims{"sub": "42"}.UserID())
	require.Equal(t, "", claims.Claims{"userId": 7}.UserID())
}

func TestRealmRoles(t *testing.T) {
	c := claims.Decode(signed(t, jwt.MapClaims{
		"realm_access": map[string]any{"roles": []string{"faculty", "offline_access"}},
	}))
	require.Equal(t, []string{"faculty", "offline_access"}, c.Roles())
}
