package token

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs access tokens and hands the parser the key to check them with.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
	Method() jwt.SigningMethod
	// Keyfunc is a jwt.Keyfunc for tokens this signer produced.
	Keyfunc(token *jwt.Token) (any, error)
}

// HMACSigner signs with HS256 and a shared secret. Tokens carry a kid derived
// from the secret so a token minted under a previous secret is rejected with
// a clear reason instead of a bare signature mismatch.
type HMACSigner struct {
	secret []byte
	kid    string
}

var _ Signer = (*HMACSigner)(nil)

func NewHMACSigner(secret string) *HMACSigner {
	sum := sha256.Sum256([]byte(secret))
	return &HMACSigner{
		secret: []byte(secret),
		kid:    hex.EncodeToString(sum[:4]),
	}
}

// KeyID is the kid header placed on every token.
func (h *HMACSigner) KeyID() string {
	return h.kid
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = h.kid
	signed, err := t.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (h *HMACSigner) Method() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

func (h *HMACSigner) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	if kid, ok := t.Header["kid"].(string); ok && kid != h.kid {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return h.secret, nil
}
