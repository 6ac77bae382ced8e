package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/raffops/auth-management/internal"
)

// Claims is the decoded token payload. The wire field names (grupos,
// permissoes) are part of the token format consumed by existing clients.
type Claims struct {
	Groups      []string `json:"grupos,omitempty"`
	Permissions []string `json:"permissoes,omitempty"`
	Fresh       bool     `json:"fresh,omitempty"`
	Scope       string   `json:"scope"`
	jwt.RegisteredClaims
}

// Codec signs and verifies JWTs with a shared symmetric secret. The secret and
// algorithm come from startup config and are never rotated at runtime.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

func NewCodec(secret, algorithm string) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not HMAC-based", algorithm)
	}
	return &Codec{
		secret: []byte(secret),
		method: method,
	}, nil
}

// Issue signs claims with an expiry of now+ttl and the given scope tag.
func (c *Codec) Issue(claims Claims, ttl time.Duration, scope string) (string, error) {
	now := time.Now()
	claims.Scope = scope
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(c.method, &claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode parses and verifies a token in one step. Signature mismatch,
// malformed structure and expiry all fail; claims are never returned
// unverified.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
