package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/scpnet/authserver/types"
)

// DefaultTokenTTL is the token lifetime used when none is configured.
const DefaultTokenTTL = time.Hour

var (
	// ErrNoToken signals a missing or malformed Authorization header.
	ErrNoToken = errors.New("no token provided")

	// ErrInvalidToken signals a token whose signature or structure does
	// not check out.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired signals a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the payload carried inside an issued token.
type Claims struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	AccessLevel string `json:"accessLevel"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies compact bearer tokens with a shared
// HMAC secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec constructs a codec. A zero ttl falls back to
// DefaultTokenTTL; negative values are kept as-is so tests can mint
// already-expired tokens.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token carrying the user's identity and access level,
// valid for the codec TTL.
func (c *TokenCodec) Issue(user types.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      user.ID,
		Username:    user.Username,
		AccessLevel: user.AccessLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses and validates a token. Signature integrity is checked
// before expiry, so a forged token fails with ErrInvalidToken even when
// its expiry has also passed, while a genuine stale token fails with
// ErrTokenExpired.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrInvalidToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrInvalidToken
		}
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
