package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every validation failure: bad signature, malformed
// token, unexpected signing method, missing claims, or past expiry. Callers
// treat them all the same (redirect to login), so the cause is not surfaced.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the decoded content of a valid session token.
type Identity struct {
	UserID   int
	Username string
}

// Codec issues and validates signed session tokens. Tokens are self-contained;
// nothing is stored server-side, so logout cannot revoke an already issued token.
type Codec struct {
	secret []byte
	ttl    time.Duration

	now func() time.Time
}

// NewCodec returns a Codec signing with secret. Tokens expire ttl after issuance.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token carrying the user id, username, and expiry.
func (c *Codec) Issue(userID int, username string) (string, error) {
	claims := jwt.MapClaims{
		"id":       userID,
		"username": username,
		"exp":      c.now().Add(c.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Validate parses and verifies tokenStr and returns the identity it carries.
// Any failure maps to ErrInvalidToken.
func (c *Codec) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: int(id), Username: username}, nil
}
