package auth

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 24 * time.Hour

// Claims is the identity projection embedded in a session token. The token
// is self-contained: resolving a request needs no database read.
type Claims struct {
	jwt.RegisteredClaims
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	IsVerified   bool   `json:"isVerified"`
	IsTwoFacAuth bool   `json:"isTwoFacAuth"`
}

// NewClaims projects a user onto token claims.
func NewClaims(u *User) Claims {
	return Claims{
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		IsVerified:   u.IsVerified,
		IsTwoFacAuth: u.TwoFactorEnabled,
	}
}

// TokenCodec mints and parses HS256 session tokens. The key is fixed at
// construction and safe to share across goroutines.
type TokenCodec struct {
	key []byte
	ttl time.Duration

	now func() time.Time
}

// NewTokenCodec builds a codec with the given symmetric key. An empty key is
// replaced with a random per-process key; every token minted before a
// restart then fails verification, which is acceptable only for deployments
// that do not configure a persistent secret.
func NewTokenCodec(key []byte, ttl time.Duration) (*TokenCodec, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	return &TokenCodec{key: key, ttl: ttl, now: time.Now}, nil
}

// Mint signs a token carrying the claims, with the username as subject.
func (c *TokenCodec) Mint(claims Claims) (string, error) {
	now := c.now()
	claims.Subject = claims.Username
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key)
}

// ValidateStructure checks signature and expiry without interpreting the
// claim fields.
func (c *TokenCodec) ValidateStructure(tokenString string) error {
	_, err := c.parse(tokenString)
	return err
}

// ParseClaims verifies the token and extracts its claims. Malformed,
// tampered, and expired tokens all fail with ErrUnauthorized.
func (c *TokenCodec) ParseClaims(tokenString string) (*Claims, error) {
	return c.parse(tokenString)
}

func (c *TokenCodec) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrUnauthorized, err)
	}
	return claims, nil
}
