package auth

import "strings"

const bearerPrefix = "Bearer "

// SessionResolver turns an Authorization header into authenticated claims.
// No database read happens here; the token carries everything.
type SessionResolver struct {
	Tokens *TokenCodec
}

func NewSessionResolver(tokens *TokenCodec) *SessionResolver {
	return &SessionResolver{Tokens: tokens}
}

// Resolve validates the bearer token and returns its claims. Accounts that
// have not completed email verification are rejected even when the token
// itself is sound.
func (r *SessionResolver) Resolve(authorization string) (*Claims, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, ErrUnauthorized
	}
	raw := strings.TrimSpace(authorization[len(bearerPrefix):])
	if raw == "" {
		return nil, ErrUnauthorized
	}

	claims, err := r.Tokens.ParseClaims(raw)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !claims.IsVerified {
		return nil, ErrUnauthorized
	}

	return claims, nil
}
