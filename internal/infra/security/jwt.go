package security

import (
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// TokenInspector reads claims from access tokens issued by the remote API.
// The signing key is not ours, so signatures are never verified; the claims
// only drive local bookkeeping such as how long to keep a token around.
type TokenInspector struct {
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokenInspector() *TokenInspector {
	return &TokenInspector{
		parser: jwt.NewParser(),
		now:    time.Now,
	}
}

type Claims struct {
	UserID    int64
	ExpiresAt time.Time
}

type jwtClaims struct {
	jwt.RegisteredClaims
}

func (i *TokenInspector) Inspect(token string) (*Claims, error) {
	var claims jwtClaims
	if _, _, err := i.parser.ParseUnverified(token, &claims); err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	out := &Claims{}
	if claims.Subject != "" {
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err == nil {
			out.UserID = id
		}
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// TTL is the time left before token expires. Opaque tokens, tokens without
// an exp claim and already expired tokens get fallback.
func (i *TokenInspector) TTL(token string, fallback time.Duration) time.Duration {
	claims, err := i.Inspect(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return fallback
	}
	left := claims.ExpiresAt.Sub(i.now())
	if left <= 0 {
		return fallback
	}
	if fallback > 0 && left > fallback {
		return fallback
	}
	return left
}
