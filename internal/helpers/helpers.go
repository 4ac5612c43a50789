package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Authenticator validates bearer tokens issued by the identity collaborator,
// either with a shared HS256 secret or against a remote JWKS.
type Authenticator struct {
	secret []byte
	jwks   *keyfunc.JWKS
}

func NewAuthenticator(ctx context.Context, secret, jwksURL string) (*Authenticator, error) {
	if secret == "" && jwksURL == "" {
		return nil, errors.New("either JWT_SECRET or JWKS_URL must be set")
	}

	a := &Authenticator{secret: []byte(secret)}
	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS from %s: %v", jwksURL, err)
		}
		a.jwks = jwks
	}
	return a, nil
}

// Close stops the JWKS background refresh.
func (a *Authenticator) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

func (a *Authenticator) ValidateToken(tokenStr string) (*Claims, error) {
	var (
		keyFunc jwt.Keyfunc
		methods []string
	)
	if a.jwks != nil {
		keyFunc = a.jwks.Keyfunc
		methods = []string{"RS256", "ES256"}
	} else {
		keyFunc = func(t *jwt.Token) (interface{}, error) {
			return a.secret, nil
		}
		methods = []string{"HS256"}
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, keyFunc, jwt.WithValidMethods(methods))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %v", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignToken issues an HS256 token. Used by tests and local tooling; production
// tokens come from the identity provider.
func SignToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
