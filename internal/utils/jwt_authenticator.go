package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// AuthenticatedUser carries the identity extracted from a validated bearer
// token. Sub is used as the added_by audit identity on claimant writes.
type AuthenticatedUser struct {
	Sub      string
	Iss      string
	ClientId string
	Exp      int64
	Iat      int64
	Aud      []string
	Roles    []string
	Scopes   []string
}

// JwtAuthenticator validates RS256 bearer tokens against a JWKS endpoint,
// caching the key set so repeated validations do not refetch it.
type JwtAuthenticator struct {
	JwksUri  string
	cacheTTL time.Duration

	mu        sync.Mutex
	cachedSet jwk.Set
	fetchedAt time.Time
}

func NewJwtAuthenticator(jwksUri string) *JwtAuthenticator {
	return &JwtAuthenticator{
		JwksUri:  jwksUri,
		cacheTTL: 5 * time.Minute,
	}
}

// ValidateToken verifies the token's signature against the JWKS keys and its
// registered time claims, and maps the claims to an AuthenticatedUser.
func (a *JwtAuthenticator) ValidateToken(tokenString string) (*AuthenticatedUser, error) {
	if a.JwksUri == "" {
		return nil, fmt.Errorf("JWKS URI not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		kid, _ := token.Header["kid"].(string)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return a.fetchKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return a.mapClaimsToUser(claims)
}

// fetchKey returns the raw public key for kid, refreshing the cached JWKS set
// when the cache is older than cacheTTL.
func (a *JwtAuthenticator) fetchKey(ctx context.Context, kid string) (interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cachedSet == nil || time.Since(a.fetchedAt) > a.cacheTTL {
		set, err := jwk.Fetch(ctx, a.JwksUri)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
		}
		a.cachedSet = set
		a.fetchedAt = time.Now()
	}

	var key jwk.Key
	if kid != "" {
		found, ok := a.cachedSet.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("key %q not found in JWKS", kid)
		}
		key = found
	} else {
		if a.cachedSet.Len() == 0 {
			return nil, fmt.Errorf("JWKS is empty")
		}
		key, _ = a.cachedSet.Key(0)
	}

	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to extract raw key: %w", err)
	}
	return raw, nil
}

func (a *JwtAuthenticator) mapClaimsToUser(claims map[string]interface{}) (*AuthenticatedUser, error) {
	user := &AuthenticatedUser{}

	if sub, ok := claims["sub"].(string); ok {
		user.Sub = sub
	}
	if iss, ok := claims["iss"].(string); ok {
		user.Iss = iss
	}
	if clientId, ok := claims["client_id"].(string); ok {
		user.ClientId = clientId
	}
	if exp, ok := claims["exp"].(float64); ok {
		user.Exp = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		user.Iat = int64(iat)
	}

	user.Aud = stringSliceClaim(claims["aud"])
	user.Roles = stringSliceClaim(claims["roles"])
	user.Scopes = stringSliceClaim(claims["scopes"])

	return user, nil
}

// stringSliceClaim accepts the claim either as a single string or a list of
// strings, the two shapes JWT issuers use for aud-style claims.
func stringSliceClaim(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
