// Package auth authenticates scheduler callers by bearer credential: an HS256
// JWT or a static API key stored as an argon2id hash.
package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"

	"rostering/pkg/config"
)

// ErrUnauthenticated is returned for any credential that does not verify.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
)

// Identity describes an authenticated caller.
type Identity struct {
	Subject string
	Role    string
	Method  string
}

// Authenticator checks bearer credentials.
type Authenticator struct {
	tokens *TokenManager
	keys   []string

	// sha256(key) -> index of the matching hash; argon2 runs once per key
	verified sync.Map
}

// New builds an Authenticator from config. JWT support needs a secret;
// API keys need at least one hash.
func New(cfg config.AuthConfig) (*Authenticator, error) {
	a := &Authenticator{keys: cfg.APIKeys}
	if cfg.JWTSecret != "" {
		tm, err := NewTokenManager(TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.Issuer, TTL: cfg.TokenTTL})
		if err != nil {
			return nil, err
		}
		a.tokens = tm
	}
	if a.tokens == nil && len(a.keys) == 0 {
		return nil, errors.New("auth: neither jwt secret nor api keys configured")
	}
	for i, h := range a.keys {
		if !strings.HasPrefix(h, "$argon2id$") {
			return nil, fmt.Errorf("auth: api_keys[%d]: %w", i, ErrMalformedHash)
		}
	}
	return a, nil
}

// Tokens returns the JWT manager, nil when JWTs are not configured.
func (a *Authenticator) Tokens() *TokenManager { return a.tokens }

// Authenticate verifies credential and returns the caller's identity.
func (a *Authenticator) Authenticate(credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	if a.tokens != nil && strings.Count(credential, ".") == 2 {
		claims, err := a.tokens.Validate(credential)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return &Identity{Subject: claims.Subject, Role: claims.Role, Method: MethodJWT}, nil
	}

	digest := sha256.Sum256([]byte(credential))
	if idx, ok := a.verified.Load(digest); ok {
		return apiKeyIdentity(idx.(int)), nil
	}
	for i, h := range a.keys {
		ok, err := VerifyKey(credential, h)
		if err != nil {
			continue
		}
		if ok {
			a.verified.Store(digest, i)
			return apiKeyIdentity(i), nil
		}
	}
	return nil, ErrUnauthenticated
}

func apiKeyIdentity(i int) *Identity {
	return &Identity{Subject: fmt.Sprintf("api-key-%d", i), Method: MethodAPIKey}
}

type identityKey struct{}

// NewContext returns ctx carrying id.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by NewContext.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
