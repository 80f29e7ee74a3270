// Package auth supplies the auth token and its claims to the rest of the
// client. Token acquisition (login, refresh) belongs to the hosting
// application; this package only reads what it is given.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider returns the current auth token, or "" when logged out.
type TokenProvider interface {
	Token() string
}

// TokenProviderFunc adapts a function to the TokenProvider interface.
type TokenProviderFunc func() string

// Token implements TokenProvider.
func (f TokenProviderFunc) Token() string { return f() }

// StaticProvider holds a replaceable token. The hosting application calls
// Set on login/refresh and Clear on logout; the push client is told
// separately so it can cycle its connection.
type StaticProvider struct {
	mu    sync.RWMutex
	token string
}

// NewStaticProvider creates a provider with an initial token ("" is valid).
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// Token implements TokenProvider.
func (p *StaticProvider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Set replaces the token.
func (p *StaticProvider) Set(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}

// Clear removes the token.
func (p *StaticProvider) Clear() {
	p.Set("")
}

// Claims is the identity carried by a token, used to tag events with the
// acting user. Zero-valued for opaque (non-JWT) tokens.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Decode extracts claims from a JWT without verifying its signature; the
// server is the verifier, the client only needs the identity hints. An
// opaque or malformed token yields zero claims, never an error, so the
// estimates service's plain database tokens keep working.
func Decode(token string) Claims {
	if token == "" {
		return Claims{}
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Claims{}
	}

	var out Claims
	if sub, err := claims.GetSubject(); err == nil {
		out.UserID = sub
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out
}
