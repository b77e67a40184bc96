// Package token supplies bearer credentials for authenticated calls to the
// booking service. The SDK never stores credentials itself; callers inject a
// Source and the HTTP client asks it for a token per request and for a fresh
// one after a 401.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken is returned when a source has no credential to offer.
var ErrNoToken = errors.New("no access token available")

// Source provides bearer tokens for authenticated requests.
type Source interface {
	// Token returns a credential believed to be valid.
	Token(ctx context.Context) (string, error)
	// Refresh discards any cached credential and obtains a new one. It is
	// called after the server rejects a token with 401.
	Refresh(ctx context.Context) (string, error)
}

// StaticSource returns a fixed token and cannot refresh. Useful for tests
// and short-lived CLI invocations.
type StaticSource string

func (s StaticSource) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

func (s StaticSource) Refresh(ctx context.Context) (string, error) {
	return s.Token(ctx)
}

// RefreshFunc obtains a brand-new access token, typically by exchanging a
// refresh token with the auth endpoint.
type RefreshFunc func(ctx context.Context) (string, error)

// CachingSource caches an access token and refreshes it when the JWT exp
// claim says it is about to lapse. The expiry leeway avoids sending a token
// that dies in flight.
type CachingSource struct {
	refresh RefreshFunc
	leeway  time.Duration

	mu      sync.RWMutex
	current string
	expiry  time.Time
}

// NewCachingSource creates a CachingSource around the given refresh function.
func NewCachingSource(refresh RefreshFunc) *CachingSource {
	return &CachingSource{
		refresh: refresh,
		leeway:  30 * time.Second,
	}
}

// Token returns the cached token, refreshing first if it is missing or
// within the leeway of its expiry.
func (s *CachingSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	current, expiry := s.current, s.expiry
	s.mu.RUnlock()

	if current != "" && (expiry.IsZero() || time.Now().Before(expiry.Add(-s.leeway))) {
		return current, nil
	}

	return s.Refresh(ctx)
}

// Refresh obtains a new token and caches it along with its expiry.
func (s *CachingSource) Refresh(ctx context.Context) (string, error) {
	fresh, err := s.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}
	if fresh == "" {
		return "", ErrNoToken
	}

	s.mu.Lock()
	s.current = fresh
	s.expiry = extractExpiry(fresh)
	s.mu.Unlock()

	return fresh, nil
}

// extractExpiry reads the exp claim without verifying the signature; the
// client only needs it to decide when to refresh, the server still verifies.
func extractExpiry(tokenString string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
