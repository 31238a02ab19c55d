package mpesa

import (
	"context"
	"sync"
	"time"
)

// Credentials identify a consumer key/secret pair at the gateway.
type Credentials struct {
	Key    string
	Secret string
}

func (c Credentials) cacheKey() string {
	return c.Key + ":" + c.Secret
}

// FetchFunc obtains a fresh bearer token from the gateway.
type FetchFunc func(ctx context.Context, creds Credentials) (string, error)

type cachedToken struct {
	token     string
	issuedAt  time.Time
	expiresAt time.Time
}

// TokenCache caches bearer tokens per credential pair. A single mutex covers
// the whole check-then-fetch-then-store sequence, so at most one refresh is
// in flight per process at a time. The lock is coarse: a refresh for one
// credential pair stalls lookups for every other pair until the fetch
// returns.
type TokenCache struct {
	mu       sync.Mutex
	entries  map[string]cachedToken
	fetch    FetchFunc
	validity time.Duration
	margin   time.Duration
	now      func() time.Time
}

// NewTokenCache builds a cache whose entries expire validity-margin after
// issue. The margin keeps an in-flight call from riding a token that expires
// mid-request.
func NewTokenCache(fetch FetchFunc, validity, margin time.Duration) *TokenCache {
	return &TokenCache{
		entries:  make(map[string]cachedToken),
		fetch:    fetch,
		validity: validity,
		margin:   margin,
		now:      time.Now,
	}
}

// Token returns the cached token for creds, fetching a new one if the entry
// is missing or expired. Exactly one upstream call happens per refresh.
func (tc *TokenCache) Token(ctx context.Context, creds Credentials) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	key := creds.cacheKey()
	if entry, ok := tc.entries[key]; ok && tc.now().Before(entry.expiresAt) {
		return entry.token, nil
	}

	token, err := tc.fetch(ctx, creds)
	if err != nil {
		return "", err
	}
	issued := tc.now()
	tc.entries[key] = cachedToken{
		token:     token,
		issuedAt:  issued,
		expiresAt: issued.Add(tc.validity - tc.margin),
	}
	return token, nil
}
