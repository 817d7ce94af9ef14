package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	interrors "github.com/chonlathan-cloud/lineoa-public-mirror/internal/errors"
)

const defaultTTL = 5 * time.Minute

type cacheEntry struct {
	cred      Credential
	expiresAt time.Time
}

// Store resolves shop credentials through a bounded-TTL in-memory cache.
// A resolve within the TTL window returns the cached value without touching
// the backing source. A fetch failure never evicts a previously cached value;
// it only surfaces once no usable entry or fallback remains.
type Store struct {
	source   Source
	ttl      time.Duration
	fallback *Credential
	nowFunc  func() time.Time
	log      zerolog.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type StoreOption func(*Store)

// WithTTL overrides the cache TTL (default 300s).
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFallback configures a static credential for local operation. It is
// consulted only after a lookup miss or failure, never before a real resolve.
func WithFallback(signingSecret, accessToken string) StoreOption {
	return func(s *Store) {
		if signingSecret == "" {
			return
		}
		s.fallback = &Credential{SigningSecret: signingSecret, AccessToken: accessToken}
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = nowFunc
	}
}

func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

func NewStore(source Source, options ...StoreOption) (*Store, error) {
	if source == nil {
		return nil, errors.New("[NewStore] source is required")
	}

	s := &Store{
		source:  source,
		ttl:     defaultTTL,
		nowFunc: time.Now,
		log:     zerolog.Nop(),
		cache:   make(map[string]cacheEntry),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Resolve returns the credential for a shop, from cache when fresh.
// Concurrent misses for the same shop may both fetch; last write wins and
// either value is valid within the TTL window.
func (s *Store) Resolve(ctx context.Context, shopID string) (Credential, error) {
	now := s.nowFunc()

	s.mu.RLock()
	entry, ok := s.cache[shopID]
	s.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.cred, nil
	}

	cred, err := s.source.Fetch(ctx, shopID)
	if err != nil {
		if s.fallback != nil {
			s.log.Debug().Str("shop_id", shopID).Msg("credential fetch failed, using static fallback")
			fb := *s.fallback
			fb.ShopID = shopID
			fb.FetchedAt = now
			return fb, nil
		}
		if !errors.Is(err, interrors.ErrCredentialNotFound) && !errors.Is(err, interrors.ErrCredentialSourceUnavailable) {
			err = errors.Wrapf(interrors.ErrCredentialSourceUnavailable, "%v", err)
		}
		s.log.Warn().Err(err).Str("shop_id", shopID).Msg("credential resolve failed")
		return Credential{}, err
	}

	s.mu.Lock()
	s.cache[shopID] = cacheEntry{cred: cred, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()

	return cred, nil
}

// Invalidate drops the cached entry for a shop, forcing the next resolve to
// hit the source. Used after a shop rotates its channel secret.
func (s *Store) Invalidate(shopID string) {
	s.mu.Lock()
	delete(s.cache, shopID)
	s.mu.Unlock()
}
