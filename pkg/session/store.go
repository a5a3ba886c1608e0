package session

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/medilabo/webapp/pkg/cache"
)

// Store persists sessions by cookie token.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound or ErrExpired when the token is unusable.
	Get(ctx context.Context, token string) (*Session, error)
	Update(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
}

// CacheStore keeps sessions in any cache backend. Entries expire with the
// session itself.
type CacheStore struct {
	cache cache.Cache[Session]
}

// NewCacheStore wraps a cache.
func NewCacheStore(c cache.Cache[Session]) *CacheStore {
	return &CacheStore{cache: c}
}

func (s *CacheStore) Create(ctx context.Context, sess *Session) error {
	return s.put(ctx, sess)
}

func (s *CacheStore) Get(ctx context.Context, token string) (*Session, error) {
	sess, err := s.cache.Get(ctx, token)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		_ = s.cache.Delete(ctx, token)
		return nil, ErrExpired
	}
	sess.Values = maps.Clone(sess.Values)
	return &sess, nil
}

func (s *CacheStore) Update(ctx context.Context, sess *Session) error {
	return s.put(ctx, sess)
}

func (s *CacheStore) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, token)
}

func (s *CacheStore) put(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}
	// Memory backends keep the struct by value; the map must not be shared.
	stored := *sess
	stored.Values = maps.Clone(sess.Values)
	return s.cache.Set(ctx, sess.Token, stored, ttl)
}

var _ Store = (*CacheStore)(nil)
