package state

import (
	"context"
	"errors"
	"time"

	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/pkg/cache"
)

// ErrNoSession is returned when a store is requested without a session id.
var ErrNoSession = errors.New("state: empty session id")

// Registry keeps one Store per browser session. Idle stores expire with
// the cache TTL; every Acquire restarts the countdown.
type Registry struct {
	stores      cache.Cache[*Store]
	middlewares []Middleware
}

// NewRegistry creates a registry over stores. Every created Store gets mws.
func NewRegistry(stores cache.Cache[*Store], mws ...Middleware) *Registry {
	return &Registry{stores: stores, middlewares: mws}
}

// Acquire returns the store of sessionID, creating it when missing. A new
// store starts from the initial state with the auth slice hydrated from cred.
func (r *Registry) Acquire(ctx context.Context, sessionID string, cred model.Credential) (*Store, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	created := false
	store, err := cache.GetOrSet(ctx, r.stores, sessionID, func(context.Context) (*Store, time.Duration, error) {
		s := NewStore(Initial(), r.middlewares...)
		if !cred.IsZero() {
			s.Dispatch(Hydrate(cred))
		}
		created = true
		return s, 0, nil
	})
	if err != nil {
		return nil, err
	}

	if !created {
		if err := r.stores.Set(ctx, sessionID, store, 0); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Release drops the store of sessionID.
func (r *Registry) Release(ctx context.Context, sessionID string) error {
	err := r.stores.Delete(ctx, sessionID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	return err
}

// Len returns the number of live stores when the backend can count them,
// and -1 otherwise.
func (r *Registry) Len() int {
	if l, ok := r.stores.(interface{ Len() int }); ok {
		return l.Len()
	}
	return -1
}
