package state

import "sync"

// Reduce applies a to a copy of s. s is never modified.
func Reduce(s State, a Action) State {
	next := s.Clone()
	a.apply(&next)
	return next
}

// DispatchFunc commits or forwards an action.
type DispatchFunc func(Action)

// Dispatcher is the view of a Store given to middlewares.
type Dispatcher interface {
	Dispatch(a Action)
	Snapshot() State
}

// Middleware wraps the dispatch chain. Actions dispatched through api
// re-enter the chain from the top.
type Middleware func(api Dispatcher, next DispatchFunc) DispatchFunc

// Store owns one State. Commits are serialized; readers get deep copies.
type Store struct {
	mu       sync.Mutex
	state    State
	dispatch DispatchFunc
}

// NewStore creates a store at initial. The first middleware is outermost.
func NewStore(initial State, mws ...Middleware) *Store {
	s := &Store{state: initial.Clone()}
	s.dispatch = s.commit
	for i := len(mws) - 1; i >= 0; i-- {
		s.dispatch = mws[i](s, s.dispatch)
	}
	return s
}

// Dispatch runs a through the middleware chain and commits it.
func (s *Store) Dispatch(a Action) {
	s.dispatch(a)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) commit(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}
