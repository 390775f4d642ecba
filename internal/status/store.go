package status

import "sync/atomic"

// Store holds the current DashboardState. It has a single writer (the
// refresher) and any number of readers. Readers always observe a state that
// was published in full.
type Store struct {
	current atomic.Pointer[DashboardState]
}

// NewStore creates a store holding InitialState.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(InitialState())
	return s
}

// Load returns the current state. The returned value must be treated as
// read-only.
func (s *Store) Load() *DashboardState {
	return s.current.Load()
}

// Publish replaces the current state.
func (s *Store) Publish(state *DashboardState) {
	s.current.Store(state)
}
