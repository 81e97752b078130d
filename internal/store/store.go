// Package store holds the authoritative in-memory view of current status:
// single writer (the poller), many readers (API, notifier).
package store

import (
	"sort"
	"sync"

	"github.com/mayvqt/StatusBot/internal/domain"
)

// Status pairs an entity name with its status in a Snapshot.
type Status struct {
	Name string
	domain.ServiceStatus
}

type Store struct {
	mu       sync.RWMutex
	statuses map[string]domain.ServiceStatus
	handle   *domain.NotificationHandle
}

func New() *Store {
	return &Store{statuses: make(map[string]domain.ServiceStatus)}
}

// Seed replaces the whole map from persisted state. Meant for startup, before
// any reader or the poller is running.
func (s *Store) Seed(state domain.PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = make(map[string]domain.ServiceStatus, len(state.Statuses))
	for name, st := range state.Statuses {
		s.statuses[name] = st
	}
	if state.Handle != nil {
		h := *state.Handle
		s.handle = &h
	}
}

// Upsert atomically replaces the status for name as a whole value. Readers
// never observe a partially-updated record.
func (s *Store) Upsert(name string, st domain.ServiceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[name] = st
}

func (s *Store) Get(name string) (domain.ServiceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[name]
	return st, ok
}

// Snapshot returns value copies sorted by name. Callers can mutate the result
// freely without touching the store.
func (s *Store) Snapshot() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, 0, len(s.statuses))
	for name, st := range s.statuses {
		out = append(out, Status{Name: name, ServiceStatus: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Handle returns a copy of the current notification handle, if any.
func (s *Store) Handle() (domain.NotificationHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.handle == nil {
		return domain.NotificationHandle{}, false
	}
	return *s.handle, true
}

func (s *Store) SetHandle(h domain.NotificationHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = &h
}

// Export builds the persistable view of the store.
func (s *Store) Export() domain.PersistedState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := domain.NewPersistedState()
	for name, st := range s.statuses {
		state.Statuses[name] = st
	}
	if s.handle != nil {
		h := *s.handle
		state.Handle = &h
	}
	return state
}
