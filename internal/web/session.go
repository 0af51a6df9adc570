package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gastos-dev/gastos/internal/view"
)

// Session is one upload's categorized table. Sessions live in memory only.
type Session struct {
	ID       string
	Created  time.Time
	Files    []string
	Rows     []view.Row
	Warnings []string
}

// Store keeps the most recent sessions, dropping the oldest past max.
type Store struct {
	mu    sync.RWMutex
	max   int
	order []string
	byID  map[string]*Session
}

// NewStore creates a store holding at most max sessions.
func NewStore(max int) *Store {
	if max < 1 {
		max = 1
	}
	return &Store{max: max, byID: make(map[string]*Session)}
}

// Add stores s under a new ID and returns it.
func (st *Store) Add(s *Session) string {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.ID = uuid.NewString()
	if s.Created.IsZero() {
		s.Created = time.Now()
	}
	st.byID[s.ID] = s
	st.order = append(st.order, s.ID)
	for len(st.order) > st.max {
		delete(st.byID, st.order[0])
		st.order = st.order[1:]
	}
	return s.ID
}

// Get returns the session with id, or nil.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byID[id]
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}
