// internal/store/memory.go
//
// In-memory registry of live single-player sessions.
// Each session pairs a game Runner with the cancel func of the goroutine
// driving it, plus the owning account (empty for guests).
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Delete cancels the session's runner.
//   - Sweep evicts finished sessions after a grace period and idle ones
//     after a TTL, so abandoned guest games do not tick forever.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/its-lightning/tetris/internal/game"
)

var ErrNotFound = errors.New("session not found")

// Session is one live solo game. It is also a game.Listener that fans
// snapshots out to subscribers; register it on the game before the runner
// starts.
type Session struct {
	Runner  *game.Runner
	OwnerID string
	Created time.Time

	cancel context.CancelFunc

	mu    sync.Mutex
	subs  map[chan game.Snapshot]struct{}
	seen  time.Time // last request or stream activity
	ended time.Time // zero until game over
}

// NewSession wraps a runner whose loop is stopped by cancel.
func NewSession(r *game.Runner, ownerID string, cancel context.CancelFunc) *Session {
	now := time.Now()
	return &Session{
		Runner:  r,
		OwnerID: ownerID,
		Created: now,
		cancel:  cancel,
		subs:    make(map[chan game.Snapshot]struct{}),
		seen:    now,
	}
}

func (s *Session) ID() string { return s.Runner.ID() }

// Stop cancels the session's runner.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Subscribe returns a channel receiving every published snapshot and a func
// that ends the subscription. Slow subscribers miss snapshots rather than
// stall the game.
func (s *Session) Subscribe(buf int) (<-chan game.Snapshot, func()) {
	ch := make(chan game.Snapshot, buf)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

// StateChanged fans snap out to subscribers. A live snapshot after game
// over means the game was reset, which cancels the grace period.
func (s *Session) StateChanged(snap game.Snapshot) {
	s.mu.Lock()
	if !snap.GameOver {
		s.ended = time.Time{}
	}
	s.mu.Unlock()
	s.fanOut(snap)
}

// GameOver starts the session's grace period. The final snapshot already
// went out via StateChanged.
func (s *Session) GameOver(game.Snapshot) {
	s.mu.Lock()
	if s.ended.IsZero() {
		s.ended = time.Now()
	}
	s.mu.Unlock()
}

// Touch marks the session as in use.
func (s *Session) Touch() {
	s.mu.Lock()
	s.seen = time.Now()
	s.mu.Unlock()
}

// Expired reports whether the session should be evicted at now: finished
// for longer than grace, or untouched for longer than idle with nobody
// streaming it. A non-positive idle disables the idle check.
func (s *Session) Expired(now time.Time, idle, grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended.IsZero() && now.Sub(s.ended) > grace {
		return true
	}
	return idle > 0 && len(s.subs) == 0 && now.Sub(s.seen) > idle
}

func (s *Session) fanOut(snap game.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Store defines the registry of live sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by game ID.
	// Returns ErrNotFound if the session is not registered.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete stops and removes a session.
	Delete(ctx context.Context, id string) error

	// Sweep stops and removes every session Expired at now and reports
	// how many it evicted.
	Sweep(now time.Time, idle, grace time.Duration) int

	// Close stops every session.
	Close()
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[s.ID()]; ok && old != s {
		old.Stop()
	}
	m.sessions[s.ID()] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Stop()
	return nil
}

func (m *memory) Sweep(now time.Time, idle, grace time.Duration) int {
	var evicted []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.Expired(now, idle, grace) {
			evicted = append(evicted, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range evicted {
		s.Stop()
	}
	return len(evicted)
}

func (m *memory) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Stop()
	}
}
