package template

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is one editing session: a Store plus bookkeeping for idle cleanup.
type Session struct {
	ID    uuid.UUID
	Store *Store

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// SessionManager hands out per-editor Stores keyed by session id. Each
// session owns its own current-template slot, dirty flag and autosaver, so
// two editors never trample each other's state. Idle sessions are reaped to
// bound memory; reaping stops their pending autosaves.
type SessionManager struct {
	repo     Repository
	scope    ScopeFunc
	identity IdentityFunc
	delay    time.Duration
	maxIdle  time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	onClose  func(uuid.UUID)
	stop     chan struct{}
	stopOnce sync.Once
}

// DefaultMaxIdle is how long a session may go untouched before the reaper
// closes it.
const DefaultMaxIdle = 30 * time.Minute

// NewSessionManager builds a manager whose sessions save through repo with
// the given autosave delay.
func NewSessionManager(repo Repository, scope ScopeFunc, delay time.Duration, log zerolog.Logger, opts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		repo:     repo,
		scope:    scope,
		identity: func(context.Context) string { return "" },
		delay:    delay,
		maxIdle:  DefaultMaxIdle,
		log:      log,
		now:      time.Now,
		sessions: map[uuid.UUID]*Session{},
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.reapLoop()
	return m
}

// ManagerOption configures a SessionManager.
type ManagerOption func(*SessionManager)

// WithManagerIdentity sets the created_by resolver for all sessions.
func WithManagerIdentity(fn IdentityFunc) ManagerOption {
	return func(m *SessionManager) { m.identity = fn }
}

// WithMaxIdle overrides how long sessions survive without use.
func WithMaxIdle(d time.Duration) ManagerOption {
	return func(m *SessionManager) { m.maxIdle = d }
}

// Open creates a new editing session and returns it.
func (m *SessionManager) Open() *Session {
	store := NewStore(m.repo, m.scope,
		WithLogger(m.log),
		WithIdentity(m.identity),
		WithAutosave(m.delay),
	)
	s := &Session{ID: uuid.New(), Store: store, lastUsed: m.now()}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.log.Debug().Str("session_id", s.ID.String()).Msg("editing session opened")
	return s
}

// Get returns the session with the given id, refreshing its idle clock, or
// false when it does not exist (never existed, or already reaped/closed).
func (m *SessionManager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// OnClose registers a hook invoked with the session id whenever a session is
// torn down, whether by an explicit Close, the idle reaper or Shutdown. Other
// layers hang per-session state off the session id; the hook is how they
// learn the id is dead.
func (m *SessionManager) OnClose(fn func(uuid.UUID)) {
	m.mu.Lock()
	m.onClose = fn
	m.mu.Unlock()
}

func (m *SessionManager) notifyClosed(id uuid.UUID) {
	m.mu.Lock()
	fn := m.onClose
	m.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

// Close tears down one session, canceling its pending autosave.
func (m *SessionManager) Close(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Store.Close()
	m.notifyClosed(id)
	m.log.Debug().Str("session_id", id.String()).Msg("editing session closed")
	return true
}

// Shutdown closes every session and stops the reaper.
func (m *SessionManager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[uuid.UUID]*Session{}
	m.mu.Unlock()
	for _, s := range sessions {
		s.Store.Close()
		m.notifyClosed(s.ID)
	}
}

func (m *SessionManager) reapLoop() {
	interval := m.maxIdle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *SessionManager) reap() {
	now := m.now()
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.maxIdle {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()
	for _, s := range expired {
		s.Store.Close()
		m.notifyClosed(s.ID)
		m.log.Info().Str("session_id", s.ID.String()).Msg("idle editing session reaped")
	}
}
