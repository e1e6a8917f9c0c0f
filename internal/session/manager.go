// Package session binds each visitor to its own storefront state. The state
// is serialized into an expiring memory store between requests; a missing or
// expired entry starts the visitor over from the initial state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishxl-0001/vipn/pkg/logger"
	"github.com/vishxl-0001/vipn/pkg/memory"
	"github.com/vishxl-0001/vipn/pkg/state"
	"github.com/vishxl-0001/vipn/pkg/telemetry"
)

// DefaultCookieName carries the session id
const DefaultCookieName = "storefront_session"

const keyPrefix = "session:"

// Session is the visitor state bound to one request
type Session struct {
	ID         string
	New        bool
	Controller *state.Container
}

// Manager loads and stores sessions
type Manager struct {
	store      memory.Memory
	ttl        time.Duration
	cookieName string
	secure     bool
	logger     logger.Logger
	newID      func() string
	initial    func() state.State

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Manager
type Option func(*Manager)

// WithTTL sets how long an idle session survives
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithCookie sets the cookie name and whether it is HTTPS-only
func WithCookie(name string, secure bool) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
		m.secure = secure
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithInitialState overrides the state new sessions start from
func WithInitialState(fn func() state.State) Option {
	return func(m *Manager) { m.initial = fn }
}

// NewManager creates a session manager over store
func NewManager(store memory.Memory, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		ttl:        memory.DefaultTTL,
		cookieName: DefaultCookieName,
		logger:     logger.NewSimpleLogger(),
		newID:      uuid.NewString,
		initial:    state.Initial,
		locks:      make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func storeKey(id string) string {
	return keyPrefix + id
}

// Load returns the stored state for id. A missing or expired session
// reports memory.ErrKeyNotFound.
func (m *Manager) Load(ctx context.Context, id string) (state.State, error) {
	data, err := m.store.Get(ctx, storeKey(id))
	if err != nil {
		return state.State{}, err
	}

	var s state.State
	if err := json.Unmarshal(data, &s); err != nil {
		return state.State{}, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	return s, nil
}

// Save stores s under id and refreshes its TTL
func (m *Manager) Save(ctx context.Context, id string, s state.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return m.store.Set(ctx, storeKey(id), data, m.ttl)
}

// Delete forgets a session
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, storeKey(id))
}

// Open returns the session for id. An empty, malformed or unknown id, or one
// whose stored state cannot be decoded, gets a fresh session under a newly
// issued id; a client never chooses its own session id. Store failures other
// than a missing key are returned.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return m.fresh(m.newID()), nil
	}

	s, err := m.Load(ctx, id)
	switch {
	case err == nil:
		return &Session{ID: id, Controller: state.NewContainer(s)}, nil
	case errors.Is(err, memory.ErrKeyNotFound):
		return m.fresh(m.newID()), nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			m.logger.Warn("Discarding unreadable session", "session_id", id, "error", err)
			if err := m.Delete(ctx, id); err != nil {
				m.logger.Debug("Failed to delete unreadable session", "session_id", id, "error", err)
			}
			return m.fresh(m.newID()), nil
		}
		return nil, err
	}
}

func (m *Manager) fresh(id string) *Session {
	return &Session{ID: id, New: true, Controller: state.NewContainer(m.initial())}
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

type contextKey struct{}

// FromContext returns the session Middleware attached to ctx
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}

// NewContext attaches s to ctx
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Middleware attaches the visitor's session to each request. Requests of
// the same session run one at a time; the state is saved after the handler
// returns and before the next request of that session starts.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(m.cookieName); err == nil {
			id = c.Value
		}
		if _, err := uuid.Parse(id); err != nil {
			id = m.newID()
		}

		unlock := m.lock(id)
		defer unlock()

		ctx := r.Context()
		sess, err := m.Open(ctx, id)
		if err != nil {
			m.logger.Error("Failed to load session", telemetry.EnrichLogFields(ctx, map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			}))
			http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(m.ttl.Seconds()),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx = telemetry.WithSessionID(ctx, sess.ID)
		next.ServeHTTP(w, r.WithContext(NewContext(ctx, sess)))

		// the response may already be gone; finish the save regardless
		saveCtx := context.WithoutCancel(ctx)
		if err := m.Save(saveCtx, sess.ID, sess.Controller.State()); err != nil {
			m.logger.Error("Failed to save session", telemetry.EnrichLogFields(ctx, map[string]interface{}{
				"session_id": sess.ID,
				"error":      err.Error(),
			}))
		}
	})
}

type purger interface {
	Purge() int
}

// RunJanitor drops expired sessions from stores that do not expire keys on
// their own. It returns when ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	p, ok := m.store.(purger)
	if !ok || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.Purge(); n > 0 {
				m.logger.Debug("Purged expired sessions", "count", n)
			}
		}
	}
}
