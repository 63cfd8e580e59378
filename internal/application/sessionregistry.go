package application

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// SessionRegistry keeps one Session per client, keyed by an opaque random
// ID carried in a cookie. Sessions live in memory only and do not survive a
// restart.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*model.Session)}
}

// Create registers a new anonymous session and returns its ID.
func (r *SessionRegistry) Create() (string, *model.Session) {
	sess := model.NewSession()
	return r.Add(sess), sess
}

// Add registers sess under a new random ID and returns the ID.
func (r *SessionRegistry) Add(sess *model.Session) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	return id
}

// Get returns the session with the given ID.
func (r *SessionRegistry) Get(id string) (*model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Delete forgets the session with the given ID. Unknown IDs are ignored.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

type (
	sessionContextKey struct{}
	hooksContextKey   struct{}
)

// SessionHooks let the transport keep the registry in step with the
// session carried by a request. Persist runs after a successful login and
// Discard after a logout. Either may be nil.
type SessionHooks struct {
	Persist func()
	Discard func()
}

// ContextWithSessionHooks returns a copy of ctx carrying hooks.
func ContextWithSessionHooks(ctx context.Context, hooks SessionHooks) context.Context {
	return context.WithValue(ctx, hooksContextKey{}, hooks)
}

func persistSession(ctx context.Context) {
	if hooks, ok := ctx.Value(hooksContextKey{}).(SessionHooks); ok && hooks.Persist != nil {
		hooks.Persist()
	}
}

func discardSession(ctx context.Context) {
	if hooks, ok := ctx.Value(hooksContextKey{}).(SessionHooks); ok && hooks.Discard != nil {
		hooks.Discard()
	}
}

// ContextWithSession returns a copy of ctx carrying sess.
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the session stored by ContextWithSession. It
// returns a fresh anonymous session when ctx carries none, so callers never
// see a nil session.
func SessionFromContext(ctx context.Context) *model.Session {
	if sess, ok := ctx.Value(sessionContextKey{}).(*model.Session); ok && sess != nil {
		return sess
	}
	return model.NewSession()
}
