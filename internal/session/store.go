// Package session keeps the signed-in identity for a client instance. The
// session is durable: it lives in the local store so it survives restarts,
// and every store over the same file observes establish and clear through the
// store's change feed. A reader in one process learning about a logout done
// in another is the point of the feed.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/localstore"
	"careconnect.org/internal/obs"
)

// Session is the authenticated state of a client instance. A zero Session is
// anonymous.
type Session struct {
	Token string
	User  auth.User
}

// Anonymous reports whether the session carries no identity.
func (s Session) Anonymous() bool { return s.Token == "" && s.User.ID == "" }

// Store owns the current session and mirrors it to the local store.
type Store struct {
	local *localstore.Store
	log   *zap.Logger

	mu      sync.RWMutex
	current Session

	subMu sync.Mutex
	subs  map[int]chan Session
	next  int
}

// New builds a session store over local and loads whatever session the local
// store already holds.
func New(local *localstore.Store) *Store {
	s := &Store{
		local: local,
		log:   obs.Logger(),
		subs:  make(map[int]chan Session),
	}
	s.Load()
	return s
}

// Load reads the persisted token and identity into memory. A half-written
// session (token without user, or the reverse) loads as anonymous.
func (s *Store) Load() Session {
	token, okT := s.local.Token()
	user, okU := s.local.User()

	s.mu.Lock()
	if okT && okU {
		s.current = Session{Token: token, User: user}
	} else {
		s.current = Session{}
	}
	loaded := s.current
	s.mu.Unlock()
	return loaded
}

// Current returns the in-memory session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Establish records a signed-in identity, persists it, and broadcasts the new
// session to subscribers.
func (s *Store) Establish(token string, user auth.User) {
	s.mu.Lock()
	s.current = Session{Token: token, User: user}
	s.mu.Unlock()

	s.local.SetToken(token)
	s.local.SetUser(user)
	s.broadcast(Session{Token: token, User: user})
}

// Clear drops the session, removes the persisted copy, and broadcasts the
// anonymous session. Safe to call when already anonymous.
func (s *Store) Clear() {
	s.mu.Lock()
	wasAnonymous := s.current.Anonymous()
	s.current = Session{}
	s.mu.Unlock()

	s.local.DeleteSession()
	if !wasAnonymous {
		s.log.Debug("session: cleared")
	}
	s.broadcast(Session{})
}

// Subscribe returns a channel carrying every session change until ctx ends.
func (s *Store) Subscribe(ctx context.Context) <-chan Session {
	ch := make(chan Session, 4)

	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subMu.Unlock()
	}()

	return ch
}

// Watch follows the local store's change feed and reloads the session
// whenever a session key changes, so a store sharing a file with another
// instance converges on that instance's logins and logouts. It blocks until
// ctx ends.
func (s *Store) Watch(ctx context.Context) {
	changes := s.local.Watch(ctx)
	for change := range changes {
		if change.Key != localstore.KeyToken && change.Key != localstore.KeyUser {
			continue
		}
		before := s.Current()
		after := s.Load()
		if after != before {
			s.broadcast(after)
		}
	}
}

func (s *Store) broadcast(sess Session) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- sess:
		default:
		}
	}
}
