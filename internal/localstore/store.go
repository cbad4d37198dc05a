// Package localstore is the durable key-value store the client falls back to
// when the backend is unreachable. Tables are JSON-encoded record lists kept
// under fixed keys in a local SQLite file, mirroring the shape a remote
// system of record would return.
package localstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"careconnect.org/internal/auth"
	"careconnect.org/internal/donations"
	"careconnect.org/internal/obs"
)

// Logical table and session keys.
const (
	KeyDonations = "careconnect_donations"
	KeyRequests  = "careconnect_requests"
	KeyToken     = "careconnect_token"
	KeyUser      = "careconnect_user"
)

// Change names a key whose value was written or removed.
type Change struct {
	Key string
}

// Store is a durable key-value store over a SQLite file. Writes are
// best-effort: the store is a fallback of last resort and must never fail an
// operation because persistence did. Every write fans a Change out to
// watchers, which is how independent session readers over the same file learn
// about logouts.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger

	subMu sync.Mutex
	subs  map[int]chan Change
	next  int
}

// Open opens (or creates) the store at path. ":memory:" yields a private
// in-memory store, useful for tests.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv(
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return nil, err
	}
	return &Store{
		db:   db,
		log:  obs.Logger(),
		subs: make(map[int]chan Change),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Donations returns the stored donation table. An absent or unparsable table
// is seeded from the built-in sample dataset and persisted immediately, so
// the first touch is idempotent.
func (s *Store) Donations() []donations.Donation {
	var list []donations.Donation
	if s.readJSON(KeyDonations, &list) && list != nil {
		return list
	}
	seed := donations.DemoDonations()
	s.writeJSON(KeyDonations, seed)
	return seed
}

// SaveDonations persists the donation table. Best-effort.
func (s *Store) SaveDonations(list []donations.Donation) {
	if list == nil {
		return
	}
	s.writeJSON(KeyDonations, list)
}

// Requests returns the stored request table, seeding it on first touch.
func (s *Store) Requests() []donations.Request {
	var list []donations.Request
	if s.readJSON(KeyRequests, &list) && list != nil {
		return list
	}
	seed := donations.DemoRequests()
	s.writeJSON(KeyRequests, seed)
	return seed
}

// SaveRequests persists the request table. Best-effort.
func (s *Store) SaveRequests(list []donations.Request) {
	if list == nil {
		return
	}
	s.writeJSON(KeyRequests, list)
}

// Token returns the stored session token.
func (s *Store) Token() (string, bool) {
	raw, ok := s.get(KeyToken)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// SetToken persists the session token. Best-effort.
func (s *Store) SetToken(token string) {
	s.set(KeyToken, token)
}

// User returns the stored session identity.
func (s *Store) User() (auth.User, bool) {
	var u auth.User
	if !s.readJSON(KeyUser, &u) || u.ID == "" {
		return auth.User{}, false
	}
	return u, true
}

// SetUser persists the session identity. Best-effort.
func (s *Store) SetUser(u auth.User) {
	s.writeJSON(KeyUser, u)
}

// DeleteSession removes the session token and identity and notifies watchers.
func (s *Store) DeleteSession() {
	s.del(KeyToken)
	s.del(KeyUser)
}

// Watch returns a channel of key changes. The channel is closed when ctx
// ends. Slow watchers drop notifications rather than block writers.
func (s *Store) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)

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

func (s *Store) notify(key string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- Change{Key: key}:
		default:
			// Drop when the watcher is slow to avoid blocking writers.
		}
	}
}

// readJSON loads and decodes the value under key. False means absent or
// unparsable; the caller decides whether to seed.
func (s *Store) readJSON(key string, dst any) bool {
	raw, ok := s.get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Debug("localstore: discarding unparsable value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) writeJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Debug("localstore: marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.set(key, string(data))
}

func (s *Store) get(key string) (string, bool) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM kv WHERE key = ?`, key)
	if err != nil {
		return "", false
	}
	return value, true
}

// set upserts the value. A failed write is logged and swallowed: the store
// must never crash the application over persistence.
func (s *Store) set(key, value string) {
	_, err := s.db.Exec(`INSERT INTO kv(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		s.log.Debug("localstore: write failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.notify(key)
}

func (s *Store) del(key string) {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		s.log.Debug("localstore: delete failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.notify(key)
}
