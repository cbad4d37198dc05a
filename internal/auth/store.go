package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"careconnect.org/internal/ids"
)

// UserStore describes the persistence operations the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
}

// InMemoryUsers implements UserStore with in-process concurrency safety.
type InMemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string // normalized email -> id
}

// NewInMemoryUsers creates an empty user store.
func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// SeedDemoUsers inserts the fixed demo accounts, all sharing DemoPassword.
// Existing emails are left untouched.
func (s *InMemoryUsers) SeedDemoUsers() error {
	hash, err := HashPassword(DemoPassword)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range DemoUsers() {
		key := normalizeEmail(u.Email)
		if _, ok := s.byEmail[key]; ok {
			continue
		}
		u.PasswordHash = hash
		s.byID[u.ID] = u
		s.byEmail[key] = u.ID
	}
	return nil
}

func (s *InMemoryUsers) CreateUser(ctx context.Context, u User) (User, error) {
	if strings.TrimSpace(u.Email) == "" || strings.TrimSpace(u.Name) == "" {
		return User{}, ErrInvalidInput
	}
	if !u.Role.Valid() {
		u.Role = RoleUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, ok := s.byEmail[key]; ok {
		return User{}, ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.byID[u.ID] = u
	s.byEmail[key] = u.ID
	return u, nil
}

func (s *InMemoryUsers) UserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *InMemoryUsers) UserByID(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// All returns every stored user ordered by id. Intended for tests.
func (s *InMemoryUsers) All() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
