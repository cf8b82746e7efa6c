package auth_test

import (
	"context"
	"sync"

	"github.com/tasuku-app/tasuku/auth"
)

// memStore is an in-memory auth.UserStore for tests. It enforces the same
// per-provider uniqueness the relational store does.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User

	// createHook, when set, runs inside CreateUser before the insert and
	// may return an error to inject store failures.
	createHook func(*memStore, *auth.User) error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]*auth.User)}
}

func copyUser(u *auth.User) *auth.User {
	c := *u
	return &c
}

func (m *memStore) GetUserByID(ctx context.Context, id int64) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, auth.ErrUserNotFound
}

func (m *memStore) GetUserByName(ctx context.Context, name string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Name == name {
			return copyUser(u), nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memStore) GetUserByExternalID(ctx context.Context, provider, externalID string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if externalID != "" && u.ExternalID(provider) == externalID {
			return copyUser(u), nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *memStore) CreateUser(ctx context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createHook != nil {
		if err := m.createHook(m, user); err != nil {
			return err
		}
	}
	for _, existing := range m.users {
		for _, provider := range auth.OAuthProviders() {
			id := user.ExternalID(provider)
			if id != "" && existing.ExternalID(provider) == id {
				return auth.ErrDuplicateExternalID
			}
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *memStore) UpdateUser(ctx context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return auth.ErrUserNotFound
	}
	m.users[user.ID] = copyUser(user)
	return nil
}

// count returns the number of stored users.
func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// insert seeds a user directly, bypassing CreateUser hooks.
func (m *memStore) insert(u *auth.User) *auth.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = copyUser(u)
	return u
}

// remove deletes a user row, simulating out-of-band deletion.
func (m *memStore) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}
