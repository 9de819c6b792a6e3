package secrets

import "sync"

// MemoryStore is an in-memory Store for tests and headless systems
// without a keyring daemon.
type MemoryStore struct {
	mu        sync.Mutex
	passwords map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{passwords: make(map[string]string)}
}

func (m *MemoryStore) GetPassword(world string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	password, ok := m.passwords[world]
	if !ok {
		return "", ErrNotFound
	}
	return password, nil
}

func (m *MemoryStore) SetPassword(world, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords[world] = password
	return nil
}

func (m *MemoryStore) DeletePassword(world string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.passwords[world]; !ok {
		return ErrNotFound
	}
	delete(m.passwords, world)
	return nil
}
