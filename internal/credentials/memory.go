package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory. Watch subscribers are
// notified of every Set and Clear made through the same store.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
	subs  map[int]func(Event)
	next  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[int]func(Event))}
}

func (m *MemoryStore) Get(ctx context.Context) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return normalize(m.creds), nil
}

func (m *MemoryStore) Set(ctx context.Context, creds Credentials) error {
	m.mu.Lock()
	m.creds = creds
	subs := m.snapshot()
	m.mu.Unlock()

	notify(subs, Event{Key: KeyAccess, Value: creds.Access})
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.creds = Credentials{}
	subs := m.snapshot()
	m.mu.Unlock()

	notify(subs, Event{Key: KeyAccess})
	return nil
}

// Watch registers fn until ctx is done.
func (m *MemoryStore) Watch(ctx context.Context, fn func(Event)) error {
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = fn
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	delete(m.subs, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) snapshot() []func(Event) {
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
