package session

import (
	"context"
	"errors"
	"sync"
)

// TokenKey is the storage key of the access token.
const TokenKey = "subtech_token"

var ErrNoToken = errors.New("no session token")

// Event is published whenever the stored token changes. Subscribers must
// re-read the store rather than trust a cached token.
type Event struct {
	Present bool
}

// Store is the process-wide session token provider.
type Store interface {
	// Get returns ErrNoToken when nothing is stored.
	Get(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Remove(ctx context.Context) error
	// Subscribe registers fn for change events and returns a func that
	// unregisters it.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// notifier fans change events out to subscribers.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

func (n *notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(Event))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) publish(ev Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	notifier
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryStore) Save(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.publish(Event{Present: token != ""})
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.publish(Event{Present: false})
	return nil
}
