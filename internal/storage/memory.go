package storage

import (
	"context"
	"sync"
)

// Memory is the session-scoped area: state lives and dies with the process.
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[string][]chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string][]byte),
		watchers: make(map[string][]chan struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	watchers := append([]chan struct{}(nil), m.watchers[key]...)
	m.mu.Unlock()

	notify(watchers)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	watchers := append([]chan struct{}(nil), m.watchers[key]...)
	m.mu.Unlock()

	notify(watchers)
	return nil
}

// Watch registers a change channel for key. The channel is closed when ctx
// is done.
func (m *Memory) Watch(ctx context.Context, key string) <-chan struct{} {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		list := m.watchers[key]
		for i, c := range list {
			if c == ch {
				m.watchers[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		close(ch)
	}()

	return ch
}

func notify(watchers []chan struct{}) {
	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
			// watcher already has a pending event
		}
	}
}
