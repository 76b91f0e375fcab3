package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

// MemoryBus delivers events within one process. A subscriber that falls a
// full buffer behind misses events rather than blocking publishers.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[chan Event]struct{})}
}

func (b *MemoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.NotebookID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, notebookID string) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[notebookID] == nil {
		b.subs[notebookID] = make(map[chan Event]struct{})
	}
	b.subs[notebookID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[notebookID], ch)
		if len(b.subs[notebookID]) == 0 {
			delete(b.subs, notebookID)
		}
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
