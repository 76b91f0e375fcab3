package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fodonfoto/MemoryLM/internal/events"
)

// Bus carries notebook events over redis pub/sub, so a worker's job updates
// reach subscribers of the API process.
type Bus struct {
	s *Store
}

func (s *Store) Bus() *Bus {
	return &Bus{s: s}
}

func (b *Bus) Publish(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.s.rdb.Publish(ctx, eventChannel(ev.NotebookID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, notebookID string) (<-chan events.Event, error) {
	ps := b.s.rdb.Subscribe(ctx, eventChannel(notebookID))
	// wait for the subscription to be confirmed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan events.Event, 64)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ev events.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	return out, nil
}
