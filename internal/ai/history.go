package ai

import (
	"context"
	"strings"
	"sync"
)

// StreamProvider is a stateless chat backend that takes the whole message
// list on every call.
type StreamProvider interface {
	StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

// historySession turns a StreamProvider into a ChatSession by replaying the
// system instruction and previous turns on every call.
type historySession struct {
	provider StreamProvider

	mu      sync.Mutex
	history []Message
}

func NewHistorySession(p StreamProvider, systemInstruction string) ChatSession {
	return &historySession{
		provider: p,
		history:  []Message{{Role: RoleSystem, Content: systemInstruction}},
	}
}

func (s *historySession) SendStream(ctx context.Context, text string, attachments []Attachment) (<-chan string, <-chan error) {
	user := Message{Role: RoleUser, Content: text, Attachments: attachments}

	s.mu.Lock()
	msgs := make([]Message, 0, len(s.history)+1)
	msgs = append(msgs, s.history...)
	msgs = append(msgs, user)
	s.mu.Unlock()

	out := make(chan string, 16)
	outErrs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(outErrs)

		pChunks, pErrs := s.provider.StreamChat(ctx, msgs)

		var b strings.Builder
		for c := range pChunks {
			b.WriteString(c)
			out <- c
		}
		if err := <-pErrs; err != nil {
			outErrs <- err
			return
		}

		// past turns are replayed as text; attachments ride on the newest turn only
		s.mu.Lock()
		s.history = append(s.history,
			Message{Role: RoleUser, Content: text},
			Message{Role: RoleAssistant, Content: b.String()},
		)
		s.mu.Unlock()
	}()

	return out, outErrs
}
