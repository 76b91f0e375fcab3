package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStream struct {
	calls  [][]Message
	chunks []string
	err    error
}

func (s *scriptedStream) StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	s.calls = append(s.calls, append([]Message(nil), messages...))
	chunks := make(chan string, len(s.chunks))
	errs := make(chan error, 1)
	for _, c := range s.chunks {
		chunks <- c
	}
	if s.err != nil {
		errs <- s.err
	}
	close(errs)
	close(chunks)
	return chunks, errs
}

// drain collects a streamed reply: drain(t)(sess.SendStream(...)).
func drain(t *testing.T) func(<-chan string, <-chan error) (string, error) {
	t.Helper()
	return func(chunks <-chan string, errs <-chan error) (string, error) {
		var out string
		for c := range chunks {
			out += c
		}
		return out, <-errs
	}
}

func TestHistorySession_ReplaysSystemAndTurns(t *testing.T) {
	p := &scriptedStream{chunks: []string{"Par", "is"}}
	sess := NewHistorySession(p, "grounding")

	img := Attachment{Name: "a.png", MIMEType: "image/png", Data: []byte{1, 2}}
	reply, err := drain(t)(sess.SendStream(context.Background(), "capital?", []Attachment{img}))
	require.NoError(t, err)
	assert.Equal(t, "Paris", reply)

	_, err = drain(t)(sess.SendStream(context.Background(), "again", []Attachment{img}))
	require.NoError(t, err)

	require.Len(t, p.calls, 2)
	first := p.calls[0]
	require.Len(t, first, 2)
	assert.Equal(t, RoleSystem, first[0].Role)
	assert.Equal(t, "grounding", first[0].Content)
	assert.Len(t, first[1].Attachments, 1)

	second := p.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, RoleUser, second[1].Role)
	assert.Empty(t, second[1].Attachments)
	assert.Equal(t, RoleAssistant, second[2].Role)
	assert.Equal(t, "Paris", second[2].Content)
	assert.Len(t, second[3].Attachments, 1, "attachments go with every new turn")
}

func TestHistorySession_FailedTurnIsNotRemembered(t *testing.T) {
	p := &scriptedStream{chunks: []string{"partial"}, err: errors.New("boom")}
	sess := NewHistorySession(p, "sys")

	_, err := drain(t)(sess.SendStream(context.Background(), "q", nil))
	assert.EqualError(t, err, "boom")

	p.err = nil
	_, err = drain(t)(sess.SendStream(context.Background(), "q2", nil))
	require.NoError(t, err)
	assert.Len(t, p.calls[1], 2)
}
