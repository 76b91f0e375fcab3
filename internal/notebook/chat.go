package notebook

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/ai"
	"github.com/fodonfoto/MemoryLM/internal/events"
)

// ChatReply is the streamed answer to one message. Chunks carries text deltas
// and is closed when the reply ends; Done then yields the final assistant
// turn, which is either the full answer or the fixed error reply.
type ChatReply struct {
	UserTurn      Turn
	AssistantTurn Turn
	Chunks        <-chan string
	Done          <-chan Turn
}

// SendMessageStream records the user's turn and an empty assistant turn,
// then streams the reply into that turn. Only one reply per notebook may be
// in flight. The reply keeps running if ctx is cancelled; only delivery to
// the caller stops.
func (s *Service) SendMessageStream(ctx context.Context, notebookID, text string) (*ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if !s.acquire(notebookID) {
		return nil, ErrChatBusy
	}
	release := true
	defer func() {
		if release {
			s.releaseChat(notebookID)
		}
	}()

	nb, err := s.repo.GetNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	sources, err := s.repo.ListSources(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	attachments, err := Attachments(sources)
	if err != nil {
		return nil, err
	}

	user := Turn{NotebookID: notebookID, Role: RoleUser, Text: text, Status: TurnComplete}
	if err := s.repo.InsertTurn(ctx, &user); err != nil {
		return nil, err
	}
	assistant := Turn{NotebookID: notebookID, Role: RoleAssistant, Status: TurnStreaming}
	if err := s.repo.InsertTurn(ctx, &assistant); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TurnUpdated, notebookID, user)
	s.publish(ctx, events.TurnUpdated, notebookID, assistant)

	chunks := make(chan string, 16)
	done := make(chan Turn, 1)
	release = false

	go func() {
		defer close(done)

		bg := context.WithoutCancel(ctx)
		final := s.streamReply(bg, ctx, nb, sources, attachments, text, assistant, chunks)
		close(chunks)
		s.releaseChat(notebookID)
		done <- final
	}()

	return &ChatReply{UserTurn: user, AssistantTurn: assistant, Chunks: chunks, Done: done}, nil
}

// streamReply runs on bg and forwards deltas to out while caller is alive.
func (s *Service) streamReply(bg, caller context.Context, nb *Notebook, sources []Source, attachments []ai.Attachment, text string, turn Turn, out chan<- string) Turn {
	session, err := s.session(bg, nb, sources)
	if err != nil {
		return s.failTurn(bg, turn, err)
	}

	pChunks, pErrs := session.SendStream(bg, text, attachments)

	var b strings.Builder
	forward := true
	for c := range pChunks {
		b.WriteString(c)
		turn.Text = b.String()
		if err := s.repo.UpdateTurn(bg, turn.ID, turn.Text, TurnStreaming); err != nil {
			s.log.Warn("update turn failed", zap.Uint64("turn_id", turn.ID), zap.Error(err))
		}
		s.publish(bg, events.TurnUpdated, nb.ID, turn)

		if forward {
			select {
			case out <- c:
			case <-caller.Done():
				forward = false
			}
		}
	}
	if err := <-pErrs; err != nil {
		return s.failTurn(bg, turn, err)
	}

	turn.Status = TurnComplete
	if err := s.repo.UpdateTurn(bg, turn.ID, turn.Text, turn.Status); err != nil {
		s.log.Warn("update turn failed", zap.Uint64("turn_id", turn.ID), zap.Error(err))
	}
	s.publish(bg, events.TurnUpdated, nb.ID, turn)
	return turn
}

// failTurn turns a placeholder or partial reply into the fixed error reply.
func (s *Service) failTurn(ctx context.Context, turn Turn, cause error) Turn {
	s.log.Error("chat reply failed",
		zap.String("notebook_id", turn.NotebookID),
		zap.Uint64("turn_id", turn.ID),
		zap.Error(cause),
	)
	turn.Text = ChatErrorReply
	turn.Status = TurnFailed
	if err := s.repo.UpdateTurn(ctx, turn.ID, turn.Text, turn.Status); err != nil {
		s.log.Warn("update turn failed", zap.Uint64("turn_id", turn.ID), zap.Error(err))
	}
	s.publish(ctx, events.TurnUpdated, turn.NotebookID, turn)
	return turn
}

// session returns the chat session bound to the notebook's current source
// revision, building a new one when the sources changed since binding.
func (s *Service) session(ctx context.Context, nb *Notebook, sources []Source) (ai.ChatSession, error) {
	s.mu.Lock()
	b := s.sessions[nb.ID]
	s.mu.Unlock()
	if b != nil && b.revision == nb.SourceRevision {
		return b.session, nil
	}

	if s.chat == nil {
		return nil, errors.New("no chat provider configured")
	}
	sess, err := s.chat.NewSession(ctx, SystemInstruction(KnowledgeBase(sources)))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[nb.ID] = &chatBinding{revision: nb.SourceRevision, session: sess}
	s.mu.Unlock()
	return sess, nil
}

func (s *Service) acquire(notebookID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[notebookID] {
		return false
	}
	s.inFlight[notebookID] = true
	return true
}

func (s *Service) releaseChat(notebookID string) {
	s.mu.Lock()
	delete(s.inFlight, notebookID)
	s.mu.Unlock()
}

// ChatBusy reports whether a reply is streaming for the notebook.
func (s *Service) ChatBusy(notebookID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[notebookID]
}
