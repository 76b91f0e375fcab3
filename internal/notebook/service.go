package notebook

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/ai"
	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/events"
)

// chatBinding is a chat session together with the source revision its
// instruction preamble was built from.
type chatBinding struct {
	revision int64
	session  ai.ChatSession
}

// Service owns notebooks, their sources and the grounded conversation.
type Service struct {
	repo *Repo
	chat ai.ChatProvider
	bus  events.Bus
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*chatBinding
	inFlight map[string]bool
}

func NewService(repo *Repo, chat ai.ChatProvider, bus events.Bus, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		chat:     chat,
		bus:      bus,
		log:      log,
		sessions: make(map[string]*chatBinding),
		inFlight: make(map[string]bool),
	}
}

func (s *Service) CreateNotebook(ctx context.Context, title string) (*Notebook, error) {
	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	nb := &Notebook{ID: id, Title: strings.TrimSpace(title)}
	if err := s.repo.CreateNotebook(ctx, nb); err != nil {
		return nil, fmt.Errorf("create notebook: %w", err)
	}
	return nb, nil
}

func (s *Service) GetNotebook(ctx context.Context, id string) (*Notebook, error) {
	return s.repo.GetNotebook(ctx, id)
}

// AddSources classifies and stores uploads. Files of an unsupported type are
// dropped with a warning. When anything was added the chat session is
// discarded and the conversation cleared.
func (s *Service) AddSources(ctx context.Context, notebookID string, uploads []Upload) ([]Source, error) {
	if _, err := s.repo.GetNotebook(ctx, notebookID); err != nil {
		return nil, err
	}

	accepted := make([]Source, 0, len(uploads))
	for _, u := range uploads {
		src, err := newSource(u)
		if err != nil {
			s.log.Warn("source dropped",
				zap.String("notebook_id", notebookID),
				zap.String("name", u.Name),
				zap.Error(err),
			)
			continue
		}
		accepted = append(accepted, src)
	}
	if len(accepted) == 0 {
		return accepted, nil
	}

	rev, err := s.repo.AddSources(ctx, notebookID, accepted)
	if err != nil {
		return nil, fmt.Errorf("add sources: %w", err)
	}
	s.sourcesChanged(ctx, notebookID, rev)
	return accepted, nil
}

func (s *Service) RemoveSource(ctx context.Context, notebookID string, sourceID uint64) error {
	rev, err := s.repo.DeleteSource(ctx, notebookID, sourceID)
	if err != nil {
		return err
	}
	s.sourcesChanged(ctx, notebookID, rev)
	return nil
}

func (s *Service) ClearSources(ctx context.Context, notebookID string) error {
	rev, err := s.repo.ClearSources(ctx, notebookID)
	if err != nil {
		return err
	}
	s.sourcesChanged(ctx, notebookID, rev)
	return nil
}

func (s *Service) ListSources(ctx context.Context, notebookID string) ([]Source, error) {
	if _, err := s.repo.GetNotebook(ctx, notebookID); err != nil {
		return nil, err
	}
	return s.repo.ListSources(ctx, notebookID)
}

func (s *Service) ListTurns(ctx context.Context, notebookID string) ([]Turn, error) {
	if _, err := s.repo.GetNotebook(ctx, notebookID); err != nil {
		return nil, err
	}
	return s.repo.ListTurns(ctx, notebookID)
}

func (s *Service) sourcesChanged(ctx context.Context, notebookID string, rev int64) {
	s.mu.Lock()
	delete(s.sessions, notebookID)
	s.mu.Unlock()

	s.publish(ctx, events.SourcesChanged, notebookID, map[string]int64{"source_revision": rev})
}

func (s *Service) publish(ctx context.Context, typ, notebookID string, data any) {
	if s.bus == nil {
		return
	}
	publish(ctx, s.bus, s.log, typ, notebookID, data)
}

// publish logs and otherwise ignores bus failures.
func publish(ctx context.Context, bus events.Bus, log *zap.Logger, typ, notebookID string, data any) {
	ev, err := events.New(typ, notebookID, data)
	if err == nil {
		err = bus.Publish(ctx, ev)
	}
	if err != nil {
		log.Warn("publish event failed",
			zap.String("type", typ),
			zap.String("notebook_id", notebookID),
			zap.Error(err),
		)
	}
}
