package notebook

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InlineDispatcher runs the pipeline on a goroutine of the current process,
// detached from the caller's cancellation.
type InlineDispatcher struct {
	gen *Generator
	log *zap.Logger
	wg  sync.WaitGroup
}

func NewInlineDispatcher(gen *Generator, log *zap.Logger) *InlineDispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &InlineDispatcher{gen: gen, log: log}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, notebookID, runID string) error {
	runCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		start := time.Now()
		if err := d.gen.Run(runCtx, notebookID, runID); err != nil {
			d.log.Error("generation run failed",
				zap.String("notebook_id", notebookID),
				zap.String("run_id", runID),
				zap.Duration("cost", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		d.log.Info("generation run finished",
			zap.String("notebook_id", notebookID),
			zap.String("run_id", runID),
			zap.Duration("cost", time.Since(start)),
		)
	}()
	return nil
}

// Wait blocks until every dispatched run has returned.
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}

// JobPublisher enqueues runs for an out-of-process worker.
type JobPublisher interface {
	PublishJob(ctx context.Context, notebookID, runID string) error
}

// QueueDispatcher hands runs to a worker through a JobPublisher.
type QueueDispatcher struct {
	pub JobPublisher
}

func NewQueueDispatcher(pub JobPublisher) *QueueDispatcher {
	return &QueueDispatcher{pub: pub}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, notebookID, runID string) error {
	return d.pub.PublishJob(ctx, notebookID, runID)
}
