package notebook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fodonfoto/MemoryLM/internal/ai"
	"github.com/fodonfoto/MemoryLM/internal/common"
	"github.com/fodonfoto/MemoryLM/internal/events"
	"github.com/fodonfoto/MemoryLM/internal/media"
)

const DefaultPollInterval = 10 * time.Second

// Dispatcher hands a started run to whatever executes the pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, notebookID, runID string) error
}

type GeneratorOptions struct {
	PollInterval time.Duration
	// MaxPollAttempts <= 0 polls until the backend reports completion.
	MaxPollAttempts int
}

// Generator drives podcast generation: script, video submission, polling and
// download.
type Generator struct {
	repo   *Repo
	studio ai.Studio
	media  media.Store
	bus    events.Bus
	log    *zap.Logger
	opts   GeneratorOptions

	dispatcher Dispatcher
}

func NewGenerator(repo *Repo, studio ai.Studio, store media.Store, bus events.Bus, log *zap.Logger, opts GeneratorOptions) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Generator{repo: repo, studio: studio, media: store, bus: bus, log: log, opts: opts}
}

// SetDispatcher selects how Start hands off runs.
func (g *Generator) SetDispatcher(d Dispatcher) {
	g.dispatcher = d
}

// Job returns the notebook's job record.
func (g *Generator) Job(ctx context.Context, notebookID string) (*GenerationJob, error) {
	return g.repo.GetJob(ctx, notebookID)
}

// Start begins a new run. It is rejected with ErrJobInProgress while a run is
// in flight, leaving the record untouched, and with ErrNoSources when the
// notebook is empty.
func (g *Generator) Start(ctx context.Context, notebookID string) (*GenerationJob, error) {
	if g.studio == nil {
		return nil, ErrNoStudio
	}
	if _, err := g.repo.GetNotebook(ctx, notebookID); err != nil {
		return nil, err
	}
	n, err := g.repo.CountSources(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoSources
	}

	runID, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	job, prevMedia, err := g.repo.StartJob(ctx, notebookID, runID)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, job)

	if prevMedia != "" && g.media != nil {
		if err := g.media.Delete(ctx, prevMedia); err != nil {
			g.log.Warn("discard previous media failed", zap.String("media_handle", prevMedia), zap.Error(err))
		}
	}

	if g.dispatcher == nil {
		return job, nil
	}
	if err := g.dispatcher.Dispatch(ctx, notebookID, runID); err != nil {
		g.log.Error("dispatch generation failed", zap.String("notebook_id", notebookID), zap.Error(err))
		if serr := g.transition(ctx, job, JobError, func(j *GenerationJob) {
			j.Error = fmt.Sprintf("failed to start generation: %v", err)
		}); serr != nil {
			return nil, serr
		}
	}
	return job, nil
}

// Run executes one run of the pipeline to a terminal status. A run found in
// generating_video or polling resumes from that stage; runs that are no
// longer current are skipped. Stage failures end in the error status and are
// not returned; the error return is for storage failures and ctx.
func (g *Generator) Run(ctx context.Context, notebookID, runID string) error {
	job, err := g.repo.GetJob(ctx, notebookID)
	if err != nil {
		return err
	}
	if job.RunID != runID || !job.Status.Running() {
		g.log.Info("skip stale generation run",
			zap.String("notebook_id", notebookID),
			zap.String("run_id", runID),
			zap.String("status", string(job.Status)),
		)
		return nil
	}

	err = g.run(ctx, job)
	if errors.Is(err, ErrStaleRun) {
		g.log.Info("generation run superseded", zap.String("notebook_id", notebookID), zap.String("run_id", runID))
		return nil
	}
	return err
}

// ResumeRunning dispatches every run left in flight, for instance by a
// restart of the process that executed it.
func (g *Generator) ResumeRunning(ctx context.Context) (int, error) {
	if g.dispatcher == nil {
		return 0, errors.New("no dispatcher configured")
	}
	jobs, err := g.repo.ListRunningJobs(ctx)
	if err != nil {
		return 0, err
	}
	for _, j := range jobs {
		if err := g.dispatcher.Dispatch(ctx, j.NotebookID, j.RunID); err != nil {
			return 0, fmt.Errorf("resume %s: %w", j.NotebookID, err)
		}
	}
	return len(jobs), nil
}

// stageError is a failure that ends the run in the error status.
type stageError struct {
	msg string
}

func (e *stageError) Error() string { return e.msg }

func failf(format string, args ...any) error {
	return &stageError{msg: fmt.Sprintf(format, args...)}
}

func (g *Generator) run(ctx context.Context, job *GenerationJob) error {
	err := g.stages(ctx, job)
	var se *stageError
	if !errors.As(err, &se) {
		return err
	}

	g.log.Warn("generation failed",
		zap.String("notebook_id", job.NotebookID),
		zap.String("run_id", job.RunID),
		zap.String("status", string(job.Status)),
		zap.String("error", se.msg),
	)
	return g.transition(ctx, job, JobError, func(j *GenerationJob) {
		j.Error = se.msg
	})
}

func (g *Generator) stages(ctx context.Context, job *GenerationJob) error {
	if job.Status == JobGeneratingScript {
		if err := g.writeScript(ctx, job); err != nil {
			return err
		}
	}

	st := ai.VideoStatus{Handle: job.OperationHandle}
	if job.Status == JobGeneratingVideo {
		var err error
		if st, err = g.submitVideo(ctx, job); err != nil {
			return err
		}
	}
	return g.awaitVideo(ctx, job, st)
}

func (g *Generator) writeScript(ctx context.Context, job *GenerationJob) error {
	sources, err := g.repo.ListSources(ctx, job.NotebookID)
	if err != nil {
		return err
	}
	attachments, err := Attachments(sources)
	if err != nil {
		return failf("%v", err)
	}

	raw, err := g.studio.GenerateScript(ctx, ScriptPrompt(KnowledgeBase(sources)), attachments)
	if err != nil {
		return failf("%v", err)
	}
	script, err := ai.ParseScript(raw)
	if err != nil {
		return failf("%v", err)
	}

	return g.transition(ctx, job, JobGeneratingVideo, func(j *GenerationJob) {
		j.Script = script.Script
		j.VideoPrompt = script.VideoPrompt
		j.addNote(NoteVideo)
	})
}

func (g *Generator) submitVideo(ctx context.Context, job *GenerationJob) (ai.VideoStatus, error) {
	st, err := g.studio.SubmitVideo(ctx, job.VideoPrompt)
	if err != nil {
		return st, failf("%v", err)
	}
	err = g.transition(ctx, job, JobPolling, func(j *GenerationJob) {
		j.OperationHandle = st.Handle
		j.addNote(PollingNotes[0])
	})
	return st, err
}

// pollingNotesUsed counts the catalog entries already on the job.
func pollingNotesUsed(notes Notes) int {
	n := 0
	for _, note := range notes {
		if n < len(PollingNotes) && note == PollingNotes[n] {
			n++
		}
	}
	return n
}

func (g *Generator) awaitVideo(ctx context.Context, job *GenerationJob, st ai.VideoStatus) error {
	next := pollingNotesUsed(job.Notes)
	for !st.Done {
		if g.opts.MaxPollAttempts > 0 && job.PollCount >= g.opts.MaxPollAttempts {
			return failf("video generation did not complete after %d polls", job.PollCount)
		}
		if err := sleep(ctx, g.opts.PollInterval); err != nil {
			return err
		}

		var err error
		st, err = g.studio.PollVideo(ctx, job.OperationHandle)
		if err != nil {
			return failf("%v", err)
		}

		if err := g.transition(ctx, job, JobPolling, func(j *GenerationJob) {
			j.PollCount++
			if !st.Done && next < len(PollingNotes) {
				j.addNote(PollingNotes[next])
				next++
			}
		}); err != nil {
			return err
		}
	}

	if st.VideoURI == "" {
		return failf(MsgNoDownloadLink)
	}

	art, err := g.studio.Download(ctx, st.VideoURI)
	if err != nil {
		var se *ai.DownloadStatusError
		switch {
		case errors.As(err, &se):
			return failf("Failed to download video. Status: %d. Message: %s", se.StatusCode, se.Message)
		case errors.Is(err, ai.ErrEmptyDownload):
			return failf(MsgEmptyDownload)
		}
		return failf("failed to download video: %v", err)
	}
	if len(art.Data) == 0 {
		return failf(MsgEmptyDownload)
	}

	handle, err := g.media.Put(ctx, art.Data, art.MIMEType)
	if err != nil {
		return failf("failed to store video: %v", err)
	}

	return g.transition(ctx, job, JobDone, func(j *GenerationJob) {
		j.MediaHandle = handle
	})
}

// transition applies mutate, moves job to next and persists it. The stored
// record must still be on the same run and status.
func (g *Generator) transition(ctx context.Context, job *GenerationJob, next JobStatus, mutate func(*GenerationJob)) error {
	from := job.Status
	updated := *job
	updated.Notes = append(Notes(nil), job.Notes...)
	if mutate != nil {
		mutate(&updated)
	}
	if err := updated.moveTo(next); err != nil {
		return err
	}
	if err := g.repo.SaveJob(ctx, &updated, from); err != nil {
		return err
	}
	*job = updated
	g.publish(ctx, job)
	return nil
}

func (g *Generator) publish(ctx context.Context, job *GenerationJob) {
	if g.bus == nil {
		return
	}
	publish(ctx, g.bus, g.log, events.JobUpdated, job.NotebookID, job)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
