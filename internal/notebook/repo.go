package notebook

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// CreateNotebook stores nb together with its idle job record.
func (r *Repo) CreateNotebook(ctx context.Context, nb *Notebook) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(nb).Error; err != nil {
			return err
		}
		return tx.Create(&GenerationJob{NotebookID: nb.ID, Status: JobIdle, Notes: Notes{}}).Error
	})
}

func (r *Repo) GetNotebook(ctx context.Context, id string) (*Notebook, error) {
	var nb Notebook
	if err := r.db.WithContext(ctx).First(&nb, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &nb, nil
}

// bumpRevision marks a change of the source collection and drops the
// conversation log, which was grounded on the previous collection.
func bumpRevision(tx *gorm.DB, notebookID string) (int64, error) {
	res := tx.Model(&Notebook{}).
		Where("id = ?", notebookID).
		UpdateColumn("source_revision", gorm.Expr("source_revision + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	if err := tx.Where("notebook_id = ?", notebookID).Delete(&Turn{}).Error; err != nil {
		return 0, fmt.Errorf("clear turns: %w", err)
	}
	var nb Notebook
	if err := tx.Select("source_revision").First(&nb, "id = ?", notebookID).Error; err != nil {
		return 0, notFound(err)
	}
	return nb.SourceRevision, nil
}

// AddSources appends sources and returns the new source revision.
func (r *Repo) AddSources(ctx context.Context, notebookID string, sources []Source) (int64, error) {
	var rev int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if rev, err = bumpRevision(tx, notebookID); err != nil {
			return err
		}
		for i := range sources {
			sources[i].NotebookID = notebookID
		}
		if len(sources) > 0 {
			return tx.Create(&sources).Error
		}
		return nil
	})
	return rev, err
}

func (r *Repo) DeleteSource(ctx context.Context, notebookID string, sourceID uint64) (int64, error) {
	var rev int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND notebook_id = ?", sourceID, notebookID).Delete(&Source{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		var err error
		rev, err = bumpRevision(tx, notebookID)
		return err
	})
	return rev, err
}

func (r *Repo) ClearSources(ctx context.Context, notebookID string) (int64, error) {
	var rev int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("notebook_id = ?", notebookID).Delete(&Source{}).Error; err != nil {
			return err
		}
		var err error
		rev, err = bumpRevision(tx, notebookID)
		return err
	})
	return rev, err
}

// ListSources returns sources in upload order.
func (r *Repo) ListSources(ctx context.Context, notebookID string) ([]Source, error) {
	var out []Source
	if err := r.db.WithContext(ctx).
		Where("notebook_id = ?", notebookID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountSources(ctx context.Context, notebookID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Source{}).Where("notebook_id = ?", notebookID).Count(&n).Error
	return n, err
}

func (r *Repo) InsertTurn(ctx context.Context, t *Turn) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) UpdateTurn(ctx context.Context, id uint64, text string, status TurnStatus) error {
	return r.db.WithContext(ctx).Model(&Turn{}).
		Where("id = ?", id).
		Updates(map[string]any{"text": text, "status": status}).Error
}

// ListTurns returns the conversation oldest first.
func (r *Repo) ListTurns(ctx context.Context, notebookID string) ([]Turn, error) {
	var out []Turn
	if err := r.db.WithContext(ctx).
		Where("notebook_id = ?", notebookID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetJob(ctx context.Context, notebookID string) (*GenerationJob, error) {
	var j GenerationJob
	if err := r.db.WithContext(ctx).First(&j, "notebook_id = ?", notebookID).Error; err != nil {
		return nil, notFound(err)
	}
	return &j, nil
}

// StartJob resets the job record for a new run. It only succeeds from a
// startable status and leaves the record untouched otherwise. The previous
// media handle is returned so the caller can discard the artifact.
func (r *Repo) StartJob(ctx context.Context, notebookID, runID string) (job *GenerationJob, prevMedia string, err error) {
	prev, err := r.GetJob(ctx, notebookID)
	if err != nil {
		return nil, "", err
	}
	if !prev.Status.CanStart() {
		return nil, "", ErrJobInProgress
	}

	res := r.db.WithContext(ctx).Model(&GenerationJob{}).
		Where("notebook_id = ? AND status IN ?", notebookID, startableStatuses).
		Updates(map[string]any{
			"run_id":           runID,
			"status":           JobGeneratingScript,
			"notes":            Notes{NoteScript},
			"script":           "",
			"video_prompt":     "",
			"operation_handle": "",
			"poll_count":       0,
			"media_handle":     "",
			"error":            "",
		})
	if res.Error != nil {
		return nil, "", res.Error
	}
	if res.RowsAffected == 0 {
		return nil, "", ErrJobInProgress
	}

	job, err = r.GetJob(ctx, notebookID)
	if err != nil {
		return nil, "", err
	}
	return job, prev.MediaHandle, nil
}

// SaveJob writes job if the stored record is still on the same run and in
// status from.
func (r *Repo) SaveJob(ctx context.Context, job *GenerationJob, from JobStatus) error {
	res := r.db.WithContext(ctx).Model(&GenerationJob{}).
		Where("notebook_id = ? AND run_id = ? AND status = ?", job.NotebookID, job.RunID, from).
		Updates(map[string]any{
			"status":           job.Status,
			"notes":            job.Notes,
			"script":           job.Script,
			"video_prompt":     job.VideoPrompt,
			"operation_handle": job.OperationHandle,
			"poll_count":       job.PollCount,
			"media_handle":     job.MediaHandle,
			"error":            job.Error,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRun
	}
	return nil
}

func (r *Repo) ListRunningJobs(ctx context.Context) ([]GenerationJob, error) {
	var out []GenerationJob
	err := r.db.WithContext(ctx).
		Where("status IN ?", []JobStatus{JobGeneratingScript, JobGeneratingVideo, JobPolling}).
		Find(&out).Error
	return out, err
}
