package notebook

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type JobStatus string

const (
	JobIdle             JobStatus = "idle"
	JobGeneratingScript JobStatus = "generating_script"
	JobGeneratingVideo  JobStatus = "generating_video"
	JobPolling          JobStatus = "polling"
	JobDone             JobStatus = "done"
	JobError            JobStatus = "error"
)

var ErrIllegalTransition = errors.New("illegal job transition")

var transitions = map[JobStatus][]JobStatus{
	JobIdle:             {JobGeneratingScript},
	JobGeneratingScript: {JobGeneratingVideo, JobError},
	JobGeneratingVideo:  {JobPolling, JobError},
	JobPolling:          {JobPolling, JobDone, JobError},
	JobDone:             {JobGeneratingScript},
	JobError:            {JobGeneratingScript},
}

// CanStart reports whether a new job may be started from s.
func (s JobStatus) CanStart() bool {
	return s == JobIdle || s == JobDone || s == JobError
}

// Running reports whether a job is in flight.
func (s JobStatus) Running() bool {
	switch s {
	case JobGeneratingScript, JobGeneratingVideo, JobPolling:
		return true
	}
	return false
}

func (s JobStatus) canMoveTo(next JobStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

var startableStatuses = []JobStatus{JobIdle, JobDone, JobError}

// Progress notes shown while a job runs.
const (
	NoteScript = "Generating conversational script..."
	NoteVideo  = "Generating podcast video..."
)

// PollingNotes is appended one entry per stage, in order, while the video job
// is pending. Once exhausted polling continues without notes.
var PollingNotes = []string{
	"Analyzing the source material...",
	"Drafting the storyboard...",
	"Generating initial video frames...",
	"Rendering the scenes...",
	"Adding audio and effects...",
	"Finalizing the video, almost there!",
}

// Failure messages recorded on the job.
const (
	MsgNoDownloadLink = "Video generation completed but no download link was found."
	MsgEmptyDownload  = "Downloaded video file is empty."
)

// Notes is stored as a JSON array.
type Notes []string

func (n Notes) Value() (driver.Value, error) {
	if n == nil {
		n = Notes{}
	}
	b, err := json.Marshal([]string(n))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (n *Notes) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*n = nil
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("notes: unsupported column type %T", src)
	}
	if len(b) == 0 {
		*n = nil
		return nil
	}
	return json.Unmarshal(b, (*[]string)(n))
}

// GenerationJob is the single live podcast job of a notebook. RunID changes
// every time a new job is started on the record.
type GenerationJob struct {
	NotebookID      string    `gorm:"primaryKey;size:26" json:"notebook_id"`
	RunID           string    `gorm:"size:26;index" json:"run_id"`
	Status          JobStatus `gorm:"type:varchar(24);index;not null" json:"status"`
	Notes           Notes     `gorm:"type:text" json:"progress_notes"`
	Script          string    `gorm:"type:longtext" json:"script"`
	VideoPrompt     string    `gorm:"type:longtext" json:"video_prompt"`
	OperationHandle string    `gorm:"type:varchar(255)" json:"-"`
	PollCount       int       `gorm:"not null;default:0" json:"poll_count"`
	MediaHandle     string    `gorm:"type:varchar(64)" json:"media_handle,omitempty"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (GenerationJob) TableName() string { return "generation_jobs" }

// moveTo changes the status after checking the transition table.
func (j *GenerationJob) moveTo(next JobStatus) error {
	if !j.Status.canMoveTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, j.Status, next)
	}
	j.Status = next
	return nil
}

func (j *GenerationJob) addNote(note string) {
	j.Notes = append(j.Notes, note)
}

// LatestNote is what a progress indicator shows.
func (j *GenerationJob) LatestNote() string {
	if len(j.Notes) == 0 {
		return ""
	}
	return j.Notes[len(j.Notes)-1]
}
