package notebook

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoSources     = errors.New("notebook has no sources")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrChatBusy      = errors.New("a chat reply is already in progress")
	ErrJobInProgress = errors.New("a generation job is already in progress")
	ErrNoStudio      = errors.New("podcast generation is not configured")
	// ErrStaleRun means the job record moved on to another run.
	ErrStaleRun = errors.New("generation run is no longer current")
)
