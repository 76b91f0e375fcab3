package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTransitions(t *testing.T) {
	legal := map[JobStatus][]JobStatus{
		JobIdle:             {JobGeneratingScript},
		JobGeneratingScript: {JobGeneratingVideo, JobError},
		JobGeneratingVideo:  {JobPolling, JobError},
		JobPolling:          {JobPolling, JobDone, JobError},
		JobDone:             {JobGeneratingScript},
		JobError:            {JobGeneratingScript},
	}
	all := []JobStatus{JobIdle, JobGeneratingScript, JobGeneratingVideo, JobPolling, JobDone, JobError}

	for _, from := range all {
		for _, to := range all {
			j := &GenerationJob{Status: from}
			err := j.moveTo(to)
			if contains(legal[from], to) {
				assert.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, j.Status)
			} else {
				assert.ErrorIs(t, err, ErrIllegalTransition, "%s -> %s", from, to)
				assert.Equal(t, from, j.Status)
			}
		}
	}
}

func contains(list []JobStatus, s JobStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestJobStatusPredicates(t *testing.T) {
	for _, s := range []JobStatus{JobIdle, JobDone, JobError} {
		assert.True(t, s.CanStart(), s)
		assert.False(t, s.Running(), s)
	}
	for _, s := range []JobStatus{JobGeneratingScript, JobGeneratingVideo, JobPolling} {
		assert.False(t, s.CanStart(), s)
		assert.True(t, s.Running(), s)
	}
}

func TestNotesColumn(t *testing.T) {
	v, err := Notes{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = Notes(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	var n Notes
	require.NoError(t, n.Scan([]byte(`["x"]`)))
	assert.Equal(t, Notes{"x"}, n)
	require.NoError(t, n.Scan(nil))
	assert.Nil(t, n)
	assert.Error(t, n.Scan(42))
}

func TestPollingCatalog(t *testing.T) {
	require.GreaterOrEqual(t, len(PollingNotes), 6)
	assert.Equal(t, 0, pollingNotesUsed(Notes{NoteScript, NoteVideo}))
	assert.Equal(t, 2, pollingNotesUsed(Notes{NoteScript, NoteVideo, PollingNotes[0], PollingNotes[1]}))
}
