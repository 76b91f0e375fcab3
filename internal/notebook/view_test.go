package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildView(t *testing.T) {
	nb := &Notebook{ID: "nb"}
	src := []Source{{Name: "a.txt", Kind: KindText}}

	t.Run("no sources", func(t *testing.T) {
		v := BuildView(nb, nil, nil, &GenerationJob{Status: JobIdle}, false)
		assert.False(t, v.Chat.InputEnabled)
		assert.Equal(t, PlaceholderNoSources, v.Chat.Placeholder)
		assert.Equal(t, ChatEmptyNoSources, v.Chat.EmptyText)
		assert.Equal(t, SourcesEmptyText, v.Sources.EmptyText)
		assert.False(t, v.Tools.CanGenerate)
		assert.Equal(t, ButtonGenerate, v.Tools.ButtonLabel)
		assert.NotNil(t, v.Sources.Sources)
		assert.NotNil(t, v.Chat.Turns)
	})

	t.Run("with sources", func(t *testing.T) {
		v := BuildView(nb, src, nil, &GenerationJob{Status: JobIdle}, false)
		assert.True(t, v.Chat.InputEnabled)
		assert.Equal(t, PlaceholderWithSources, v.Chat.Placeholder)
		assert.Equal(t, ChatEmptyWithSources, v.Chat.EmptyText)
		assert.Empty(t, v.Sources.EmptyText)
		assert.True(t, v.Tools.CanGenerate)
	})

	t.Run("conversation present", func(t *testing.T) {
		v := BuildView(nb, src, []Turn{{Role: RoleUser, Text: "hi"}}, nil, false)
		assert.Empty(t, v.Chat.EmptyText)
		assert.True(t, v.Tools.CanGenerate, "a missing job record counts as idle")
	})

	t.Run("running job", func(t *testing.T) {
		job := &GenerationJob{Status: JobPolling, Notes: Notes{NoteScript, NoteVideo, PollingNotes[0]}}
		v := BuildView(nb, src, nil, job, true)
		assert.False(t, v.Tools.CanGenerate)
		assert.Equal(t, ButtonGenerating, v.Tools.ButtonLabel)
		assert.Equal(t, PollingNotes[0], v.Tools.ProgressNote)
		assert.False(t, v.Chat.InputEnabled)
		assert.True(t, v.Chat.Busy)
	})

	t.Run("failed job", func(t *testing.T) {
		job := &GenerationJob{Status: JobError, Error: MsgEmptyDownload, Script: "kept"}
		v := BuildView(nb, src, nil, job, false)
		assert.True(t, v.Tools.CanGenerate)
		assert.Equal(t, ButtonGenerate, v.Tools.ButtonLabel)
		assert.Empty(t, v.Tools.ProgressNote)
		assert.Equal(t, "Error generating podcast: Downloaded video file is empty.", v.Tools.ErrorText)
		assert.Equal(t, "kept", v.Tools.Job.Script)
	})
}
