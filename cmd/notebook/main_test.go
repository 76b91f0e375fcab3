package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodonfoto/MemoryLM/internal/events"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

func TestLoadUploads(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("alpha"), 0o600))

	got, err := loadUploads([]string{p})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "notes.txt", got[0].Name)
	assert.Equal(t, []byte("alpha"), got[0].Data)
	assert.Empty(t, got[0].MIMEType)

	_, err = loadUploads([]string{filepath.Join(dir, "missing.txt")})
	assert.Error(t, err)
}

func TestScriptMarkdown(t *testing.T) {
	md := scriptMarkdown("Host A: Hello\n\nHost B: Hi there\nno speaker here")
	assert.Equal(t, "# Podcast script\n\n**Host A:** Hello\n\n**Host B:** Hi there\n\nno speaker here\n\n", md)
}

func TestPrintNotes(t *testing.T) {
	updates := make(chan events.Event, 4)
	for _, notes := range [][]string{
		{notebook.NoteScript},
		{notebook.NoteScript},
		{notebook.NoteScript, notebook.NoteVideo},
	} {
		ev, err := events.New(events.JobUpdated, "nb", notebook.GenerationJob{Notes: notes})
		require.NoError(t, err)
		updates <- ev
	}
	ev, err := events.New(events.SourcesChanged, "nb", nil)
	require.NoError(t, err)
	updates <- ev
	close(updates)

	var buf bytes.Buffer
	printNotes(&buf, updates)
	assert.Equal(t, "... "+notebook.NoteScript+"\n... "+notebook.NoteVideo+"\n", buf.String())
}

func TestPrintScriptRaw(t *testing.T) {
	rawPrint = true
	t.Cleanup(func() { rawPrint = false })

	var buf bytes.Buffer
	require.NoError(t, printScript(&buf, "A: one"))
	assert.Contains(t, buf.String(), "**A:** one")
}
