package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/fodonfoto/MemoryLM/internal/events"
	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

var (
	outPath  string
	rawPrint bool
)

var podcastCmd = &cobra.Command{
	Use:   "podcast",
	Short: "Generate a two-host podcast script and video from the sources",
	Long: `Writes the script with Gemini, renders the video with Veo and saves it.
Progress notes are printed to stderr while the video renders.`,
	Args: cobra.NoArgs,
	RunE: runPodcast,
}

func init() {
	podcastCmd.Flags().StringVarP(&outPath, "out", "o", "podcast.mp4", "where to save the video")
	podcastCmd.Flags().BoolVar(&rawPrint, "raw", false, "print the script without markdown rendering")
}

func runPodcast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	gen := s.app.Generator
	dispatcher := notebook.NewInlineDispatcher(gen, logger)
	gen.SetDispatcher(dispatcher)

	subCtx, cancel := context.WithCancel(ctx)
	updates, err := s.app.Bus.Subscribe(subCtx, s.nb.ID)
	if err != nil {
		cancel()
		return err
	}
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printNotes(cmd.ErrOrStderr(), updates)
	}()

	_, err = gen.Start(ctx, s.nb.ID)
	if err == nil {
		dispatcher.Wait()
	}
	cancel()
	<-printed
	if err != nil {
		return err
	}

	job, err := gen.Job(ctx, s.nb.ID)
	if err != nil {
		return err
	}
	if job.Script != "" {
		if err := printScript(cmd.OutOrStdout(), job.Script); err != nil {
			return err
		}
	}
	if job.Status != notebook.JobDone {
		return fmt.Errorf("%s%s", notebook.GenerationErrorPrefix, job.Error)
	}

	obj, err := s.app.Media.Get(ctx, job.MediaHandle)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, obj.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved %s (%d bytes)\n", outPath, len(obj.Data))
	return nil
}

// printNotes writes each new progress note of the job until updates closes.
func printNotes(w io.Writer, updates <-chan events.Event) {
	last := ""
	for ev := range updates {
		if ev.Type != events.JobUpdated {
			continue
		}
		var job notebook.GenerationJob
		if err := json.Unmarshal(ev.Data, &job); err != nil {
			continue
		}
		if note := job.LatestNote(); note != "" && note != last {
			fmt.Fprintf(w, "... %s\n", note)
			last = note
		}
	}
}

// scriptMarkdown keeps one speaker line per paragraph.
func scriptMarkdown(script string) string {
	var b strings.Builder
	b.WriteString("# Podcast script\n\n")
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if speaker, text, ok := strings.Cut(line, ":"); ok && len(speaker) < 40 {
			fmt.Fprintf(&b, "**%s:**%s\n\n", strings.TrimSpace(speaker), text)
			continue
		}
		b.WriteString(line + "\n\n")
	}
	return b.String()
}

func printScript(w io.Writer, script string) error {
	md := scriptMarkdown(script)
	if rawPrint {
		_, err := io.WriteString(w, md)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
