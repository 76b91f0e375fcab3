package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fodonfoto/MemoryLM/internal/notebook"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]...",
	Short: "Ask questions grounded in the sources",
	Long: `Each argument is sent as one chat turn, in order, so later questions
can refer to earlier answers. Replies stream to stdout.

Example:
  notebook ask -f notes.txt -f map.png "What is the capital?" "How far is it from the coast?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	for i, q := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "> %s\n", strings.TrimSpace(q))

		reply, err := s.app.Notebooks.SendMessageStream(ctx, s.nb.ID, q)
		if err != nil {
			return err
		}
		for chunk := range reply.Chunks {
			fmt.Fprint(out, chunk)
		}
		final := <-reply.Done
		fmt.Fprintln(out)
		if final.Status == notebook.TurnFailed {
			return fmt.Errorf("chat failed on %q", q)
		}
	}
	return nil
}
