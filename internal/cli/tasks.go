package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"thronemind/internal/models"
	"thronemind/internal/state"
)

func newTaskStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "task-status <task-id> <NOT_STARTED|IN_PROGRESS|DONE>",
		Short: "Set the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			status := models.TaskStatus(strings.ToUpper(strings.TrimSpace(args[1])))
			if !status.Valid() {
				return fmt.Errorf("invalid status %q (want NOT_STARTED, IN_PROGRESS or DONE)", args[1])
			}

			s := app.store
			r, err := s.BeginTaskStatus(id, status)
			if err := run(cmd.Context(), r, err, s.TaskStatus.Err); err != nil {
				return err
			}
			return app.print(cmd, models.TaskStatusUpdate{ID: id, Status: s.Status(id)}, func(w io.Writer) {
				fmt.Fprintf(w, "Task #%d is now %s\n", id, s.Status(id))
			})
		},
	}
}

func newSummaryCmd(app *App) *cobra.Command {
	var withPrompts bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show today's summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			s := app.store

			sumRun, err := s.BeginSummary()
			if err != nil {
				return err
			}
			runners := []state.Runner{sumRun}
			if withPrompts {
				histRun, err := s.BeginHistory()
				if err != nil {
					return err
				}
				runners = append(runners, histRun)
			}

			// The calls run concurrently and independently; their results are
			// applied here, on the goroutine that owns the store.
			settled := make([]state.Settlement, len(runners))
			var g errgroup.Group
			for i, r := range runners {
				g.Go(func() error {
					settled[i] = r.Run(cmd.Context())
					return nil
				})
			}
			_ = g.Wait()
			for _, st := range settled {
				st.Apply()
			}

			if err := failure(settled[0].Err(), s.Summary.Err); err != nil {
				return err
			}
			daily, _ := s.DailySummary()
			out := map[string]any{"summary": daily}
			if withPrompts {
				if err := failure(settled[1].Err(), s.History.Err); err != nil {
					return err
				}
				out["prompts"] = s.PromptHistory()
			}

			return app.print(cmd, out, func(w io.Writer) {
				printSummary(w, daily)
				if withPrompts {
					fmt.Fprintf(w, "\nPrompt history: %d entries\n", len(s.PromptHistory()))
					for i, h := range s.PromptHistory() {
						if i == 5 {
							break
						}
						fmt.Fprintf(w, "  • %s\n", h.Improved)
					}
				}
			})
		},
	}
	cmd.Flags().BoolVar(&withPrompts, "with-prompts", false, "Also fetch the prompt history, concurrently")
	return cmd
}

func printSummary(w io.Writer, d models.DailySummary) {
	fmt.Fprintf(w, "%s\n", d.Date)
	fmt.Fprintf(w, "Reign %.0f%%  Productivity %.0f  Done %d  Focus %.1fh  Deadlines %d\n",
		d.ReignPercent, d.ProductivityScore, d.TasksDone, d.FocusTimeHours, d.Deadlines)
	if d.YesterdaysVictory != "" {
		fmt.Fprintf(w, "Yesterday: %s\n", d.YesterdaysVictory)
	}
	if d.TodaysFocus != "" {
		fmt.Fprintf(w, "Today: %s\n", d.TodaysFocus)
	}
	for _, r := range d.AIRecommendations {
		fmt.Fprintf(w, "  💡 %s\n", r)
	}
	for _, n := range d.RecentNotes {
		fmt.Fprintf(w, "  ✎ %s\n", n.Content)
	}
}
