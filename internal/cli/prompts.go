package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newImproveCmd(app *App) *cobra.Command {
	var (
		save     bool
		category string
	)
	cmd := &cobra.Command{
		Use:   "improve <prompt...>",
		Short: "Rewrite a prompt with the assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			s := app.store
			s.SetCurrentPrompt(strings.Join(args, " "))
			r, err := s.BeginImprove()
			if err := run(cmd.Context(), r, err, s.Improve.Err); err != nil {
				return err
			}
			improved, _ := s.ImprovedPrompt()

			if save {
				r, err := s.BeginSave(category)
				if err := run(cmd.Context(), r, err, s.Save.Err); err != nil {
					return err
				}
			}
			return app.print(cmd, map[string]any{
				"original": s.CurrentPrompt(),
				"improved": improved,
				"saved":    save,
			}, func(w io.Writer) {
				fmt.Fprintln(w, improved)
				if save {
					fmt.Fprintln(w, "(saved)")
				}
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Save the improved prompt on the server")
	cmd.Flags().StringVar(&category, "category", "", "Category for --save")
	return cmd
}

func newPromptsCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List the prompt improvement history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			s := app.store
			r, err := s.BeginHistory()
			if err := run(cmd.Context(), r, err, s.History.Err); err != nil {
				return err
			}
			history := s.PromptHistory()
			if limit > 0 && len(history) > limit {
				history = history[:limit]
			}
			return app.print(cmd, history, func(w io.Writer) {
				if len(history) == 0 {
					fmt.Fprintln(w, "No prompt history.")
					return
				}
				for _, h := range history {
					fmt.Fprintf(w, "%s  %s\n  → %s\n", h.Timestamp.Local().Format("2006-01-02 15:04"), h.Original, h.Improved)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many entries")
	return cmd
}
