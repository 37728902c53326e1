package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"thronemind/internal/models"
	"thronemind/internal/state"
)

var errNoConversation = errors.New("no stored conversation; run `thronemind act` first")

func newActCmd(app *App) *cobra.Command {
	var (
		photo        string
		conversation int64
	)
	cmd := &cobra.Command{
		Use:   "act [prompt...]",
		Short: "Send a message (or a photo) to the assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			s := app.store
			if conversation != 0 {
				if err := s.LoadConversation(conversation); err != nil {
					return err
				}
			}

			var (
				r      state.Runner
				err    error
				failed = s.Act.Err
			)
			switch {
			case photo != "":
				data, rerr := os.ReadFile(photo)
				if rerr != nil {
					return fmt.Errorf("read photo: %w", rerr)
				}
				r, err = s.BeginActWithPhoto(models.Photo{Filename: filepath.Base(photo), Data: data})
				failed = s.ActPhoto.Err
			case len(args) > 0:
				r, err = s.BeginAct(strings.Join(args, " "))
			default:
				return fmt.Errorf("%w: prompt or --photo", errMissingArgument)
			}
			if err := run(cmd.Context(), r, err, failed); err != nil {
				return err
			}
			return app.printReply(cmd)
		},
	}
	cmd.Flags().StringVar(&photo, "photo", "", "Image file to send instead of text")
	cmd.Flags().Int64Var(&conversation, "conversation", 0, "Continue a stored conversation")
	return cmd
}

func newOptimizeCmd(app *App) *cobra.Command {
	var conversation int64
	cmd := &cobra.Command{
		Use:   "optimize [message-id]",
		Short: "Merge the duplicate tasks reported in a conversation",
		Long: `Confirms a duplicate-task report. Without a message id the latest
unresolved report of the conversation is used; without --conversation the most
recently updated conversation is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			s := app.store
			if conversation == 0 {
				_, items, err := s.Conversations(1, 0)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					return errNoConversation
				}
				conversation = items[0].ID
			}
			if err := s.LoadConversation(conversation); err != nil {
				return err
			}

			var messageID string
			if len(args) == 1 {
				messageID = args[0]
			} else if messageID = latestDuplicate(s.Messages()); messageID == "" {
				return fmt.Errorf("conversation %d has no unresolved duplicate-task report", conversation)
			}

			r, err := s.BeginOptimize(messageID)
			if err := run(cmd.Context(), r, err, s.Optimize.Err); err != nil {
				return err
			}
			return app.printReply(cmd)
		},
	}
	cmd.Flags().Int64Var(&conversation, "conversation", 0, "Conversation id (default: most recent)")
	return cmd
}

func latestDuplicate(msgs []models.ConversationMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Type == models.TypeDuplicateTask && !m.Resolved {
			return m.ID
		}
	}
	return ""
}

// printReply prints the newest assistant message of the conversation.
func (a *App) printReply(cmd *cobra.Command) error {
	msgs := a.store.Messages()
	if len(msgs) == 0 {
		return nil
	}
	reply := msgs[len(msgs)-1]
	out := struct {
		ConversationID int64 `json:"conversationId"`
		models.ConversationMessage
	}{a.store.ConversationID(), reply}

	return a.print(cmd, out, func(w io.Writer) {
		fmt.Fprintln(w, reply.Text)
		for _, t := range reply.Tasks {
			fmt.Fprintf(w, "  #%d %s", t.ID, t.Description)
			if t.StartDate != "" || t.EndDate != "" {
				fmt.Fprintf(w, " (%s - %s)", t.StartDate, t.EndDate)
			}
			fmt.Fprintln(w)
		}
		if reply.Type == models.TypeDuplicateTask {
			fmt.Fprintf(w, "\nDuplicate tasks found. Merge them with:\n  thronemind optimize %s --conversation %d\n", reply.ID, a.store.ConversationID())
		}
	})
}
