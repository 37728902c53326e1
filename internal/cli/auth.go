package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"thronemind/internal/models"
)

func newLoginCmd(app *App) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}
			r, err := app.session.BeginLogin(app.client, args[0], pw)
			if err := run(cmd.Context(), r, err, app.session.Login.Err); err != nil {
				return err
			}
			return app.printProfile(cmd)
		},
	}
	cmd.Flags().StringVar(&password, "password", envOr("THRONEMIND_PASSWORD", ""), "Password (read from stdin when empty)")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var (
		nickname string
		password string
		photo    string
	)
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(nickname) == "" {
				return fmt.Errorf("%w: --nickname", errMissingArgument)
			}
			pw, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}
			rf := models.RegisterForm{Email: args[0], Nickname: nickname, Password: pw}
			if photo != "" {
				data, err := os.ReadFile(photo)
				if err != nil {
					return fmt.Errorf("read photo: %w", err)
				}
				rf.Photo = &models.Photo{Filename: filepath.Base(photo), Data: data}
			}
			r, err := app.session.BeginRegister(app.client, rf)
			if err := run(cmd.Context(), r, err, app.session.Register.Err); err != nil {
				return err
			}
			return app.printProfile(cmd)
		},
	}
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name (required)")
	cmd.Flags().StringVar(&password, "password", envOr("THRONEMIND_PASSWORD", ""), "Password (read from stdin when empty)")
	cmd.Flags().StringVar(&photo, "photo", "", "Profile photo file")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.session.Logout()
			return app.print(cmd, map[string]bool{"ok": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Signed out.")
			})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			return app.printProfile(cmd)
		},
	}
}

func (a *App) printProfile(cmd *cobra.Command) error {
	p, ok := a.session.Profile()
	if !ok {
		return errNotSignedIn
	}
	p.AvatarURL = a.session.AvatarURL()
	return a.print(cmd, p, func(w io.Writer) {
		fmt.Fprintf(w, "Signed in as %s <%s>\n", p.Nickname, p.Email)
		if p.AvatarURL != "" {
			fmt.Fprintf(w, "Avatar: %s\n", p.AvatarURL)
		}
	})
}

func passwordOrPrompt(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%w: password", errMissingArgument)
	}
	return line, nil
}
