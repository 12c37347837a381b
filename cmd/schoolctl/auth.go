package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	errEmptyUsername = errors.New("username must not be empty")
	errEmptyPassword = errors.New("password must not be empty")

	errUsernameRequired = errors.New("a username argument is required with --password-stdin")
)

func newLoginCmd(c *cli) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in with a username and password",
		Long: `Sign in with a username and password. The password is read from the
terminal without echo, or from the first line of stdin with --password-stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.ErrOrStderr()

			var username string
			if len(args) == 1 {
				username = strings.TrimSpace(args[0])
			} else {
				if passwordStdin {
					return errUsernameRequired
				}
				var err error
				if username, err = promptLine(in, out, "Username: "); err != nil {
					return fmt.Errorf("failed to read username: %w", err)
				}
			}
			if username == "" {
				return errEmptyUsername
			}

			var password string
			var err error
			if passwordStdin {
				password, err = promptLine(in, out, "")
			} else {
				password, err = promptPassword(out)
			}
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password == "" {
				return errEmptyPassword
			}

			a, err := c.ensureApp(ctx)
			if err != nil {
				return err
			}
			if err := a.session.Login(ctx, username, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n",
				text.Bold.Sprint(a.session.Session().UserID()), currentRole(a))
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			a.session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			s := a.session.Session()

			state := text.FgRed.Sprint(s.State)
			if s.IsAuthenticated {
				state = text.FgGreen.Sprint(s.State)
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendRow(table.Row{"State", state})
			if s.IsAuthenticated {
				exp, _ := s.Claims.Expiry()
				t.AppendRow(table.Row{"User", s.UserID()})
				t.AppendRow(table.Row{"Name", s.Claims.String("name")})
				t.AppendRow(table.Row{"Role", currentRole(a)})
				t.AppendRow(table.Row{"Expires", formatExpiry(exp, time.Now())})
			}
			t.Render()
			return nil
		},
	}
}

func newRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.ensureApp(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.session.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			exp, _ := a.session.Session().Claims.Expiry()
			fmt.Fprintf(cmd.OutOrStdout(), "Session refreshed, expires %s\n", formatExpiry(exp, time.Now()))
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user as the backend sees them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			me, err := a.school.Me(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendRow(table.Row{"ID", me.ID})
			t.AppendRow(table.Row{"Name", me.Name})
			t.AppendRow(table.Row{"Email", me.Email})
			t.AppendRow(table.Row{"Role", currentRole(a)})
			t.Render()
			return nil
		},
	}
}
