package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-school-client/internal/config"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/school"
)

// cli carries the lazily built app shared by every subcommand.
type cli struct {
	cfg   config.Config
	build appBuilder

	once sync.Once
	app  *app
	err  error
}

// ensureApp builds the app and restores the persisted session exactly once.
func (c *cli) ensureApp(ctx context.Context) (*app, error) {
	c.once.Do(func() {
		c.app, c.err = c.build(ctx, c.cfg)
		if c.err == nil {
			c.app.session.Restore(ctx)
		}
	})
	return c.app, c.err
}

// requireSession returns the app only when a user is signed in.
func (c *cli) requireSession(ctx context.Context) (*app, error) {
	a, err := c.ensureApp(ctx)
	if err != nil {
		return nil, err
	}
	if !a.session.IsAuthenticated() {
		return nil, fmt.Errorf("%w: run 'schoolctl login' first", schoolerrors.ErrNotAuthenticated)
	}
	return a, nil
}

// defaultID falls back to the signed-in user's id when no argument was given.
func defaultID(a *app, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.session.Session().UserID()
}

func currentRole(a *app) school.Role {
	return school.RoleFromClaims(a.session.Session().Claims)
}

func newRootCmd(cfg config.Config, build appBuilder) *cobra.Command {
	c := &cli{cfg: cfg, build: build}

	rootCmd := &cobra.Command{
		Use:   "schoolctl",
		Short: "Command line client for the school portal",
		Long: `schoolctl signs in to the school identity provider, keeps the session
in an encrypted local store and reads the school backend on your behalf.

Run 'schoolctl login' first. Later commands reuse the stored session and
refresh it when the access token expires.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newStatusCmd(c),
		newRefreshCmd(c),
		newWhoamiCmd(c),
		newChildrenCmd(c),
		newAttendanceCmd(c),
		newTimetableCmd(c),
		newAssessmentsCmd(c),
		newFeesCmd(c),
		newAnnouncementsCmd(c),
		newRecordingsCmd(c),
	)
	return rootCmd
}
