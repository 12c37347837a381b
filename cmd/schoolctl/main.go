// Command schoolctl signs in to the school identity provider and reads the
// school backend on the user's behalf.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrsteele09/go-school-client/dispatch"
	"github.com/jrsteele09/go-school-client/idp"
	"github.com/jrsteele09/go-school-client/internal/config"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/internal/logging"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeAuthRequired = 2
	ExitCodeAuthFailed   = 3
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCodeError)
	}
	cfg := config.New()
	logging.Setup(cfg.GetEnv(), config.GetEnv("LOG_LEVEL", "warn"), os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(cfg, buildApp).ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error onto a code scripts can branch on.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case schoolerrors.Is(err, schoolerrors.ErrNotAuthenticated),
		schoolerrors.Is(err, schoolerrors.ErrNoStoredCredentials):
		return ExitCodeAuthRequired
	case idp.IsCredentialError(err):
		return ExitCodeAuthFailed
	}
	var statusErr *dispatch.StatusError
	if schoolerrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		return ExitCodeAuthRequired
	}
	return ExitCodeError
}
