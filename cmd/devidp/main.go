package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-school-client/auth"
	fakeclientrepo "github.com/jrsteele09/go-school-client/clients/fakerepo"
	"github.com/jrsteele09/go-school-client/internal/config"
	"github.com/jrsteele09/go-school-client/internal/logging"
	"github.com/jrsteele09/go-school-client/server"
	"github.com/jrsteele09/go-school-client/token"
	"github.com/jrsteele09/go-school-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-school-client/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/go-school-client/users/repofake"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel(), os.Stderr)

	if err := run(c); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	handler, refreshTokens, err := newHandler(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go purgeExpiredTokens(ctx, refreshTokens, purgeInterval)

	displayAppname(c.GetAppName() + " IdP")
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newHandler wires the in-memory repositories, seeds the demo accounts and
// builds the HTTP server.
func newHandler(c config.Config) (http.Handler, *refresh.Manager, error) {
	repos := auth.Repos{
		Users:   fakeuserrepo.NewFakeUserRepo(),
		Clients: fakeclientrepo.NewFakeClientRepo(),
	}
	if err := auth.SeedDemoData(repos, c.GetClientID(), nil); err != nil {
		return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
	}

	tokens := token.New(
		token.NewHMACSigner(c.GetTokenSecret()),
		token.WithIssuer(c.GetBaseURL()),
		token.WithAccessTokenExpiry(c.GetAccessTokenExpiry()),
	)
	refreshTokens := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), c)

	authService, err := auth.NewService(repos, tokens, refreshTokens)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	srv, err := server.New(authService, server.WithIssuer(c.GetBaseURL()), server.WithEnv(c.GetEnv()))
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("issuer", c.GetBaseURL()).
		Str("client_id", c.GetClientID()).
		Str("discovery", c.GetBaseURL()+server.RouteWellKnownOpenIDConfig).
		Msg("identity provider configured")
	for _, u := range auth.DemoUsers {
		log.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("demo user")
	}
	return srv, refreshTokens, nil
}

const purgeInterval = time.Hour

// purgeExpiredTokens drops expired refresh tokens every interval until ctx is done.
func purgeExpiredTokens(ctx context.Context, refreshTokens *refresh.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := refreshTokens.PurgeExpired()
			if err != nil {
				log.Err(err).Msg("failed to purge expired refresh tokens")
				continue
			}
			if n > 0 {
				log.Debug().Int("count", n).Msg("purged expired refresh tokens")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
