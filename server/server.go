package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-school-client/auth"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server is the development identity provider's HTTP front end.
type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	issuer string // Fixed issuer, empty to derive it from each request
	mux    *http.ServeMux
	routes []string
	auth   *auth.Service
	logger zerolog.Logger
}

type Option func(*Server)

// WithIssuer fixes the issuer advertised in discovery and stamped into tokens.
func WithIssuer(issuer string) Option {
	return func(s *Server) {
		s.issuer = strings.TrimRight(issuer, "/")
	}
}

func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(authService *auth.Service, options ...Option) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		auth:   authService,
		logger: log.With().Str("component", "server").Logger(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Info().Str("method", method).Str("path", path).Msg("route")
	}
}

// issuerFor returns the fixed issuer or the scheme and host the request came in on.
func (s *Server) issuerFor(r *http.Request) string {
	if s.issuer != "" {
		return s.issuer
	}
	return getScheme(r) + "://" + r.Host
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
