package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/api-bootstrap/internal/config"
	"github.com/crucial707/api-bootstrap/internal/handlers"
	"github.com/crucial707/api-bootstrap/internal/metrics"
	"github.com/crucial707/api-bootstrap/internal/middleware"
)

const readHeaderTimeout = 10 * time.Second

// Server is the HTTP API. It is not started until Run or Serve is called and
// has no way back once it is listening; it stops when the process exits.
type Server struct {
	cfg     config.Config
	logger  *slog.Logger
	handler http.Handler
}

func New(cfg config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		handler: newRouter(cfg, logger),
	}
}

// Handler exposes the full middleware chain and route table, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func newRouter(cfg config.Config, logger *slog.Logger) http.Handler {
	hsts := cfg.TLSEnabled() && cfg.Env == "prod"
	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := chi.NewRouter()

	// Order matters: logging and metrics wrap the recoverer so a panic still shows up
	// as a logged 500, and the body parsers run last, right before the route.
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.Prometheus)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders(hsts))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(limiter.Middleware)
	r.Use(middleware.JSON(cfg.BodyLimit))
	r.Use(middleware.URLEncoded(cfg.BodyLimit, cfg.FormMaxDepth))
	r.Use(chimw.GetHead)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.Health)

	return r
}

// Listen binds the configured address. A port that is already taken is an error.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return ln, nil
}

// Serve logs the startup line and serves ln until the process exits.
// It only returns on a serve error.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	port := s.cfg.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	s.logger.Info("server running on port "+strconv.Itoa(port),
		"addr", ln.Addr().String(),
		"tls", s.cfg.TLSEnabled(),
		"env", s.cfg.Env)

	var err error
	if s.cfg.TLSEnabled() {
		err = srv.ServeTLS(ln, s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
	} else {
		err = srv.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Run binds the listener and serves on it.
func (s *Server) Run() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// ServeMetrics serves the prometheus registry at /metrics on its own port, away from
// the API route table.
func ServeMetrics(port int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	addr := ":" + strconv.Itoa(port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	logger.Info("metrics listening", "addr", ln.Addr().String())

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
