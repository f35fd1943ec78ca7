// Package server assembles the HTTP server: routing, middleware, operational endpoints and
// graceful shutdown.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/StephenGriese/helloservice/logs"
	"github.com/StephenGriese/helloservice/metrics"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const (
	componentName = "http_server"

	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
)

type Server struct {
	name              string
	host              string
	port              int
	logger            logs.Logger
	build             buildInfo
	metricsFactory    *metrics.Factory
	handlers          []RequestHandler
	refresher         Refresher
	requestLogging    bool
	shutdownTimeout   time.Duration
	readHeaderTimeout time.Duration

	router     *mux.Router
	httpServer *http.Server
}

type ServerOption func(*Server)

func WithName(name string) ServerOption {
	return func(s *Server) { s.name = name }
}

// WithHost sets the interface to listen on. Empty means all interfaces.
func WithHost(host string) ServerOption {
	return func(s *Server) { s.host = host }
}

func WithPort(port int) ServerOption {
	return func(s *Server) { s.port = port }
}

func WithLogger(logger logs.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithRequestLogging turns the access log on or off.
func WithRequestLogging(enabled bool) ServerOption {
	return func(s *Server) { s.requestLogging = enabled }
}

func WithBuildInfo(version, builder, buildTime, goVersion string) ServerOption {
	return func(s *Server) {
		s.build = buildInfo{Version: version, Builder: builder, Time: buildTime, GoVersion: goVersion}
	}
}

// WithMetricsFactory records per-route statistics and serves the registry at /metrics.
func WithMetricsFactory(factory metrics.Factory) ServerOption {
	return func(s *Server) { s.metricsFactory = &factory }
}

func WithRequestHandlers(handlers []RequestHandler) ServerOption {
	return func(s *Server) { s.handlers = append(s.handlers, handlers...) }
}

// WithRefresher enables POST /actuator/refresh.
func WithRefresher(r Refresher) ServerOption {
	return func(s *Server) { s.refresher = r }
}

func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.readHeaderTimeout = d
		}
	}
}

// NewServer builds the router and the underlying *http.Server. Nothing listens until Start.
func NewServer(_ context.Context, opts ...ServerOption) (*Server, error) {
	s := &Server{
		logger:            logs.NewNopLogger(),
		shutdownTimeout:   defaultShutdownTimeout,
		readHeaderTimeout: defaultReadHeaderTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	if s.port < 0 || s.port > 65535 {
		return nil, errors.Errorf("invalid port %d", s.port)
	}
	s.logger = s.logger.WithComponent(componentName)

	s.router = s.newRouter()
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(s.host, strconv.Itoa(s.port)),
		Handler:           s.router,
		ReadHeaderTimeout: s.readHeaderTimeout,
	}
	return s, nil
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(requestID)
	if s.requestLogging {
		r.Use(accessLog(s.logger))
	}
	if s.metricsFactory != nil {
		r.Use(statistics(s.metricsFactory.NewHTTPStatistics(componentName)))
	}

	for _, h := range s.handlers {
		r.Methods(h.Methods...).Path(h.Path).Name(h.Name).Handler(h.Handler)
	}

	r.Methods(http.MethodGet).Path("/actuator/health").Name("health").HandlerFunc(s.handleHealth)
	r.Methods(http.MethodGet).Path("/actuator/info").Name("info").HandlerFunc(s.handleInfo)
	if s.refresher != nil {
		r.Methods(http.MethodPost).Path("/actuator/refresh").Name("refresh").HandlerFunc(s.handleRefresh)
	}
	if s.metricsFactory != nil {
		r.Methods(http.MethodGet).Path("/metrics").Name("metrics").Handler(s.metricsFactory.HTTPHandlerFor())
	}
	return r
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is done and then shuts down, giving in-flight requests up to the
// shutdown timeout to finish. A listen failure is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info(ctx, "listening", "addr", s.httpServer.Addr, "name", s.name)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "error listening and serving")
		}
		return nil
	case <-ctx.Done():
	}

	// ctx is already done; shutdown gets a fresh deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "error shutting down http server")
	}
	s.logger.Info(context.Background(), "http server shutdown")
	return nil
}
