package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-photocal"
)

// Route labels used in logs and metrics.
const (
	routeMake    = "make"
	routeHealth  = "healthz"
	routeMetrics = "metrics"
	routeStatic  = "static"
)

// Defaults applied by New.
const (
	DefaultAddr            = ":8080"
	DefaultStaticDir       = "./dist/"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr            string        // host:port, default ":8080"
	StaticDir       string        // served under "/", default "./dist/"
	MaxBodyBytes    int64         // POST /make body limit, 0 = unlimited
	ShutdownTimeout time.Duration // drain time after ctx is done
}

// Server is the photocal HTTP front end.
type Server struct {
	cfg     Config
	logger  *zap.Logger
	metrics *Metrics
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables /metrics and request instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds the route table around maker.
func New(maker Maker, cfg Config, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = DefaultStaticDir
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mh := &makeHandler{maker: maker, logger: s.logger, metrics: s.metrics}
	mux.Handle("POST /make", s.route(routeMake, limitBody(cfg.MaxBodyBytes, mh)))
	mux.Handle("GET /healthz", s.route(routeHealth, http.HandlerFunc(healthz)))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.route(routeMetrics, s.metrics.Handler()))
	}
	mux.Handle("/", s.route(routeStatic, http.FileServer(http.Dir(cfg.StaticDir))))

	s.handler = withRequestID(mux)
	return s
}

func (s *Server) route(name string, h http.Handler) http.Handler {
	return instrument(name, s.logger, s.metrics, h)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured address and serves until ctx
// is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%w on %s: %v", ErrListen, s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. In-flight requests get
// ShutdownTimeout to finish; their contexts are canceled after that.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("timeout", s.cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	cancelRequests()
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// StateObserver logs pipeline transitions at debug level and counts them
// when metrics are enabled.
func StateObserver(logger *zap.Logger, metrics *Metrics) photocal.StateObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, s photocal.State) {
		logger.Debug("pipeline state",
			zap.String("request_id", RequestIDFrom(ctx)),
			zap.Stringer("state", s))
		if metrics != nil {
			metrics.ObserveState(ctx, s)
		}
	}
}
