// ABOUTME: Gateway orchestrator that wires store, auth and services into HTTP and gRPC servers
// ABOUTME: Manages listener setup, the store health probe and graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/2389/taskgate/internal/account"
	"github.com/2389/taskgate/internal/auth"
	"github.com/2389/taskgate/internal/config"
	"github.com/2389/taskgate/internal/store"
	"github.com/2389/taskgate/internal/tasks"
)

// healthProbeInterval is how often the gRPC health status is refreshed from the store.
const healthProbeInterval = 10 * time.Second

// shutdownTimeout bounds graceful shutdown once Run's context is canceled.
const shutdownTimeout = 5 * time.Second

// Gateway orchestrates the taskgate server components.
// It owns the store and serves the HTTP API plus an optional gRPC health service.
type Gateway struct {
	config     *config.Config
	store      store.Store
	httpServer *http.Server
	grpcServer *grpc.Server   // nil unless server.grpc_addr is set
	health     *health.Server // nil unless server.grpc_addr is set
	logger     *slog.Logger
}

// initStore opens the store configured by cfg.
func initStore(cfg *config.Config) (store.Store, error) {
	s, err := store.Open(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// newCodec returns a codec keyed by the configured secret, or a per-process
// random key when none is configured.
func newCodec(cfg *config.Config, logger *slog.Logger) (auth.TokenCodec, error) {
	if cfg.Auth.JWTSecret != "" {
		codec, err := auth.NewJWTCodec([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return nil, fmt.Errorf("creating token codec: %w", err)
		}
		return codec, nil
	}
	codec, err := auth.NewProcessCodec()
	if err != nil {
		return nil, fmt.Errorf("creating token codec: %w", err)
	}
	logger.Warn("auth.jwt_secret not set - tokens are signed with a per-process key and will not survive a restart")
	return codec, nil
}

// New creates a new Gateway with the given configuration, opening the store
// and building the signing key.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}
	codec, err := newCodec(cfg, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return NewWithStore(cfg, s, codec, prometheus.NewRegistry(), logger), nil
}

// NewWithStore assembles a Gateway around an existing store and codec.
// Metrics are registered with reg. The Gateway takes ownership of s.
func NewWithStore(cfg *config.Config, s store.Store, codec auth.TokenCodec, reg *prometheus.Registry, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	var gatherer prometheus.Gatherer
	var httpM *httpMetrics
	var authM *auth.Metrics
	if cfg.Metrics.Enabled && reg != nil {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		gatherer = reg
		httpM = newHTTPMetrics(reg)
		authM = auth.NewMetrics(reg)
	}

	pipeline := auth.NewPipeline(codec, auth.NewStoreResolver(s), authM, logger)
	accounts := account.NewService(s, account.NewBcryptHasher(), codec, cfg.Auth.TokenTTL, logger.With("component", "account"))
	taskSvc := tasks.NewService(s, tasks.NewOwnershipGuard(logger), logger.With("component", "tasks"))

	gw := &Gateway{
		config: cfg,
		store:  s,
		logger: logger.With("component", "gateway"),
	}

	handler := newHandler(handlerConfig{
		api:         &api{accounts: accounts, tasks: taskSvc, logger: logger.With("component", "http")},
		authn:       pipeline,
		health:      &healthHandlers{store: s},
		gatherer:    gatherer,
		metricsPath: cfg.Metrics.Path,
		httpMetrics: httpM,
		logger:      logger.With("component", "http"),
	})

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Server.GRPCAddr != "" {
		gw.grpcServer = grpc.NewServer(
			grpc.KeepaliveParams(keepalive.ServerParameters{
				Time:    15 * time.Second,
				Timeout: 5 * time.Second,
			}),
			grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
				MinTime:             5 * time.Second,
				PermitWithoutStream: true,
			}),
		)
		gw.health = health.NewServer()
		healthpb.RegisterHealthServer(gw.grpcServer, gw.health)
	}

	return gw
}

// Handler returns the full HTTP handler, including instrumentation and the access gate.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// setupListeners creates TCP listeners for HTTP and, when configured, gRPC.
func (g *Gateway) setupListeners() (httpLn, grpcLn net.Listener, err error) {
	g.logger.Info("starting gateway",
		"http_addr", g.config.Server.HTTPAddr,
		"grpc_addr", g.config.Server.GRPCAddr,
	)

	httpLn, err = net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listening on HTTP address: %w", err)
	}

	if g.grpcServer != nil {
		grpcLn, err = net.Listen("tcp", g.config.Server.GRPCAddr)
		if err != nil {
			_ = httpLn.Close()
			return nil, nil, fmt.Errorf("listening on gRPC address: %w", err)
		}
	}

	return httpLn, grpcLn, nil
}

// Run starts the servers and blocks until ctx is canceled or a server fails.
// Returns nil on graceful shutdown (context canceled), or an error if a server fails.
func (g *Gateway) Run(ctx context.Context) error {
	httpLn, grpcLn, err := g.setupListeners()
	if err != nil {
		return err
	}
	return g.Serve(ctx, httpLn, grpcLn)
}

// Serve runs the servers on the given listeners. grpcLn may be nil when the
// gRPC server is disabled. Serve shuts everything down before returning.
func (g *Gateway) Serve(ctx context.Context, httpLn, grpcLn net.Listener) error {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		g.logger.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := g.httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	if g.grpcServer != nil && grpcLn != nil {
		eg.Go(func() error {
			g.logger.Info("gRPC server listening", "addr", grpcLn.Addr().String())
			if err := g.grpcServer.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("gRPC server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			g.probeHealth(egCtx)
			return nil
		})
	}

	// Shutdown runs when the caller cancels or any server fails.
	eg.Go(func() error {
		<-egCtx.Done()
		if ctx.Err() != nil {
			g.logger.Info("context canceled, initiating shutdown")
		}
		return g.gracefulShutdown()
	})

	return eg.Wait()
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// probeHealth keeps the gRPC health status in line with store reachability.
func (g *Gateway) probeHealth(ctx context.Context) {
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()

	for {
		g.updateHealth(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (g *Gateway) updateHealth(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := g.store.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		g.logger.Warn("store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", status)
}

// shutdownGRPCServer gracefully stops the gRPC server or force-stops on context cancel.
func (g *Gateway) shutdownGRPCServer(ctx context.Context) {
	if g.grpcServer == nil {
		return
	}
	g.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		g.grpcServer.Stop()
	}
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops all gateway servers and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	g.shutdownGRPCServer(ctx)

	errs = appendCloseError(errs, "store close", g.store.Close())

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// healthHandlers serves the HTTP liveness and readiness endpoints.
type healthHandlers struct {
	store store.Store
}

// handleHealth returns 200 OK if the server is alive.
func (h *healthHandlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the store answers a ping.
func (h *healthHandlers) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
