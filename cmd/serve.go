package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calresolve/internal/logging"
	"github.com/teemow/calresolve/internal/server"
	"github.com/teemow/calresolve/internal/tools/calendar_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// serveOptions holds the serve flags.
type serveOptions struct {
	appFlags
	transport      string
	httpAddr       string
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server exposing the calendar
resolution tools to AI assistants.

Supported transports:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on --http-addr, endpoint /mcp

Google OAuth tokens are read from the token directory (CALRESOLVE_TOKEN_DIR);
store one per account with "calresolve token import".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("metrics-enabled") {
				if v, ok := os.LookupEnv("METRICS_ENABLED"); ok {
					opts.metricsEnabled = v == "true"
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.metricsAddr = addr
				}
			}
			return runServe(cmd.Context(), opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (streamable-http only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(parent context.Context, opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
	if parent == nil {
		parent = context.Background()
	}
	shutdownCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol on stdio.
	logger := logging.New(os.Stderr, opts.debug)
	slog.SetDefault(logger)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	readOnly := !opts.yolo
	a, err := newApp(shutdownCtx, cfg, readOnly, logger, nil)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	serverContext, err := a.serverContext(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer()
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}

	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}

	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, a, opts)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("calresolve", version,
		mcpserver.WithToolCapabilities(true),
	)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// newHTTPHandler routes /mcp to the streamable HTTP transport behind the rate
// limiter and adds the health endpoints. Every request is measured.
func newHTTPHandler(mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, limiter *server.RateLimiter, recorder server.HTTPRecorder) (http.Handler, *server.HealthChecker) {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)
	mux.Handle("/mcp", limiter.Middleware(streamable))

	healthChecker := server.NewHealthChecker(serverContext)
	healthChecker.RegisterHealthEndpoints(mux)

	return server.InstrumentHTTP(mux, recorder), healthChecker
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, a *app, opts serveOptions) error {
	logger := a.logger

	limiter, err := server.NewRateLimiter(server.RateLimitConfig{
		RequestsPerSecond: a.cfg.RateLimit,
		Burst:             a.cfg.RateLimitBurst,
		TrustProxy:        a.cfg.TrustProxy,
	})
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	var metricsServer *server.MetricsServer
	if opts.metricsEnabled && a.provider.Enabled() && a.provider.PrometheusHandler() != nil {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsAddr,
			Path:                    a.instrConfig.PrometheusEndpoint,
			InstrumentationProvider: a.provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
	}

	handler, healthChecker := newHTTPHandler(mcpSrv, serverContext, limiter, serverContext.Metrics())
	httpServer := &http.Server{
		Addr:              opts.httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("streamable HTTP server starting",
		"addr", opts.httpAddr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", "/healthz, /readyz")
	if metricsServer != nil {
		logger.Info("metrics endpoint", "addr", metricsServer.Addr(), "path", a.instrConfig.PrometheusEndpoint)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("error shutting down metrics server: %w", err))
			}
		}
		return errors.Join(errs...)
	case err := <-serverDone:
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}
