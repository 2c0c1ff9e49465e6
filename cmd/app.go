package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teemow/calresolve/internal/config"
	"github.com/teemow/calresolve/internal/disambiguation"
	"github.com/teemow/calresolve/internal/generation"
	"github.com/teemow/calresolve/internal/google"
	"github.com/teemow/calresolve/internal/instrumentation"
	"github.com/teemow/calresolve/internal/logging"
	"github.com/teemow/calresolve/internal/resolver"
	"github.com/teemow/calresolve/internal/server"
)

// appFlags are the flags shared by serve and resolve. They override the
// environment configuration.
type appFlags struct {
	debug    bool
	yolo     bool
	model    string
	timeZone string
}

func (f *appFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&f.yolo, "yolo", false, "Enable write operations (create, move and delete events). Default is read-only mode.")
	cmd.Flags().StringVar(&f.model, "model", "", "Gemini model used for interpretation and ranking. Can also use CALRESOLVE_MODEL env var.")
	cmd.Flags().StringVar(&f.timeZone, "time-zone", "", "IANA time zone local timestamps are read in (e.g. Europe/Berlin). Can also use CALRESOLVE_TIME_ZONE env var.")
}

// loadConfig reads the environment configuration and applies the flags.
func (f *appFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.timeZone != "" {
		cfg.TimeZone = f.timeZone
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app holds the components shared by the commands.
type app struct {
	cfg         *config.Config
	instrConfig instrumentation.Config
	provider    *instrumentation.Provider
	resolver    *resolver.Resolver
	logger      *slog.Logger
}

// newApp wires the generation stack, both resolvers and instrumentation.
// gen replaces the Gemini generator when not nil.
func newApp(ctx context.Context, cfg *config.Config, readOnly bool, logger *slog.Logger, gen generation.Generator) (*app, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instrumentation config: %w", err)
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	if gen == nil {
		gemini, err := generation.NewGeminiGenerator(ctx, generation.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, errors.Join(err, provider.Shutdown(ctx))
		}
		gen = gemini
	}

	policy := generation.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.GenerationMaxAttempts

	metrics := provider.Metrics()
	gen = generation.WithInstrumentation(
		generation.WithRetry(generation.WithTimeout(gen, cfg.GenerationTimeout), policy),
		metrics, logger)

	loc, err := cfg.Location()
	if err != nil {
		return nil, errors.Join(err, provider.Shutdown(ctx))
	}

	disambiguator := disambiguation.New(gen, disambiguation.Config{
		AutoResolveThreshold: cfg.AutoResolveThreshold,
		CandidateThreshold:   cfg.CandidateThreshold,
		TopK:                 cfg.PrefilterTopK,
		UpcomingLimit:        cfg.UpcomingLimit,
	}, disambiguation.WithLogger(logger), disambiguation.WithRecorder(metrics))

	res := resolver.New(gen, disambiguator, resolver.Config{
		MaxToolIterations: cfg.MaxToolIterations,
		Location:          loc,
		CalendarTimeout:   cfg.CalendarTimeout,
		ReadOnly:          readOnly,
	}, resolver.WithLogger(logger), resolver.WithRecorder(metrics))

	return &app{
		cfg:         cfg,
		instrConfig: instrConfig,
		provider:    provider,
		resolver:    res,
		logger:      logger,
	}, nil
}

// serverContext creates the server context reading tokens from the
// configured token directory.
func (a *app) serverContext(ctx context.Context, opts ...server.Option) (*server.ServerContext, error) {
	base := []server.Option{
		server.WithTokenProvider(google.NewFileTokenProvider(a.cfg.TokenDir)),
		server.WithOAuthConfig(google.OAuthConfig(a.cfg.GoogleClientID, a.cfg.GoogleClientSecret)),
		server.WithMetrics(a.provider.Metrics()),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(a.logger, a.instrConfig.AuditLogging)),
		server.WithLogger(a.logger),
		server.WithClientCacheSize(a.cfg.ClientCacheSize),
	}
	return server.NewServerContext(ctx, a.resolver, append(base, opts...)...)
}

// close flushes pending telemetry.
func (a *app) close(ctx context.Context) {
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("failed to shut down instrumentation", logging.Err(err))
	}
}
