package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"

	"github.com/teemow/calresolve/internal/calendar"
	"github.com/teemow/calresolve/internal/google"
	"github.com/teemow/calresolve/internal/instrumentation"
	"github.com/teemow/calresolve/internal/logging"
	"github.com/teemow/calresolve/internal/resolver"
)

// DefaultClientCacheSize is the number of per-account calendar clients kept.
const DefaultClientCacheSize = 64

// ErrShutdown is returned once the server context has been shut down.
var ErrShutdown = errors.New("server is shutting down")

// CalendarFactory creates the calendar capability of one account.
type CalendarFactory func(ctx context.Context, account string) (resolver.Calendar, error)

// ServerContext holds the state shared by all MCP tool handlers.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	resolver    *resolver.Resolver
	calendars   *lru.Cache[string, resolver.Calendar]
	newCalendar CalendarFactory

	tokenProvider google.TokenProvider
	oauthConfig   *oauth2.Config
	metrics       *instrumentation.Metrics
	auditLogger   *instrumentation.AuditLogger
	logger        *slog.Logger

	cacheSize int
	mu        sync.RWMutex
	shutdown  bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithTokenProvider sets where OAuth tokens are read from.
func WithTokenProvider(provider google.TokenProvider) Option {
	return func(sc *ServerContext) { sc.tokenProvider = provider }
}

// WithOAuthConfig sets the OAuth client used to refresh tokens.
func WithOAuthConfig(conf *oauth2.Config) Option {
	return func(sc *ServerContext) { sc.oauthConfig = conf }
}

// WithCalendarFactory replaces the token-based calendar client factory.
func WithCalendarFactory(factory CalendarFactory) Option {
	return func(sc *ServerContext) { sc.newCalendar = factory }
}

// WithMetrics sets the metrics recorder shared by tools and calendar clients.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = metrics }
}

// WithAuditLogger sets the tool audit logger.
func WithAuditLogger(logger *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.auditLogger = logger }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = logger }
}

// WithClientCacheSize bounds the number of cached calendar clients.
func WithClientCacheSize(size int) Option {
	return func(sc *ServerContext) { sc.cacheSize = size }
}

// NewServerContext creates a server context around res. Calendar clients are
// created lazily, on first use of an account.
func NewServerContext(ctx context.Context, res *resolver.Resolver, opts ...Option) (*ServerContext, error) {
	if res == nil {
		return nil, fmt.Errorf("resolver is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		resolver:  res,
		metrics:   &instrumentation.Metrics{},
		logger:    slog.Default(),
		cacheSize: DefaultClientCacheSize,
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.tokenProvider == nil {
		sc.tokenProvider = google.NewFileTokenProvider("")
	}
	if sc.newCalendar == nil {
		sc.newCalendar = sc.tokenCalendar
	}
	if sc.auditLogger == nil {
		sc.auditLogger = instrumentation.NewAuditLogger(sc.logger)
	}
	if sc.cacheSize <= 0 {
		sc.cacheSize = DefaultClientCacheSize
	}

	cache, err := lru.New[string, resolver.Calendar](sc.cacheSize)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create client cache: %w", err)
	}
	sc.calendars = cache
	sc.logger = logging.WithService(sc.logger, "server")

	return sc, nil
}

// Context returns the server context. It is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Resolver returns the action resolver.
func (sc *ServerContext) Resolver() *resolver.Resolver {
	return sc.resolver
}

// Metrics returns the metrics recorder. It is never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the tool audit logger.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// ReadOnly reports whether calendar writes are refused.
func (sc *ServerContext) ReadOnly() bool {
	return sc.resolver.ReadOnly()
}

// CalendarForAccount returns the calendar of account, creating and caching
// it on first use. An empty account selects the default account.
func (sc *ServerContext) CalendarForAccount(account string) (resolver.Calendar, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	if account == "" {
		account = google.DefaultAccount
	}
	if err := google.ValidateAccountName(account); err != nil {
		return nil, err
	}

	if cal, ok := sc.calendars.Get(account); ok {
		return cal, nil
	}

	cal, err := sc.newCalendar(sc.ctx, account)
	if err != nil {
		return nil, err
	}

	// Concurrent first uses may both create a client; keep the first one.
	if existing, ok, _ := sc.calendars.PeekOrAdd(account, cal); ok {
		return existing, nil
	}
	sc.logger.Debug("calendar client created", logging.UserHash(account))
	return cal, nil
}

// CachedClients returns the number of cached calendar clients.
func (sc *ServerContext) CachedClients() int {
	return sc.calendars.Len()
}

// SetCalendarForAccount installs cal for account.
func (sc *ServerContext) SetCalendarForAccount(account string, cal resolver.Calendar) {
	sc.calendars.Add(account, cal)
}

// tokenCalendar is the default CalendarFactory. It reads the stored token of
// account and reports a user-facing authentication message when none exists.
func (sc *ServerContext) tokenCalendar(ctx context.Context, account string) (resolver.Calendar, error) {
	if !calendar.HasTokenForAccountWithProvider(account, sc.tokenProvider) {
		return nil, errors.New(google.AuthenticationErrorMessage(account))
	}
	if sc.oauthConfig == nil {
		return nil, fmt.Errorf("google OAuth client is not configured")
	}

	client, err := calendar.NewClientForAccountWithProvider(ctx, account, sc.tokenProvider, sc.oauthConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client for account %s: %w", account, err)
	}
	client.SetRecorder(sc.metrics)
	return client, nil
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops cached clients.
// Calling it more than once is a no-op.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	sc.calendars.Purge()
	return nil
}
