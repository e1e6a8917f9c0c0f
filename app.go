package storefront

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vishxl-0001/vipn/internal/port"
	"github.com/vishxl-0001/vipn/internal/session"
	"github.com/vishxl-0001/vipn/internal/web"
	"github.com/vishxl-0001/vipn/pkg/catalog"
	"github.com/vishxl-0001/vipn/pkg/logger"
	"github.com/vishxl-0001/vipn/pkg/memory"
	"github.com/vishxl-0001/vipn/pkg/payment"
	"github.com/vishxl-0001/vipn/pkg/telemetry"
)

// App is a configured storefront: logger, telemetry, session store, catalog,
// payment provider and the HTTP handler that ties them together.
type App struct {
	config    *Config
	logger    logger.Logger
	telemetry *telemetry.Provider
	store     memory.Memory
	redis     *memory.RedisMemory
	sessions  *session.Manager
	catalog   *catalog.Catalog
	payments  payment.Provider
	handler   http.Handler

	mu      sync.Mutex
	started bool
	server  *http.Server
}

// AppOption customizes NewApp beyond what Config carries
type AppOption func(*appOptions)

type appOptions struct {
	logger    logger.Logger
	telemetry *telemetry.Options
	store     memory.Memory
}

// WithAppLogger replaces the logger built from the configuration
func WithAppLogger(l logger.Logger) AppOption {
	return func(o *appOptions) { o.logger = l }
}

// WithTelemetryOptions overrides the telemetry settings derived from Config
func WithTelemetryOptions(opts telemetry.Options) AppOption {
	return func(o *appOptions) { o.telemetry = &opts }
}

// WithSessionStore uses store instead of the one Config selects
func WithSessionStore(store memory.Memory) AppOption {
	return func(o *appOptions) { o.store = store }
}

// NewApp builds every component from cfg. Backends are contacted here, so a
// configured but unreachable Redis fails NewApp.
func NewApp(ctx context.Context, cfg *Config, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, configError("configuration is required", ErrMissingConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{config: cfg, logger: o.logger}
	if a.logger == nil {
		l := logger.NewSimpleLogger(
			logger.WithService(cfg.Name),
			logger.WithFormat(logger.Format(cfg.Logging.Format)),
		)
		l.SetLevel(cfg.Logging.Level)
		a.logger = l
	}

	var err error
	if a.telemetry, err = telemetry.Setup(ctx, a.telemetryOptions(o.telemetry)); err != nil {
		return nil, NewStoreError("App.Telemetry", "telemetry", err)
	}
	metrics, err := telemetry.NewMetrics(a.telemetry.Meter)
	if err != nil {
		return nil, NewStoreError("App.Metrics", "telemetry", err)
	}

	if a.store = o.store; a.store == nil {
		if a.store, err = a.openStore(ctx); err != nil {
			return nil, err
		}
	}
	a.store.SetTTL(cfg.Session.TTL)

	if cfg.Catalog.Path == "" {
		a.catalog = catalog.Seed()
	} else if a.catalog, err = catalog.Load(cfg.Catalog.Path); err != nil {
		return nil, &StoreError{Op: "App.Catalog", Kind: "catalog", ID: cfg.Catalog.Path, Err: err}
	}

	if a.payments, err = payment.NewProvider(cfg.Payment.Provider, cfg.Payment.Settings); err != nil {
		return nil, NewStoreError("App.Payments", "payment", err)
	}

	a.sessions = session.NewManager(a.store,
		session.WithTTL(cfg.Session.TTL),
		session.WithCookie(cfg.Session.CookieName, cfg.Session.SecureCookie),
		session.WithLogger(a.logger.WithField("component", "session")),
	)

	var health func(context.Context) error
	if a.redis != nil {
		health = a.redis.Ping
	}

	h, err := web.New(web.Options{
		ServiceName: cfg.Name,
		Catalog:     a.catalog,
		Payments:    a.payments,
		Sessions:    a.sessions,
		Metrics:     metrics,
		Logger:      a.logger.WithField("component", "web"),
		HealthCheck: health,
	})
	if err != nil {
		return nil, NewStoreError("App.Handler", "web", err)
	}

	var handler http.Handler = h
	handler = web.RecoverMiddleware(a.logger)(handler)
	handler = web.LoggingMiddleware(a.logger, cfg.Development.Enabled)(handler)
	handler = telemetry.CorrelationMiddleware(handler)
	otelOpts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return h.Route(r)
		}),
	}
	if a.telemetry.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(a.telemetry.TracerProvider))
	}
	a.handler = otelhttp.NewHandler(handler, cfg.Name, otelOpts...)

	a.logger.Info("Storefront initialized", map[string]interface{}{
		"environment":      string(cfg.Environment),
		"session_store":    cfg.Session.Store,
		"payment_provider": a.payments.Name(),
		"products":         a.catalog.Len(),
		"trace_exporter":   a.telemetry.Exporter(),
		"version":          Version,
	})
	return a, nil
}

func (a *App) telemetryOptions(override *telemetry.Options) telemetry.Options {
	if override != nil {
		return *override
	}
	t := a.config.Telemetry
	return telemetry.Options{
		ServiceName:    a.config.Name,
		ServiceVersion: Version,
		Environment:    string(a.config.Environment),
		OTLPEndpoint:   t.Endpoint,
		Insecure:       t.Insecure,
		StdoutTraces:   t.StdoutTraces,
		SampleRatio:    t.SampleRatio,
		Disabled:       !t.Enabled,
	}
}

func (a *App) openStore(ctx context.Context) (memory.Memory, error) {
	switch a.config.Session.Store {
	case "redis":
		r, err := memory.NewRedisMemory(ctx, a.config.Session.RedisURL, a.config.Session.Namespace)
		if err != nil {
			return nil, &StoreError{
				Op:      "App.SessionStore",
				Kind:    "session",
				Message: fmt.Sprintf("%v: %v", ErrSessionStoreUnavailable, err),
				Err:     errors.Join(ErrSessionStoreUnavailable, err),
			}
		}
		a.redis = r
		return r, nil
	default:
		return memory.NewInMemoryStore(), nil
	}
}

// Handler returns the fully wrapped HTTP handler
func (a *App) Handler() http.Handler {
	return a.handler
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.logger
}

// Run listens on the configured address and serves until ctx is done. A
// zero port is resolved by the environment-aware port manager.
func (a *App) Run(ctx context.Context) error {
	ports := port.NewManager(a.config.Address, a.config.PortRange, a.config.Environment, a.logger)
	p := ports.DeterminePort(a.config.Port)

	ln, err := net.Listen("tcp", ports.Address(p))
	if err != nil {
		return fmt.Errorf("listen on %s: %w", ports.Address(p), err)
	}
	a.logger.Info("Storefront listening", map[string]interface{}{
		"address": ln.Addr().String(),
		"url":     ports.PublicURL(p),
	})
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully and
// releases the backends. An App serves once.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		ln.Close()
		return ErrAlreadyStarted
	}
	a.started = true
	httpCfg := a.config.HTTP
	a.server = &http.Server{
		Handler:           a.handler,
		ReadTimeout:       httpCfg.ReadTimeout,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
		WriteTimeout:      httpCfg.WriteTimeout,
		IdleTimeout:       httpCfg.IdleTimeout,
		MaxHeaderBytes:    httpCfg.MaxHeaderBytes,
	}
	server := a.server
	a.mu.Unlock()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.sessions.RunJanitor(janitorCtx, a.config.Session.JanitorInterval)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	var err error
	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down storefront", map[string]interface{}{
			"timeout": httpCfg.ShutdownTimeout.String(),
		})
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpCfg.ShutdownTimeout)
		defer cancel()
		err = server.Shutdown(shutdownCtx)
	}

	if closeErr := a.Close(context.WithoutCancel(ctx)); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

// Close flushes telemetry and disconnects the session store
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
