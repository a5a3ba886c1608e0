package cli

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/http"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/apiclient"
	"github.com/medilabo/webapp/internal/config"
	"github.com/medilabo/webapp/internal/handlers"
	"github.com/medilabo/webapp/internal/metrics"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
	"github.com/medilabo/webapp/middlewares"
	"github.com/medilabo/webapp/pkg/cache"
	"github.com/medilabo/webapp/pkg/cookie"
	"github.com/medilabo/webapp/pkg/health"
	"github.com/medilabo/webapp/pkg/job"
	"github.com/medilabo/webapp/pkg/logger"
	"github.com/medilabo/webapp/pkg/redis"
	"github.com/medilabo/webapp/pkg/session"
)

const (
	sessionKeyPrefix = "webapp:session:"
	gaugeTask        = "active-stores"
)

// server is everything serve needs besides the listener.
type server struct {
	app       *internal.App
	scheduler *job.Scheduler
	shutdown  []func(context.Context) error
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.New(logger.Config{
		Level: cfg.Log.Level,
		Sentry: logger.SentryConfig{
			DSN:         cfg.Log.SentryDSN,
			Environment: cfg.Log.SentryEnvironment,
		},
	}, middlewares.RequestIDExtractor(), internal.SessionIDExtractor())
}

// openSessions returns the session store the config asks for, plus the
// readiness checks and cleanup it brings along.
func openSessions(ctx context.Context, cfg *config.Config) (session.Store, health.Checks, []func(context.Context) error, error) {
	if !cfg.UsesRedis() {
		mem := cache.NewMemory[session.Session](
			cache.WithTTL(cfg.Session.MaxAge),
			cache.WithCapacity(cfg.Session.Capacity),
		)
		return session.NewCacheStore(mem), health.Checks{}, []func(context.Context) error{closer(mem.Close)}, nil
	}

	opts := redis.DefaultOptions()
	opts.PoolSize = cfg.Redis.PoolSize
	client, err := redis.Open(ctx, cfg.Redis.URL, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	store := session.NewCacheStore(cache.NewRedis(client, cache.JSON[session.Session]{}, sessionKeyPrefix, cfg.Session.MaxAge))
	checks := health.Checks{"redis": redis.Healthcheck(client)}
	return store, checks, []func(context.Context) error{redis.Shutdown(client)}, nil
}

func closer(fn func() error) func(context.Context) error {
	return func(context.Context) error { return fn() }
}

// build wires the application around sessions.
func build(cfg *config.Config, log *slog.Logger, sessions session.Store, checks health.Checks) (*server, error) {
	m := metrics.New(nil)

	stores := cache.NewMemory[*state.Store](
		cache.WithTTL(cfg.Session.StateTTL),
		cache.WithCapacity(cfg.Session.Capacity),
	)
	registry := state.NewRegistry(stores, state.ErrorInterceptor, state.Logger(log), state.Instrument(m))

	client := apiclient.New(
		apiclient.Endpoints{
			UserService:       cfg.Backends.User,
			NoteService:       cfg.Backends.Note,
			EvaluationService: cfg.Backends.Evaluation,
		},
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Backends.Timeout}),
		apiclient.WithLogger(log),
		apiclient.WithMetrics(m),
		apiclient.WithBreaker(apiclient.BreakerConfig{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		}),
	)

	pages, err := views.New()
	if err != nil {
		return nil, err
	}
	jar, err := cookie.New(cfg.Flash.Secret, cookie.WithSecure(cfg.Session.Secure))
	if err != nil {
		return nil, err
	}

	scheduler := job.NewScheduler(job.WithLogger(log))
	err = scheduler.Every(gaugeTask, cfg.Metrics.Refresh, func(context.Context) error {
		m.SetActiveStores(registry.Len())
		return nil
	})
	if err != nil {
		return nil, err
	}

	ready := health.Checks{}
	maps.Copy(ready, checks)
	maps.Copy(ready, client.HealthChecks())

	app := internal.New(
		internal.WithLogger(log),
		internal.WithMetrics(m),
		internal.WithSession(sessions,
			internal.WithSessionMaxAge(cfg.Session.MaxAge),
			internal.WithSessionSecure(cfg.Session.Secure),
		),
		internal.WithStates(registry),
		internal.WithBackends(client),
		internal.WithFlash(jar),
		internal.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
		internal.WithStaticFiles(urls.Static, views.Assets, "static"),
		internal.WithHealthChecks(internal.WithReadinessChecks(ready)),
		internal.WithHandlers(handlers.All(pages)...),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		internal.WithErrorHandler(handlers.ErrorHandler(pages)),
	)

	return &server{
		app:       app,
		scheduler: scheduler,
		shutdown:  []func(context.Context) error{closer(stores.Close)},
	}, nil
}

// ignoreNotStarted lets shutdown run after a failed startup.
func ignoreNotStarted(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := fn(ctx); err != nil && !errors.Is(err, job.ErrNotStarted) {
			return err
		}
		return nil
	}
}
