// Package app builds the long-lived services from configuration and runs them.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/api"
	"github.com/JakeFAU/questify/internal/broadcast"
	"github.com/JakeFAU/questify/internal/config"
	collyfetcher "github.com/JakeFAU/questify/internal/fetcher/colly"
	"github.com/JakeFAU/questify/internal/logging"
	"github.com/JakeFAU/questify/internal/mail"
	"github.com/JakeFAU/questify/internal/metrics"
	"github.com/JakeFAU/questify/internal/source"
	"github.com/JakeFAU/questify/internal/storage"
	"github.com/JakeFAU/questify/internal/subscriber"
)

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     subscriber.Store
	registry  *source.Registry
	job       *broadcast.Job
	scheduler *broadcast.Scheduler
	apiServer *api.Server
	closeOnce sync.Once
}

// Option overrides a dependency Build would otherwise construct.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	transport mail.Transport
}

// WithLogger uses logger instead of building one from the logging config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTransport replaces the SMTP transport.
func WithTransport(t mail.Transport) Option {
	return func(o *options) { o.transport = t }
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{Development: cfg.Logging.Development, Level: cfg.Logging.Level})
		if err != nil {
			return nil, fmt.Errorf("logger init failed: %w", err)
		}
		zap.ReplaceGlobals(logger)
	}
	metrics.Init()

	a := &App{cfg: cfg, logger: logger}
	a.logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.Int("metrics_port", cfg.Metrics.Port),
		zap.Bool("broadcast_enabled", cfg.Broadcast.Enabled),
	)

	if err := a.setupStore(ctx); err != nil {
		return nil, err
	}
	a.setupSources()

	dispatcher, err := a.setupMail(o.transport)
	if err != nil {
		a.closeStore()
		return nil, err
	}

	if err := a.setupBroadcast(dispatcher); err != nil {
		a.closeStore()
		return nil, err
	}

	a.apiServer = api.NewServer(
		a.store,
		a.registry,
		dispatcher,
		api.Options{RequestTimeout: cfg.RequestTimeout()},
		logger.Named("api"),
	)
	return a, nil
}

func (a *App) setupStore(ctx context.Context) error {
	connectTimeout := time.Duration(a.cfg.Store.ConnectTimeoutSeconds) * time.Second
	openCtx, cancel := context.WithTimeout(ctx, connectTimeout+time.Second)
	defer cancel()

	store, err := storage.Open(openCtx, storage.Config{
		Driver:         a.cfg.Store.Driver,
		URI:            a.cfg.Store.URI,
		Database:       a.cfg.Store.Database,
		Table:          a.cfg.Store.Table,
		ConnectTimeout: connectTimeout,
		MaxConns:       int32(a.cfg.Store.MaxConns), //nolint:gosec // bounded by config
	}, a.logger.Named("store"))
	if err != nil {
		return fmt.Errorf("store init failed: %w", err)
	}
	a.store = store
	return nil
}

func (a *App) setupSources() {
	client := collyfetcher.New(collyfetcher.Config{
		UserAgent: a.cfg.HTTP.UserAgent,
		Timeout:   a.cfg.HTTPTimeout(),
	})
	a.registry = source.NewRegistry(a.logger.Named("source"),
		source.NewLeetCode(client, a.cfg.Sources.LeetCodeURL, nil),
		source.NewCodeforces(client, a.cfg.Sources.CodeforcesURL, nil),
		source.NewCodechef(client, a.cfg.Sources.CodechefURL, nil),
	)
	a.logger.Info("question sources registered",
		zap.String("user_agent", a.cfg.HTTP.UserAgent),
		zap.Duration("timeout", a.cfg.HTTPTimeout()),
	)
}

func (a *App) setupMail(transport mail.Transport) (*mail.Dispatcher, error) {
	if transport == nil {
		smtp, err := mail.NewSMTPTransport(mail.SMTPConfig{
			Host:      a.cfg.Mail.Host,
			Port:      a.cfg.Mail.Port,
			Username:  a.cfg.Mail.Username,
			Password:  a.cfg.Mail.Password,
			TLSPolicy: a.cfg.Mail.TLSPolicy,
			Timeout:   time.Duration(a.cfg.Mail.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("mail transport init failed: %w", err)
		}
		transport = smtp
		a.logger.Info("using SMTP transport",
			zap.String("host", a.cfg.Mail.Host),
			zap.Int("port", a.cfg.Mail.Port),
		)
	}
	if a.cfg.Mail.From == "" {
		a.logger.Warn("no sender address configured; every send will fail until mail.from or EMAIL_USER is set")
	}
	return mail.NewDispatcher(transport, a.cfg.Mail.From, a.logger.Named("mail")), nil
}

func (a *App) setupBroadcast(dispatcher *mail.Dispatcher) error {
	platforms := a.cfg.BroadcastPlatforms()
	if len(platforms) == 0 {
		platforms = source.DefaultBroadcastPlatforms
	}
	fetchers, err := a.registry.Subset(platforms)
	if err != nil {
		return fmt.Errorf("broadcast sources: %w", err)
	}
	selector, err := source.NewSelector(fetchers, nil)
	if err != nil {
		return fmt.Errorf("broadcast selector: %w", err)
	}
	logger := a.logger.Named("broadcast")
	a.job = broadcast.NewJob(a.store, selector, dispatcher, mail.NewLogAndDrop(logger), logger)

	if !a.cfg.Broadcast.Enabled {
		a.logger.Info("broadcast scheduling disabled")
		return nil
	}
	a.scheduler, err = broadcast.NewDailyScheduler(a.job, logger)
	if err != nil {
		return fmt.Errorf("broadcast scheduler: %w", err)
	}
	a.logger.Info("broadcast scheduled",
		zap.String("spec", broadcast.Spec),
		zap.String("timezone", broadcast.Timezone),
		zap.Any("platforms", selector.Platforms()),
	)
	return nil
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Handler returns the public API handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Broadcast runs the broadcast job once and waits for every send to finish.
func (a *App) Broadcast(ctx context.Context) error {
	if err := a.job.Run(ctx); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	a.job.Wait()
	return nil
}

// Run listens on the configured ports and blocks until the context is
// canceled or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var lc net.ListenConfig
	apiLn, err := lc.Listen(ctx, "tcp", ":"+strconv.Itoa(a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen api: %w", err)
	}
	var metricsLn net.Listener
	if a.cfg.Metrics.Port > 0 {
		metricsLn, err = lc.Listen(ctx, "tcp", ":"+strconv.Itoa(a.cfg.Metrics.Port))
		if err != nil {
			_ = apiLn.Close()
			return fmt.Errorf("listen metrics: %w", err)
		}
	}
	return a.Serve(ctx, apiLn, metricsLn)
}

// Serve runs the API server on apiLn, the metrics server on metricsLn (when
// non-nil) and the scheduler until ctx is done, then shuts everything down.
func (a *App) Serve(ctx context.Context, apiLn, metricsLn net.Listener) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	srv := &http.Server{
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("http server started", zap.String("addr", apiLn.Addr().String()))
		if err := srv.Serve(apiLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	var metricsSrv *http.Server
	if metricsLn != nil {
		r := chi.NewRouter()
		r.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics server started", zap.String("addr", metricsLn.Addr().String()))
			if err := metricsSrv.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics server shutdown error", zap.Error(err))
		}
	}
	return a.Close(shutdownCtx)
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.cfg.ShutdownTimeout(); d > 0 {
		return d
	}
	return 10 * time.Second
}

// Close stops the scheduler, drains in-flight broadcast sends and releases
// the store. Calls after the first are no-ops.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { a.close(ctx) })
	return nil
}

func (a *App) close(ctx context.Context) {
	if a.scheduler != nil {
		select {
		case <-a.scheduler.Stop().Done():
		case <-ctx.Done():
			a.logger.Warn("scheduler stop timed out")
		}
	}

	drained := make(chan struct{})
	go func() {
		a.job.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		a.logger.Warn("broadcast sends still in flight at shutdown")
	}

	a.closeStore()
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
}

func (a *App) closeStore() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", zap.Error(err))
	}
}
